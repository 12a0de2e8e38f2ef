package utils

import (
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/labstack/gommon/color"
)

const banner = `
    ____        __    __
   / __ \__  __/ /_  / /_  __
  / / / / / / / __ \/ / / / /
 / /_/ / /_/ / /_/ / / /_/ /
/_____/\__,_/_.___/_/\__, /
                    /____/   v: %s

  %s
%s
________________________________________________________

`

// PrintBanner writes the service banner to stdout
func PrintBanner(service, version string) {
	writeBanner(os.Stdout, service, version)
}

func writeBanner(w io.Writer, service, version string) {
	cl := color.New()
	cl.SetOutput(w)
	cl.Printf(banner, cl.Red(version), service, cl.Green("https://github.com/airenas/dubly"))
}

// WaitForShutdown blocks until a termination signal or doneCh closes, then cancels the work
// and waits up to timeout for doneCh
func WaitForShutdown(cancelF func(), doneCh <-chan struct{}, timeout time.Duration) {
	waitCh := make(chan os.Signal, 2)
	signal.Notify(waitCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(waitCh)
	waitDone(waitCh, cancelF, doneCh, timeout)
}

func waitDone(sigCh <-chan os.Signal, cancelF func(), doneCh <-chan struct{}, timeout time.Duration) bool {
	select {
	case <-sigCh:
		goapp.Log.Info().Msg("Got exit signal")
	case <-doneCh:
		goapp.Log.Info().Msg("Service exit")
	}
	cancelF()
	select {
	case <-doneCh:
		goapp.Log.Info().Msg("All code returned. Now exit. Bye")
		return true
	case <-time.After(timeout):
		goapp.Log.Warn().Msg("Timeout graceful shutdown")
		return false
	}
}
