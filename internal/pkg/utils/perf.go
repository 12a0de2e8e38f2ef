package utils

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/airenas/go-app/pkg/goapp"

	_ "net/http/pprof"
)

// RunPerfEndpoint serves pprof handlers on the port, port <= 0 disables it
func RunPerfEndpoint(port int) {
	if port <= 0 {
		goapp.Log.Info().Msg("no debug.port, pprof disabled")
		return
	}
	goapp.Log.Info().Int("port", port).Msg("starting pprof endpoint")
	if err := http.ListenAndServe(":"+strconv.Itoa(port), nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
		goapp.Log.Error().Err(err).Msg("can't start pprof endpoint")
	}
}
