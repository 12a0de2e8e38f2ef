package main

import (
	"fmt"
	"time"

	"github.com/airenas/dubly/internal/pkg/notify"
	"github.com/spf13/cobra"
)

func newWatchCommand(newFetcher fetcherFunc, newColor colorFunc) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <id>",
		Short: "Poll project status until it completes or fails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := newFetcher()
			if err != nil {
				return err
			}
			p, err := notify.NewPoller(f, interval)
			if err != nil {
				return err
			}
			defer p.Stop()
			ch, err := p.Start(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cl := newColor()
			var last *notify.Snapshot
			for s := range ch {
				s := s
				if s.Same(last) {
					continue
				}
				printSnapshot(cmd.OutOrStdout(), cl, &s)
				last = &s
			}
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if last == nil {
				return fmt.Errorf("no status for '%s'", args[0])
			}
			if !last.IsTerminal() {
				return fmt.Errorf("polling stopped at '%s'", last.Status)
			}
			return nil
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", 2*time.Second, "Polling interval")
	return cmd
}
