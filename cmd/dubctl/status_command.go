package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/airenas/dubly/internal/pkg/notify"
	"github.com/airenas/dubly/internal/pkg/status"
	"github.com/labstack/gommon/color"
	"github.com/spf13/cobra"
)

type fetcherFunc func() (notify.Fetcher, error)

type colorFunc func() *color.Color

func newStatusCommand(newFetcher fetcherFunc, newColor colorFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show current project status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := newFetcher()
			if err != nil {
				return err
			}
			s, err := f.Snapshot(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("can't get status: %w", err)
			}
			printSnapshot(cmd.OutOrStdout(), newColor(), s)
			return nil
		},
	}
}

func printSnapshot(w io.Writer, cl *color.Color, s *notify.Snapshot) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s %5.1f%%", s.ID, statusColor(cl, s.Status), s.Progress))
	if !s.UpdatedAt.IsZero() {
		b.WriteString(" " + s.UpdatedAt.Local().Format("15:04:05"))
	}
	if s.ErrorMessage != "" {
		b.WriteString(" " + cl.Red(s.ErrorMessage))
	}
	_, _ = fmt.Fprintln(w, b.String())
}

func statusColor(cl *color.Color, st status.Status) string {
	switch st {
	case status.Completed:
		return cl.Green(st.String())
	case status.Failed:
		return cl.Red(st.String())
	case status.VoiceMapping:
		return cl.Yellow(st.String())
	default:
		return cl.Cyan(st.String())
	}
}
