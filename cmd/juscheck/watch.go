package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/juscheck/internal/ui/monitor"
)

func newWatchCmd(flags *globalFlags) *cobra.Command {
	var refresh time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Interactive view of tracked processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.close()

			m := monitor.New(a.service, a.scheduler, a.composer, refresh)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().DurationVar(&refresh, "refresh", 30*time.Second, "reload interval, 0 to disable")
	return cmd
}
