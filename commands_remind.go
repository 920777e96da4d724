package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (c *cli) remindCmd() *cobra.Command {
	var (
		watch    bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Show the daily reading reminder if it is due",
		Long: `Remind checks the reading reminder once. It fires at most once per day,
after the configured reminder time, and only when the library has books.
Suitable for a cron job or shell startup file.

With --watch it keeps checking until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if watch {
				if interval <= 0 {
					return fmt.Errorf("interval must be positive, got %s", interval)
				}
				c.checker().Run(cmd.Context(), interval, func(msg string) {
					fmt.Fprintln(out, "📚 "+msg)
				})
				return nil
			}

			msg, err := c.checker().Check()
			if err != nil {
				return err
			}
			if msg == "" {
				fmt.Fprintln(out, mutedStyle.Render("No reminder due."))
				return nil
			}
			fmt.Fprintln(out, "📚 "+msg)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep checking until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", time.Minute, "check interval with --watch")
	return cmd
}
