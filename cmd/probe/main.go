// probe checks a running monitor's HTTP endpoints and push channel.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	var (
		baseURL      string
		timeout      time.Duration
		withReadings bool
		watch        time.Duration
	)

	root := &cobra.Command{
		Use:          "probe",
		Short:        "Check the endpoints of a running PPG monitor",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "base URL of the monitor")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second, "per-request timeout")

	newProbe := func() *Probe { return NewProbe(baseURL, timeout) }

	root.AddCommand(
		&cobra.Command{
			Use:   "health",
			Short: "GET /health",
			RunE: func(cmd *cobra.Command, args []string) error {
				return report("Health endpoint", newProbe().Health())
			},
		},
		&cobra.Command{
			Use:   "beat",
			Short: "GET /beat",
			RunE: func(cmd *cobra.Command, args []string) error {
				return report("Beat endpoint", newProbe().Beat())
			},
		},
		&cobra.Command{
			Use:   "readings",
			Short: "Start a measurement and wait for its result",
			RunE: func(cmd *cobra.Command, args []string) error {
				return report("Readings", newProbe().Readings(cmd.Context()))
			},
		},
	)

	wsCmd := &cobra.Command{
		Use:   "ws",
		Short: "Connect to the push channel and ping it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return report("Push channel", newProbe().Stream(cmd.Context(), watch))
		},
	}
	wsCmd.Flags().DurationVar(&watch, "watch", 0, "keep printing pushed events for this long")
	root.AddCommand(wsCmd)

	allCmd := &cobra.Command{
		Use:   "all",
		Short: "Run every check",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newProbe()
			results := []error{
				report("Health endpoint", p.Health()),
				report("Beat endpoint", p.Beat()),
				report("Push channel", p.Stream(cmd.Context(), 0)),
			}
			if withReadings {
				results = append(results, report("Readings", p.Readings(cmd.Context())))
			} else {
				color.Yellow("Readings: SKIPPED")
			}
			for _, err := range results {
				if err != nil {
					color.Red("\nSome checks failed.")
					return err
				}
			}
			color.Green("\nAll checks passed.")
			return nil
		},
	}
	allCmd.Flags().BoolVar(&withReadings, "with-readings", false, "also run a full measurement")
	root.AddCommand(allCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func report(name string, err error) error {
	if err != nil {
		color.Red("%s: FAILED (%v)", name, err)
		return err
	}
	color.Green("%s: PASSED", name)
	return nil
}
