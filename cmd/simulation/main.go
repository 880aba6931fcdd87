// simulation runs one measurement session against the simulated sensor on a
// virtual clock and prints what a client would have seen.
package main

import (
	"fmt"
	"os"
	"time"

	"ppg-monitor-be/internal/config"
	"ppg-monitor-be/internal/measurement"
	"ppg-monitor-be/internal/sensor"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type options struct {
	duration  time.Duration
	heartRate float64
	ratio     float64
	noise     float64
	seed      int64
	liftAt    time.Duration
	liftFor   time.Duration
	beats     bool
}

func main() {
	cfg := config.Load()
	opts := options{
		duration:  cfg.Measurement.Duration(),
		heartRate: cfg.Simulator.HeartRate,
		ratio:     cfg.Simulator.SpO2Ratio,
		noise:     cfg.Simulator.Noise,
		seed:      1,
	}

	cmd := &cobra.Command{
		Use:   "simulation",
		Short: "Run a measurement session offline against the simulated sensor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg.Measurement, opts)
		},
		SilenceUsage: true,
	}

	f := cmd.Flags()
	f.DurationVar(&opts.duration, "duration", opts.duration, "session length")
	f.Float64Var(&opts.heartRate, "heart-rate", opts.heartRate, "simulated heart rate in bpm")
	f.Float64Var(&opts.ratio, "ratio", opts.ratio, "simulated red/IR ratio of ratios")
	f.Float64Var(&opts.noise, "noise", opts.noise, "peak noise in ADC counts")
	f.Int64Var(&opts.seed, "seed", opts.seed, "noise seed")
	f.DurationVar(&opts.liftAt, "lift-at", 0, "lift the finger this far into the session (0 keeps it placed)")
	f.DurationVar(&opts.liftFor, "lift-for", 3*time.Second, "how long the finger stays lifted")
	f.BoolVar(&opts.beats, "beats", false, "print every detected beat")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(mc config.MeasurementConfig, opts options) error {
	mc.DurationMs = int(opts.duration.Milliseconds())
	step := mc.LoopInterval()

	clock := time.Unix(0, 0)
	sim := sensor.NewSimulated(sensor.SimulatedOptions{
		HeartRate: opts.heartRate,
		Ratio:     opts.ratio,
		Noise:     opts.noise,
		Seed:      opts.seed,
	}, func() time.Time { return clock })

	engine := measurement.NewEngine(measurement.OptionsFromConfig(mc))

	color.Cyan("Simulating %s session: %.0f bpm, ratio %.2f, noise %.0f\n",
		opts.duration, opts.heartRate, opts.ratio, opts.noise)

	started, err := engine.Start(0)
	if err != nil {
		return err
	}
	fmt.Printf("session %s started\n", started.SessionID)

	lifted := false
	for now := step; now <= opts.duration+step; now += step {
		clock = clock.Add(step)

		if opts.liftAt > 0 {
			wantLifted := now >= opts.liftAt && now < opts.liftAt+opts.liftFor
			if wantLifted != lifted {
				lifted = wantLifted
				sim.SetFingerPresent(!lifted)
			}
		}

		sample, err := sim.Poll()
		if err != nil {
			return err
		}

		for _, ev := range engine.Step(now, sample) {
			if done := report(ev, opts.beats); done {
				return nil
			}
		}
	}

	color.Red("session ended without a result")
	return nil
}

// report prints ev and tells whether the session is over.
func report(ev measurement.Event, beats bool) bool {
	switch e := ev.(type) {
	case measurement.BeatDetected:
		if beats {
			fmt.Printf("  beat %3d at %6.2fs  %3d bpm\n", e.Count, e.At.Seconds(), e.BPM)
		}
	case measurement.FingerLost:
		color.Yellow("  finger lifted at %.2fs", e.At.Seconds())
	case measurement.FingerReturned:
		color.Yellow("  finger back at %.2fs", e.At.Seconds())
	case measurement.FingerRemoved:
		color.Red("Measurement canceled at %.2fs: no finger for %s", e.At.Seconds(), e.Missing)
		return true
	case measurement.Completed:
		r := e.Result
		if r.BeatsDetected < 3 {
			color.Red("Not enough beats detected (%d)", r.BeatsDetected)
		}
		color.Green("Heart rate: %.1f bpm", r.HeartRate)
		color.Green("SpO2:       %d%%", r.SpO2)
		fmt.Printf("Beats:      %d\n", r.BeatsDetected)
		return true
	}
	return false
}
