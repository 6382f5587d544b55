package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/calvinmclean/autovalve"
	"github.com/calvinmclean/autovalve/sim"
)

var (
	simulateKnobFlag       string
	simulateBatteryFlag    int
	simulateDurationFlag   time.Duration
	simulateModelErrorFlag float64
)

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVarP(&simulateKnobFlag, "knob", "k", "0s=0,1s=80,10s=40", "knob profile as time=percent pairs")
	simulateCmd.Flags().IntVarP(&simulateBatteryFlag, "battery", "b", 12000, "battery voltage in millivolts")
	simulateCmd.Flags().DurationVarP(&simulateDurationFlag, "duration", "d", 20*time.Second, "simulated time to run for")
	simulateCmd.Flags().Float64Var(&simulateModelErrorFlag, "model-error", 1, "real travel time divided by the calibrated time")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the controller against a simulated valve and show how far its belief drifts",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		profile, err := sim.ParseProfile(simulateKnobFlag)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		result, err := sim.Run(ctx, cfg.Controller(), sim.Options{
			Profile:    profile,
			Millivolts: simulateBatteryFlag,
			Duration:   simulateDurationFlag,
			ModelError: simulateModelErrorFlag,
			Sink: func(at time.Duration, e autovalve.Event) {
				fmt.Printf("%10s %s\n", at.Truncate(time.Millisecond), e.TraceLine())
			},
		})
		if err != nil {
			return fmt.Errorf("error running simulation: %w", err)
		}

		printResult(result)
		return nil
	},
}

func printResult(r sim.Result) {
	errString := color.GreenString("%+.1f", r.Error())
	if math.Abs(r.Error()) > 5 {
		errString = color.RedString("%+.1f", r.Error())
	}

	fmt.Println()
	fmt.Printf("simulated:  %s\n", r.Elapsed.Truncate(time.Millisecond))
	fmt.Printf("knob:       %d%%\n", r.Knob)
	fmt.Printf("believed:   %d%%\n", r.Believed)
	fmt.Printf("physical:   %.1f%%\n", r.Physical)
	fmt.Printf("error:      %s\n", errString)
	fmt.Printf("moves:      %d\n", r.Moves)
	fmt.Printf("drive time: %s open, %s closed\n", r.Opened, r.Closed)
	if r.HotSwitches > 0 {
		fmt.Println(color.RedString("relay switched under load %d times", r.HotSwitches))
	}
}
