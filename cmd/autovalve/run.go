package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/calvinmclean/autovalve"
	"github.com/calvinmclean/autovalve/controller"
	"github.com/calvinmclean/autovalve/monitor"
	"github.com/calvinmclean/autovalve/rpi"
)

var runMetricsAddrFlag string

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runMetricsAddrFlag, "metrics-addr", "", "serve Prometheus metrics and the /moves history on this address, for example :9100")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the controller on a Raspberry Pi with the knob and battery on an MCP3008",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if cfg.Sensor.FullScale != rpi.MCP3008FullScale {
			log.WithField("full_scale", cfg.Sensor.FullScale).Warnf("sensor.full_scale should be %d for the MCP3008", rpi.MCP3008FullScale)
		}

		board, err := rpi.Open(cfg.RPi)
		if err != nil {
			return err
		}
		defer func() {
			if err := board.Close(); err != nil {
				log.WithError(err).Error("error closing gpio")
			}
		}()

		handlers := []monitor.Handler{monitor.NewLogger(nil)}
		var metrics *monitor.Metrics
		var history *monitor.History
		if runMetricsAddrFlag != "" {
			metrics = monitor.NewMetrics()
			history = monitor.NewHistory()
			handlers = append(handlers, metrics, history)
		}

		c, err := controller.New(cfg.Controller(), board.Hardware(), controller.WithEventSink(func(e autovalve.Event) {
			for _, h := range handlers {
				h.HandleEvent(e)
			}
		}))
		if err != nil {
			return fmt.Errorf("error creating controller: %w", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		eg, ctx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			log.Info("started")
			return c.Run(ctx, nil)
		})
		if metrics != nil {
			eg.Go(func() error {
				return monitor.Serve(ctx, runMetricsAddrFlag, metrics, history)
			})
		}

		err = eg.Wait()
		if errors.Is(err, context.Canceled) {
			log.WithField("pos", c.Position()).Info("stopped")
			return nil
		}
		return err
	},
}
