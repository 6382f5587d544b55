package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/calvinmclean/autovalve/monitor"
	"github.com/calvinmclean/autovalve/ui"
)

var (
	monitorPortFlag        string
	monitorBaudFlag        int
	monitorMetricsAddrFlag string
	monitorUIFlag          bool
)

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringVarP(&monitorPortFlag, "port", "p", "", "serial port, overrides the config. The first USB port is used if both are empty")
	monitorCmd.Flags().IntVarP(&monitorBaudFlag, "baud", "b", 0, "baud rate, overrides the config")
	monitorCmd.Flags().StringVar(&monitorMetricsAddrFlag, "metrics-addr", "", "serve Prometheus metrics and the /moves history on this address, for example :9100")
	monitorCmd.Flags().BoolVar(&monitorUIFlag, "ui", false, "show the dashboard. Also enabled by ENABLE_UI=true")
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Read the trace from a board over serial. Typed letters are sent to the board as commands",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		conn := ui.Connection{SerialPort: cfg.Serial.Port, BaudRate: cfg.Serial.BaudRate}
		if monitorPortFlag != "" {
			conn.SerialPort = monitorPortFlag
		}
		if monitorBaudFlag != 0 {
			conn.BaudRate = monitorBaudFlag
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		var srv httpHandlers
		if monitorMetricsAddrFlag != "" {
			srv = httpHandlers{metrics: monitor.NewMetrics(), history: monitor.NewHistory()}
		}

		if monitorUIFlag || os.Getenv("ENABLE_UI") == "true" {
			return runUI(ctx, conn, srv)
		}

		return runMonitor(ctx, conn, srv, monitor.NewLogger(nil))
	},
}

// httpHandlers are only set when there is an address to serve them on
type httpHandlers struct {
	metrics *monitor.Metrics
	history *monitor.History
}

func runMonitor(ctx context.Context, conn ui.Connection, srv httpHandlers, handlers ...monitor.Handler) error {
	port, name, err := monitor.OpenSerial(conn.SerialPort, conn.BaudRate)
	if err != nil {
		return err
	}
	defer port.Close()

	log.WithField("port", name).Info("monitoring")

	return monitor.Run(ctx, monitor.Options{
		Board:       port,
		Commands:    os.Stdin,
		Metrics:     srv.metrics,
		History:     srv.history,
		MetricsAddr: monitorMetricsAddrFlag,
		Handlers:    handlers,
	})
}

func runUI(ctx context.Context, conn ui.Connection, srv httpHandlers) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	valveUI := ui.NewValveUI()

	connect := func(conn ui.Connection) (io.Writer, error) {
		port, name, err := monitor.OpenSerial(conn.SerialPort, conn.BaudRate)
		if err != nil {
			return nil, err
		}
		log.WithField("port", name).Info("monitoring")

		go func() {
			defer cancel()
			err := monitor.Run(ctx, monitor.Options{
				Board:       port,
				Commands:    os.Stdin,
				Metrics:     srv.metrics,
				History:     srv.history,
				MetricsAddr: monitorMetricsAddrFlag,
				Handlers:    []monitor.Handler{monitor.NewLogger(nil), valveUI},
			})
			if err != nil {
				log.WithError(err).Error("monitor stopped")
			}
		}()

		return port, nil
	}

	var w io.Writer
	if conn.SerialPort != "" {
		var err error
		w, err = connect(conn)
		if err != nil {
			return fmt.Errorf("error connecting: %w", err)
		}
	}

	valveUI.Run(ctx, w, connect)
	return nil
}
