package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/glassgear/cmd/glassgear/internal/sim"
	"github.com/haivivi/glassgear/pkg/glassgear"
)

var simulateFlags struct {
	listen     string
	configPath string
	toneHz     float64
	batteryRT  time.Duration
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the device control plane with simulated drivers",
	Long: `Run the full device loop against simulated drivers and serve the
device link on a websocket endpoint at /link.

The device behaves like real hardware: audio streams only while a
client is connected and subscribed, photos upload in bounded chunks
that yield to audio, and the power controller throttles when idle.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulate(cmd.Context())
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateFlags.listen, "listen", ":8931", "websocket listen address")
	simulateCmd.Flags().StringVarP(&simulateFlags.configPath, "config", "f", "", "device config YAML (defaults used when empty)")
	simulateCmd.Flags().Float64Var(&simulateFlags.toneHz, "tone", 440, "test tone frequency in Hz")
	simulateCmd.Flags().DurationVar(&simulateFlags.batteryRT, "battery-runtime", 4*time.Hour, "simulated full-to-empty battery runtime")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(parent context.Context) error {
	cfg := glassgear.DefaultConfig()
	if simulateFlags.configPath != "" {
		var err error
		cfg, err = glassgear.LoadConfig(simulateFlags.configPath)
		if err != nil {
			return err
		}
	}

	logger := glassgear.SlogLogger(newSlog())
	link := glassgear.NewWSLink(logger)
	power := &sim.Power{Log: logger}

	app := glassgear.New(glassgear.Options{
		Config:  cfg,
		Logger:  logger,
		Link:    link,
		Capture: sim.NewToneCapture(cfg.SampleRate, simulateFlags.toneHz),
		Encoder: sim.NewEncoder(cfg.FrameSamples),
		Sensor:  sim.NewCamera(time.Now().UnixNano()),
		Power:   power,
		Battery: sim.NewBattery(simulateFlags.batteryRT),
		LED:     &sim.LED{Log: logger},
		OTASink: &sim.FirmwareStore{Log: logger},
	})

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/link", link)
	srv := &http.Server{Addr: simulateFlags.listen, Handler: mux}

	serveErr := make(chan error, 1)
	go func() {
		logger.InfoPrintf("sim: device %s listening on %s/link", app.Info().SerialNumber, simulateFlags.listen)
		serveErr <- srv.ListenAndServe()
	}()

	runErr := make(chan error, 1)
	go func() { runErr <- app.Run(ctx) }()

	var err error
	select {
	case err = <-serveErr:
	case err = <-runErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)

	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("simulate: %w", err)
}
