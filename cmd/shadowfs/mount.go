package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andronics/shadowfs/pkg/shadowfs/config"
	"github.com/andronics/shadowfs/pkg/shadowfs/control"
	"github.com/andronics/shadowfs/pkg/shadowfs/logging"
	"github.com/andronics/shadowfs/pkg/shadowfs/wiring"
)

// terminationSignals are the signals that trigger a graceful unmount.
var terminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func mountMain(_ *cobra.Command, arguments []string) error {
	if len(arguments) != 2 {
		return fmt.Errorf("expected a configuration path and a mountpoint")
	}
	configPath, mountpoint := arguments[0], arguments[1]

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("unable to load configuration: %w", err)
	}

	level, ok := logging.NameToLevel(cfg.Logging.Level)
	if !ok {
		level = logging.LevelInfo
	}
	var logFile *os.File
	if cfg.Logging.File != "" {
		logFile, err = os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("unable to open log file: %w", err)
		}
		defer logFile.Close()
	}
	logger := logging.NewLogger(level, logFile)

	mount, err := wiring.Build(cfg, logger)
	if err != nil {
		return fmt.Errorf("unable to assemble filesystem: %w", err)
	}

	terminationChannel := make(chan os.Signal, 1)
	signal.Notify(terminationChannel, terminationSignals...)

	mountErrors := make(chan error, 1)
	go func() {
		mountErrors <- mount.Serve(mountpoint)
	}()

	var controlServer *http.Server
	if cfg.Metrics.Enabled {
		controlServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: control.New(mount, logger).Handler(),
		}
		go func() {
			if err := controlServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("control server terminated abnormally: %v", err)
			}
		}()
	}

	select {
	case s := <-terminationChannel:
		logger.Info("received termination signal: %v", s)
	case err := <-mountErrors:
		if err != nil {
			return fmt.Errorf("mount terminated abnormally: %w", err)
		}
		return nil
	}

	if controlServer != nil {
		controlServer.Close()
	}
	return mount.Unmount()
}

var mountCommand = &cobra.Command{
	Use:          "mount <configuration> <mountpoint>",
	Short:        "Mount the virtual filesystem described by a configuration file",
	RunE:         mountMain,
	SilenceUsage: true,
}

func init() {
	flags := mountCommand.Flags()
	flags.SortFlags = false
	flags.BoolP("help", "h", false, "Show help information")
}
