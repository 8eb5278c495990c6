package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/sanscraft/trappedtnt/internal/config"
	"github.com/sanscraft/trappedtnt/internal/dispatcher"
	"github.com/sanscraft/trappedtnt/internal/handlers"
	"github.com/sanscraft/trappedtnt/internal/influx"
	"github.com/sanscraft/trappedtnt/internal/itemtag"
	"github.com/sanscraft/trappedtnt/internal/logging"
	"github.com/sanscraft/trappedtnt/internal/registry"
	"github.com/sanscraft/trappedtnt/internal/simhost"
	"github.com/sanscraft/trappedtnt/internal/storage"
	"github.com/sanscraft/trappedtnt/internal/worker"
	"github.com/spf13/viper"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	Version   string = "1.0.0"
	BuildDate string = "unknown"

	PluginName string = "TrappedTnt"
)

var (
	// DataDir holds config.yml, the sqlite journal and the logs directory.
	DataDir string = "."

	LogFilePath string
	LogFile     *os.File

	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	SessionStartTime time.Time = time.Now()
)

func main() {
	if len(os.Args) > 1 {
		DataDir = os.Args[1]
	}

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(DataDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "path", viper.ConfigFileUsed())
	}

	setupLogging()

	server := simhost.New(Logger)
	SlogManager.GetTick = server.CurrentTick

	zlog := zerolog.New(logOutput()).With().Timestamp().Str("plugin", PluginName).Logger()

	var closers []io.Closer
	var writers []*worker.Writer
	recorders := []storage.Recorder{}

	storageCfg := config.GetStorageConfig()
	backend, err := storage.NewBackend(storageCfg, storage.ServerInfo{Name: PluginName, Version: Version}, zlog)
	if err != nil {
		Logger.Error("Failed to create storage backend, journal disabled", "error", err)
	} else if err := backend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend, journal disabled", "error", err)
		backend.Close()
		backend = nil
	} else if storageCfg.Type == "sqlite" || storageCfg.Type == "postgres" {
		w := worker.New(worker.Dependencies{Name: "journal", Target: backend, Closer: backend, Logger: zlog})
		w.Start()
		writers = append(writers, w)
		recorders = append(recorders, w)
		closers = append(closers, w)
		Logger.Info("Journal storage initialized", "type", storageCfg.Type)
	} else {
		recorders = append(recorders, backend)
		closers = append(closers, backend)
		Logger.Info("Journal storage initialized", "type", "memory")
	}

	influxCfg := config.GetInfluxConfig()
	if influxCfg.Enabled {
		telemetry := influx.NewManager(zlog, influxCfg)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := telemetry.Connect(ctx)
		cancel()
		if err != nil {
			Logger.Warn("Failed to set up InfluxDB telemetry", "error", err)
		} else {
			w := worker.New(worker.Dependencies{Name: "influx", Target: telemetry, Closer: telemetry, Logger: zlog})
			w.Start()
			writers = append(writers, w)
			recorders = append(recorders, w)
			closers = append(closers, w)
		}
	}

	journal := storage.NewJournal(Logger, recorders...)
	journal.SetTickSource(server.CurrentTick)

	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(Logger))
	if err != nil {
		Logger.Error("Failed to create event dispatcher", "error", err)
		os.Exit(1)
	}
	server.SetDispatcher(eventDispatcher)

	service, err := handlers.NewService(handlers.Dependencies{
		Server:     server,
		Dispatcher: eventDispatcher,
		Registry:   registry.New(),
		Tagger:     itemtag.New(),
		Events:     journal,
		Closers:    closers,
		Logger:     Logger,
		PluginName: PluginName,
		Version:    Version,
	})
	if err != nil {
		Logger.Error("Failed to create plugin service", "error", err)
		os.Exit(1)
	}
	if err := service.Enable(); err != nil {
		Logger.Error("Failed to enable plugin", "error", err)
		os.Exit(1)
	}

	c := newConsole(server, service, backend, os.Stdout)
	c.writers = writers
	c.run(os.Stdin, simhost.TickInterval)

	if err := service.Disable(); err != nil {
		Logger.Warn("Plugin disabled with errors", "error", err)
	}
	if LogFile != nil {
		LogFile.Close()
	}
}

// setupLogging moves logging to the session log file and the optional Graylog sink.
func setupLogging() {
	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		Logger.Warn("Failed to create logs directory, logging to stdout", "error", err, "path", logsDir)
	} else {
		LogFilePath = logging.LogFilePath(logsDir, PluginName, SessionStartTime)
		if _, err := os.Stat(LogFilePath); err == nil {
			os.Rename(LogFilePath, LogFilePath+".old")
		}
		LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
			LogFile = nil
		}
	}

	var graylog io.Writer
	if gcfg := config.GetGraylogConfig(); gcfg.Enabled {
		w, err := logging.NewGraylogWriter(gcfg.Address)
		if err != nil {
			Logger.Warn("Failed to set up Graylog, continuing without it", "error", err)
		} else {
			graylog = w
		}
	}

	var file io.Writer
	if LogFile != nil {
		file = LogFile
	}
	SlogManager.Setup(file, viper.GetString("logLevel"), graylog)
	Logger = SlogManager.Logger()
	if LogFile != nil {
		fmt.Printf("%s %s (build %s) logging to %s\n", PluginName, Version, BuildDate, LogFilePath)
	}
}

func logOutput() io.Writer {
	if LogFile != nil {
		return LogFile
	}
	return os.Stderr
}
