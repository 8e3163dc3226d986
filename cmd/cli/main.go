// Command vehicle-engine reads a SimulationInput JSON from a file (or stdin),
// runs the simulation, and writes the SimulationLog JSON to stdout. Logs go
// to stderr and, when logsDir is set, to a log file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cxd309/vehicle-engine/internal/config"
	"github.com/cxd309/vehicle-engine/internal/engine"
	"github.com/cxd309/vehicle-engine/internal/logging"
	"github.com/cxd309/vehicle-engine/internal/metrics"
	otelprovider "github.com/cxd309/vehicle-engine/internal/otel"
	"github.com/cxd309/vehicle-engine/internal/storage/memory"
)

const appName = "vehicle-engine"

func main() {
	configPath := flag.String("config", "", "config file or directory holding "+config.FileName)
	inputPath := flag.String("input", "", "simulation input JSON (default: first argument, then stdin)")
	flag.Parse()

	if *inputPath == "" && flag.NArg() > 0 {
		*inputPath = flag.Arg(0)
	}
	if err := run(*configPath, *inputPath, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func run(configPath, inputPath string, out io.Writer) error {
	start := time.Now()
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	var logFile *os.File
	if cfg.LogsDir != "" {
		if err := os.MkdirAll(cfg.LogsDir, 0o755); err != nil {
			return fmt.Errorf("creating logs dir: %w", err)
		}
		logFile, err = os.Create(logging.LogFilePath(cfg.LogsDir, appName, start))
		if err != nil {
			return fmt.Errorf("creating log file: %w", err)
		}
		defer logFile.Close()
	}

	otelWriter := io.Writer(os.Stderr)
	if logFile != nil {
		otelWriter = logFile
	}
	provider, err := otelprovider.New(otelprovider.Config{
		Enabled:      cfg.OTel.Enabled,
		ServiceName:  cfg.OTel.ServiceName,
		BatchTimeout: cfg.OTel.BatchTimeout,
		LogWriter:    otelWriter,
		Endpoint:     cfg.OTel.Endpoint,
		Insecure:     cfg.OTel.Insecure,
	})
	if err != nil {
		return fmt.Errorf("setting up otel: %w", err)
	}
	defer provider.Shutdown(context.Background())

	logs := logging.NewSlogManager()
	opts := logging.Options{Level: cfg.LogLevel, Console: os.Stderr, Provider: provider.LoggerProvider()}
	if logFile != nil {
		opts.File = logFile
	}
	logs.Setup(opts)
	logger := logs.Logger()
	defer logs.Flush(context.Background())

	rec, err := metrics.New(nil)
	if err != nil {
		return err
	}

	backend, err := newBackend(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating storage backend: %w", err)
	}
	if backend != nil {
		if err := backend.Init(); err != nil {
			return fmt.Errorf("initializing %s storage: %w", backend.Name(), err)
		}
		defer func() {
			if err := backend.Close(); err != nil {
				logger.Error("failed to close storage", "backend", backend.Name(), "error", err)
			}
		}()
	}

	data, err := readInput(inputPath)
	if err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	simOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMetrics(rec),
		engine.WithSampleInterval(cfg.Sim.SampleInterval),
		engine.WithSeed(cfg.Sim.Seed),
	}
	if backend != nil {
		simOpts = append(simOpts, engine.WithStorage(backend))
	}
	result, err := engine.RunJSON(string(data), simOpts...)
	if err != nil {
		return fmt.Errorf("simulation error: %w", err)
	}
	fmt.Fprintln(out, result)

	if mem, ok := backend.(*memory.Backend); ok && cfg.Storage.Memory.ExportPath != "" {
		if err := exportSamples(mem, cfg.Storage.Memory.ExportPath); err != nil {
			return err
		}
		logger.Info("samples exported", "path", cfg.Storage.Memory.ExportPath, "count", mem.Recorded())
	}
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func exportSamples(mem *memory.Backend, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := mem.Export(f); err != nil {
		f.Close()
		return fmt.Errorf("exporting samples: %w", err)
	}
	return f.Close()
}
