package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"csvload/internal/config"
	"csvload/internal/datasource/file"
	"csvload/internal/logging"
	"csvload/internal/metrics"
	"csvload/internal/metrics/datadog"
	"csvload/internal/metrics/prompush"
	"csvload/internal/parser/csv"
	"csvload/internal/pipeline"
	"csvload/internal/storage"
)

// run executes one csvload invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args)
	if config.IsHelp(err) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fmt.Fprintln(stderr, "Error: configuration is invalid")
		return 1
	}

	log := logging.Setup(stderr, cfg.Log.Level, cfg.Log.Format).With(
		"run_id", uuid.NewString(),
		"table", cfg.TableName(),
		"storage", cfg.Storage.Kind,
	)

	if err := setupMetrics(cfg.Metrics); err != nil {
		log.Warn("metrics disabled", "err", err)
	} else {
		defer func() {
			if err := metrics.Flush(); err != nil {
				log.Warn("metrics flush failed", "err", err)
			}
		}()
	}

	res, err := execute(ctx, cfg, log, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if !cfg.DryRun {
			fmt.Fprintf(stderr, "Rows loaded before failure: %s\n", formatCount(res.Rows))
		}
		return 1
	}
	return 0
}

// execute runs the inference pass, prints the schema, and unless this is a
// dry run prepares the table and runs the load pass.
func execute(ctx context.Context, cfg config.Config, log *slog.Logger, stdout io.Writer) (pipeline.LoadResult, error) {
	comma, err := csv.ParseDelimiter(cfg.Input.Delimiter)
	if err != nil {
		return pipeline.LoadResult{}, err
	}
	csvOpts := csv.Options{
		Comma:            comma,
		HasHeader:        cfg.Input.HasHeader,
		NormalizeHeaders: cfg.Input.NormalizeHeaders,
	}
	src := file.NewLocal(cfg.Input.Path)

	fmt.Fprintf(stdout, "Analyzing CSV file: %s\n", src.Path())
	if size, err := src.Size(ctx); err == nil {
		log.Debug("input opened", "path", src.Path(), "bytes", size)
	}

	tbl, err := pipeline.Infer(ctx, src, pipeline.InferOptions{
		CSV:        csvOpts,
		Table:      cfg.TableName(),
		SampleSize: cfg.Inference.SampleSize,
		Job:        cfg.Metrics.Job,
	})
	if err != nil {
		return pipeline.LoadResult{}, fmt.Errorf("infer schema: %w", err)
	}
	printSchema(stdout, tbl)

	if cfg.DryRun {
		stmt, err := storage.CreateTableSQL(cfg.Storage.Kind, tbl)
		if err != nil {
			return pipeline.LoadResult{}, err
		}
		fmt.Fprintf(stdout, "CREATE TABLE SQL:\n%s;\n\nDry run complete. No data loaded.\n", stmt)
		return pipeline.LoadResult{}, nil
	}

	log.Info("connecting")
	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN, Table: tbl})
	if err != nil {
		return pipeline.LoadResult{}, fmt.Errorf("connect: %w", err)
	}
	defer repo.Close()

	prep, err := storage.PrepareTable(ctx, cfg.Storage.Kind, repo, tbl, storage.TableOptions{
		Drop:   cfg.Storage.DropTable,
		Create: cfg.Storage.CreateTable,
	})
	if err != nil {
		return pipeline.LoadResult{}, err
	}
	if prep.Dropped {
		log.Info("table dropped")
	}
	if prep.Created {
		log.Info("table created")
	}

	log.Info("load started", "batch_size", cfg.Load.BatchSize, "max_retries", cfg.Load.MaxRetries)
	res, err := pipeline.Load(ctx, src, tbl, repo, pipeline.LoadOptions{
		CSV:       csvOpts,
		BatchSize: cfg.Load.BatchSize,
		Policy: storage.Policy{
			MaxRetries:     cfg.Load.MaxRetries,
			InitialBackoff: cfg.Load.InitialBackoff,
			MaxBackoff:     cfg.Load.MaxBackoff,
		},
		Job: cfg.Metrics.Job,
		Observer: pipeline.Observers{
			pipeline.LogObserver{Logger: log},
			pipeline.MetricsObserver{Job: cfg.Metrics.Job},
		},
	})
	if err != nil {
		return res, fmt.Errorf("load: %w", err)
	}
	printSummary(stdout, tbl.Name, res)
	return res, nil
}

// setupMetrics installs the configured metrics backend. "none" keeps the nop
// backend.
func setupMetrics(m config.Metrics) error {
	switch m.Backend {
	case "", "none":
		return nil
	case "pushgateway":
		b, err := prompush.NewBackend(m.Job, m.PushgatewayURL)
		if err != nil {
			return err
		}
		metrics.SetBackend(b)
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			GlobalTags: []string{"job:" + m.Job},
		})
		if err != nil {
			return err
		}
		metrics.SetBackend(b)
	default:
		return fmt.Errorf("unknown metrics backend %q", m.Backend)
	}
	return nil
}
