// Command batcheval evaluates every applicant row of an xlsx workbook and
// writes a decision report. With -schedule it keeps running and re-evaluates
// the input on a cron schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/l3hautikpatel/credwise-sub000/internal/application/dto"
	"github.com/l3hautikpatel/credwise-sub000/internal/application/usecase"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/port"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/service"
	"github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/adapter"
	"github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/batch"
	"github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/config"
	pgRepo "github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/persistence/postgres"
	"github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/storage"
	"github.com/l3hautikpatel/credwise-sub000/pkg/observability"
	pkgpostgres "github.com/l3hautikpatel/credwise-sub000/pkg/postgres"
)

type options struct {
	in       string
	out      string
	sheet    string
	upload   bool
	persist  bool
	ttl      time.Duration
	workers  int
	schedule string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.in, "in", "", "applicant workbook (.xlsx)")
	flag.StringVar(&o.out, "out", "", "report path (default: <in>-decisions.xlsx)")
	flag.StringVar(&o.sheet, "sheet", "", "sheet to read (default: first sheet)")
	flag.BoolVar(&o.upload, "upload", false, "upload the report to object storage")
	flag.BoolVar(&o.persist, "persist", false, "store every evaluation in Postgres")
	flag.DurationVar(&o.ttl, "ttl", 24*time.Hour, "lifetime of the presigned report link")
	flag.IntVar(&o.workers, "workers", 4, "concurrent evaluations")
	flag.StringVar(&o.schedule, "schedule", "", "cron spec, e.g. \"0 2 * * *\"; runs once when empty")
	flag.Parse()

	if o.out == "" && o.in != "" {
		o.out = strings.TrimSuffix(o.in, filepath.Ext(o.in)) + "-decisions.xlsx"
	}
	return o
}

func main() {
	_ = godotenv.Load()

	opts := parseFlags()
	cfg := config.Load()
	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "batcheval",
	})

	if opts.in == "" {
		fmt.Fprintln(os.Stderr, "usage: batcheval -in applicants.xlsx [-out report.xlsx] [-upload] [-persist] [-schedule spec]")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var repo port.EvaluationRepository
	if opts.persist {
		pool, err := pkgpostgres.NewPool(ctx, pkgpostgres.Config{
			Host:            cfg.DB.Host,
			Port:            cfg.DB.Port,
			User:            cfg.DB.User,
			Password:        cfg.DB.Password,
			Database:        cfg.DB.Name,
			SSLMode:         cfg.DB.SSLMode,
			ApplicationName: "batcheval",
			MaxConns:        int32(max(opts.workers, 1)),
		})
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = pgRepo.NewEvaluationRepo(pool)
	}

	var store port.ReportStore
	if opts.upload {
		if !cfg.Storage.Enabled() {
			logger.Error("-upload requires S3_ENDPOINT and S3_BUCKET")
			os.Exit(2)
		}
		s3Store, err := storage.NewS3ReportStore(storage.S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     cfg.Storage.AccessKey,
			SecretAccessKey: cfg.Storage.SecretKey,
			Bucket:          cfg.Storage.Bucket,
			UseSSL:          cfg.Storage.UseSSL,
			Region:          cfg.Storage.Region,
			Prefix:          "reports",
		})
		if err != nil {
			logger.Error("failed to create report store", "error", err)
			os.Exit(1)
		}
		store = s3Store
	}

	evaluatorOpts := []service.EvaluatorOption{service.WithLogger(logger)}
	if cfg.Prediction.URL != "" {
		client := adapter.NewHTTPPredictionClient(adapter.HTTPPredictionConfig{URL: cfg.Prediction.URL}, nil)
		evaluatorOpts = append(evaluatorOpts, service.WithPredictor(client, cfg.Prediction.Timeout))
	}

	uc := usecase.NewBatchEvaluateUseCase(
		service.NewEvaluator(evaluatorOpts...),
		batch.NewExcelWorkbook(),
		repo,
		store,
		nil,
		opts.workers,
		logger,
	)

	if opts.schedule == "" {
		if err := runOnce(ctx, uc, opts, logger); err != nil {
			logger.Error("batch failed", "error", err)
			os.Exit(1)
		}
		return
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(opts.schedule, func() {
		if err := runOnce(ctx, uc, opts, logger); err != nil {
			logger.Error("scheduled batch failed", "error", err)
		}
	}); err != nil {
		logger.Error("invalid schedule", "schedule", opts.schedule, "error", err)
		os.Exit(2)
	}
	scheduler.Start()
	logger.Info("batch scheduler started", "schedule", opts.schedule, "input", opts.in)

	<-ctx.Done()
	<-scheduler.Stop().Done()
	logger.Info("batch scheduler stopped")
}

func runOnce(ctx context.Context, uc *usecase.BatchEvaluateUseCase, opts options, logger *slog.Logger) error {
	data, err := os.ReadFile(opts.in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	resp, err := uc.Execute(ctx, dto.BatchEvaluateRequest{
		Workbook:   data,
		Sheet:      opts.sheet,
		ReportName: filepath.Base(opts.out),
		Upload:     opts.upload,
		LinkTTL:    opts.ttl,
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(opts.out, resp.Report, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	logger.Info("report written",
		"path", opts.out,
		"total", resp.Total,
		"approved", resp.Approved,
		"failed", resp.Failed,
		"report_url", resp.ReportURL,
	)
	return nil
}
