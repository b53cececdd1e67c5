// Command ingest queues the customer and loan spreadsheets for ingestion by the server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"loan-engine/internal/config"
	"loan-engine/internal/event"
	"loan-engine/internal/infrastructure/logging"
	"loan-engine/internal/ingestion"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const pollInterval = time.Second

type options struct {
	configDir    string
	customerFile string
	loanFile     string
	wait         bool
	timeout      time.Duration
}

func parseFlags(v *viper.Viper, args []string) (options, error) {
	fs := pflag.NewFlagSet("ingest", pflag.ContinueOnError)
	fs.String("config", ".", "directory containing config.yml and .env")
	fs.String("customer_file", "customer_data.xlsx", "customer spreadsheet to ingest")
	fs.String("loan_file", "loan_data.xlsx", "loan spreadsheet to ingest")
	fs.Bool("wait", false, "wait for both jobs to finish and print their summaries")
	fs.Duration("timeout", 30*time.Minute, "how long --wait polls before giving up")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	for key, flag := range map[string]string{
		"ingest.config":       "config",
		"ingest.customerFile": "customer_file",
		"ingest.loanFile":     "loan_file",
		"ingest.wait":         "wait",
		"ingest.timeout":      "timeout",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return options{}, err
		}
	}

	return options{
		configDir:    v.GetString("ingest.config"),
		customerFile: v.GetString("ingest.customerFile"),
		loanFile:     v.GetString("ingest.loanFile"),
		wait:         v.GetBool("ingest.wait"),
		timeout:      v.GetDuration("ingest.timeout"),
	}, nil
}

func main() {
	v := viper.New()
	opts, err := parseFlags(v, os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(v, opts.configDir)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	if err := run(context.Background(), cfg, opts, os.Stdout, logger); err != nil {
		logger.Error("Ingestion trigger failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, out io.Writer, logger *slog.Logger) error {
	files := []struct {
		kind ingestion.Kind
		path string
	}{
		{ingestion.KindCustomers, opts.customerFile},
		{ingestion.KindLoans, opts.loanFile},
	}
	for i := range files {
		abs, err := filepath.Abs(files[i].path)
		if err != nil {
			return err
		}
		if _, err := os.Stat(abs); err != nil {
			return fmt.Errorf("%s file: %w", files[i].kind, err)
		}
		files[i].path = abs
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Redis.Addr, err)
	}

	uri, err := cfg.RabbitMQ.URI()
	if err != nil {
		return err
	}
	conn, err := event.Dial(uri, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	publisher, err := event.NewJobPublisher(conn, cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		return err
	}
	store := ingestion.NewRedisStatusStore(rdb, cfg.Ingestion.ResultTTL, logger)
	svc := ingestion.NewService(nil, store, publisher, cfg.Ingestion.JobTimeout, logger)

	jobIDs := make([]string, 0, len(files))
	for _, f := range files {
		req, err := svc.Submit(ctx, f.kind, f.path)
		if err != nil {
			return fmt.Errorf("failed to queue %s job: %w", f.kind, err)
		}
		fmt.Fprintf(out, "Queued %s ingestion job %s for %s\n", f.kind, req.JobID, f.path)
		jobIDs = append(jobIDs, req.JobID)
	}

	if !opts.wait {
		return nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	return waitForJobs(waitCtx, svc, jobIDs, pollInterval, out)
}

type statusReader interface {
	Status(ctx context.Context, jobID string) (*ingestion.JobResult, error)
}

// waitForJobs polls until every job is terminal and prints each summary as it lands.
func waitForJobs(ctx context.Context, store statusReader, jobIDs []string, interval time.Duration, out io.Writer) error {
	pending := make(map[string]bool, len(jobIDs))
	for _, id := range jobIDs {
		pending[id] = true
	}
	failed := 0

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		for _, id := range jobIDs {
			if !pending[id] {
				continue
			}
			res, err := store.Status(ctx, id)
			if err != nil {
				if errors.Is(err, ctx.Err()) {
					break
				}
				return fmt.Errorf("failed to read status of job %s: %w", id, err)
			}
			if !res.Terminal() {
				continue
			}
			delete(pending, id)
			if res.State == ingestion.StateFailed {
				failed++
			}
			fmt.Fprintf(out, "%s: %s\n", res.Kind, res.Summary)
		}

		if len(pending) == 0 {
			if failed > 0 {
				return fmt.Errorf("%d ingestion job(s) failed", failed)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up waiting for %d job(s): %w", len(pending), ctx.Err())
		case <-ticker.C:
		}
	}
}
