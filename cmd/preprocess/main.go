// Command preprocess normalizes a CSV dataset through the feature schema before training.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/featurekit/internal/config"
	logpkg "github.com/kailas-cloud/featurekit/internal/logger"
	"github.com/kailas-cloud/featurekit/internal/repository/schemafile"
	"github.com/kailas-cloud/featurekit/internal/usecase/dataset"
	snapshotuc "github.com/kailas-cloud/featurekit/internal/usecase/snapshot"
	"github.com/kailas-cloud/featurekit/internal/version"
)

type options struct {
	schemaPath        string
	in                string
	out               string
	target            string
	dropMissingTarget bool
	snapshot          bool
	logLevel          string
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.schemaPath, "schema", "config/feature_schema.json", "feature schema resource (JSON or YAML)")
	flag.StringVar(&opts.in, "in", "", "input CSV with a header row")
	flag.StringVar(&opts.out, "out", "", "output CSV path")
	flag.StringVar(&opts.target, "target", "", "target column name (default: schema target)")
	flag.BoolVar(&opts.dropMissingTarget, "drop-missing-target", false, "skip rows with a blank target")
	flag.BoolVar(&opts.snapshot, "snapshot", true, "write feature_schema.json next to the output")
	flag.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("preprocess", version.String())
		return
	}

	if opts.in == "" || opts.out == "" {
		fmt.Fprintln(os.Stderr, "usage: preprocess -in data.csv -out clean.csv [-schema path] [-target name]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger, err := logpkg.NewLogger(config.GetEnv(), opts.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logpkg.ContextWithLogger(ctx, logger)

	if err := run(ctx, opts); err != nil {
		logger.Error("preprocess failed", zap.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	log := logpkg.FromContext(ctx)

	sch, err := schemafile.Load(opts.schemaPath)
	if err != nil {
		return err
	}
	if inverted := sch.InvertedBounds(); len(inverted) > 0 {
		log.Warn("features declare min greater than max", zap.Strings("features", inverted))
	}

	in, err := os.Open(filepath.Clean(opts.in))
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(opts.out), 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	out, err := os.Create(filepath.Clean(opts.out))
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	res, err := dataset.New(sch).Preprocess(ctx, in, out, dataset.Options{
		TargetColumn:      opts.target,
		DropMissingTarget: opts.dropMissingTarget,
	})
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close output: %w", cerr)
	}
	if err != nil {
		return err
	}

	if opts.snapshot {
		snaps, err := snapshotuc.New(nil, sch)
		if err != nil {
			return err
		}
		path := filepath.Join(filepath.Dir(opts.out), "feature_schema.json")
		if err := snaps.Export(ctx, path); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
