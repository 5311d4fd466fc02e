package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pable/go-bfv-analytics/internal/aggregator"
	"github.com/pable/go-bfv-analytics/internal/config"
	"github.com/pable/go-bfv-analytics/internal/extract"
	"github.com/pable/go-bfv-analytics/internal/lookup"
	"github.com/pable/go-bfv-analytics/internal/mongostore"
	"github.com/pable/go-bfv-analytics/internal/pipeline"
	"github.com/pable/go-bfv-analytics/internal/storage"
	"github.com/pable/go-bfv-analytics/internal/store"
)

var (
	cfg config.Config
	log = zap.NewNop()

	dbPath      string
	mongoURI    string
	mongoDB     string
	lookupPath  string
	logLevel    string
	logJSON     bool
	metricsFile string
)

var rootCmd = &cobra.Command{
	Use:   "bfvmetrics",
	Short: "Battlefield match stats ingestion and analytics",
	Long: `Ingest scraped Battlefield tracker game reports, clean and rank them per match,
and rebuild the reporting tables (facts, player and match dimensions, benchmarks).

Settings come from BFV_* environment variables, optionally seeded from ./.env;
flags override both.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { _ = log.Sync() },
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dbPath, "db", "", "path to SQLite database (default ~/.bfvmetrics/analytics.db)")
	pf.StringVar(&mongoURI, "mongo-uri", "", "MongoDB URI for the raw store; SQLite is used when empty")
	pf.StringVar(&mongoDB, "mongo-db", "", "MongoDB database name (default bfv_ingestion)")
	pf.StringVar(&lookupPath, "lookup", "", "YAML file with squad and orientation tables")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&logJSON, "log-json", false, "log as JSON instead of console text")
	pf.StringVar(&metricsFile, "metrics-file", "", "write stage metrics to this Prometheus textfile")

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(retrieveCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(benchmarksCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(sqlCmd)
}

// setup layers .env, environment and flags into cfg and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	if _, err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	var err error
	if cfg, err = config.Load(); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = dbPath
	}
	if flags.Changed("mongo-uri") {
		cfg.MongoURI = mongoURI
	}
	if flags.Changed("mongo-db") {
		cfg.MongoDB = mongoDB
	}
	if flags.Changed("lookup") {
		cfg.LookupPath = lookupPath
	}
	if flags.Changed("log-level") {
		if cfg.LogLevel, err = zapcore.ParseLevel(logLevel); err != nil {
			return fmt.Errorf("parse --log-level: %w", err)
		}
	}
	if flags.Changed("log-json") {
		cfg.LogJSON = logJSON
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = metricsFile
	}

	log = newLogger(cfg.LogLevel, cfg.LogJSON)
	return nil
}

// newLogger writes to stderr so tables on stdout stay clean.
func newLogger(level zapcore.Level, json bool) *zap.Logger {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	var enc zapcore.Encoder
	if json {
		enc = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		enc = zapcore.NewConsoleEncoder(encoderCfg)
	}
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
}

// stores bundles the open backends. raw is the Mongo store when a URI is
// configured and the SQLite database otherwise.
type stores struct {
	db    *storage.DB
	mongo *mongostore.Store
	raw   store.RawStore
}

func openStores(ctx context.Context) (*stores, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	s := &stores{db: db, raw: db}

	if cfg.MongoURI != "" {
		m, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB, log)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("open raw store: %w", err)
		}
		s.mongo, s.raw = m, m
		log.Debug("raw store is mongo", zap.String("db", cfg.MongoDB))
	}
	return s, nil
}

func (s *stores) Close() {
	if s.mongo != nil {
		if err := s.mongo.Close(context.Background()); err != nil {
			log.Warn("disconnect mongo", zap.Error(err))
		}
	}
	if err := s.db.Close(); err != nil {
		log.Warn("close storage", zap.Error(err))
	}
}

// newPipeline wires a pipeline over the open stores. ext may be nil.
func newPipeline(s *stores, ext extract.Extractor, m *pipeline.Metrics) (*pipeline.Pipeline, error) {
	var tables *lookup.Tables
	if cfg.LookupPath != "" {
		var err error
		if tables, err = lookup.Load(cfg.LookupPath); err != nil {
			return nil, err
		}
	}
	return pipeline.New(pipeline.Deps{
		Raw:       s.raw,
		Report:    s.db,
		Extractor: ext,
		Lookup:    tables,
		Metrics:   m,
		Log:       log,
	}, aggregator.Options{Target: cfg.Normalization, BenchmarkWindow: cfg.BenchmarkWindow}), nil
}

// stage opens the stores, runs fn against a fresh pipeline and writes the
// metrics textfile when one is configured.
func stage(cmd *cobra.Command, ext extract.Extractor, fn func(context.Context, *pipeline.Pipeline) error) error {
	ctx := cmd.Context()
	s, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	m := pipeline.NewMetrics()
	p, err := newPipeline(s, ext, m)
	if err != nil {
		return err
	}
	runErr := fn(ctx, p)
	if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
		log.Warn("write metrics textfile", zap.String("path", cfg.MetricsFile), zap.Error(err))
	}
	return runErr
}
