package cmd

import (
	"fmt"
	"log/slog"
	"os"

	cfgpkg "github.com/KaramelBytes/askcsv/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Override config if set
	flagHTTPTimeoutSec int
	flagClusterK       int

	// Dataset source; a SQL query takes precedence over the file.
	flagDataset      string
	flagSheet        string
	flagDelimiter    string
	flagDecimalComma bool
	flagMaxRows      int
	flagSQLDriver    string
	flagSQLDSN       string
	flagSQLQuery     string

	// Loaded configuration
	cfg *cfgpkg.Global
	// logger writes to stderr; --debug lowers the level.
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
)

var rootCmd = &cobra.Command{
	Use:   "askcsv",
	Short: "askcsv: ask questions about a tabular dataset",
	Long: `askcsv loads a CSV, XLSX or SQL query result and answers free-text questions about it.
Questions that name a known statistic are answered locally; the rest go to a generative
backend (Gemini first, Hugging Face as fallback).`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.askcsv/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug output")
	pf.IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	pf.IntVar(&flagClusterK, "k", 0, "number of groups for clustering questions (overrides config)")
	pf.StringVarP(&flagDataset, "dataset", "d", "", "dataset file: .csv, .tsv or .xlsx (overrides config)")
	pf.StringVar(&flagSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	pf.StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter (default: sniffed)")
	pf.BoolVar(&flagDecimalComma, "decimal-comma", false, "parse numbers written as 1.234,5")
	pf.IntVar(&flagMaxRows, "max-rows", 0, "load at most this many rows from a file (0 = all)")
	pf.StringVar(&flagSQLDriver, "sql-driver", "sqlite3", "database/sql driver for --sql-query (sqlite3 or postgres)")
	pf.StringVar(&flagSQLDSN, "sql-dsn", "", "data source name for --sql-query")
	pf.StringVar(&flagSQLQuery, "sql-query", "", "load the dataset from this SQL query instead of a file")
}

func loadConfig() {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
	applyOverrides(cfg)
}

// applyOverrides copies explicitly set persistent flags onto c.
func applyOverrides(c *cfgpkg.Global) {
	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		c.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("k") && flagClusterK > 0 {
		c.ClusterK = flagClusterK
	}
	if f.Changed("dataset") && flagDataset != "" {
		c.DefaultDataset = flagDataset
	}
}

// ensureConfig returns the loaded config, loading it on first use.
func ensureConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	applyOverrides(c)
	cfg = c
	return cfg, nil
}
