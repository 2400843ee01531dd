package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgdatadiff/pgdatadiff/internal/config"
	"github.com/pgdatadiff/pgdatadiff/internal/diff"
	"github.com/pgdatadiff/pgdatadiff/internal/logging"
	"github.com/pgdatadiff/pgdatadiff/internal/orchestrate"
	"github.com/pgdatadiff/pgdatadiff/internal/report"
	"github.com/pgdatadiff/pgdatadiff/internal/schema"
	"github.com/pgdatadiff/pgdatadiff/internal/source"
	"github.com/pgdatadiff/pgdatadiff/internal/ui"
	"github.com/pgdatadiff/pgdatadiff/internal/wizard"
)

var (
	cfgFile          string
	logLevel         string
	flagFirstDB      string
	flagSecondDB     string
	flagSchema       string
	flagChunkSize    int
	flagCountOnly    bool
	flagCheckColumns []string
	flagOnlyData     bool
	flagOnlySeqs     bool
	flagReport       string
	flagInteractive  bool

	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "pgdatadiff",
	Short: "pgdatadiff — compare data and sequences between two PostgreSQL databases",
	Long: `pgdatadiff verifies that two independently operated PostgreSQL databases
hold equivalent table data and equivalent sequence state, without
transferring row contents over the network. Tables are compared through
chunked, primary-key-ordered digests computed inside the database.

Exit code 0 means every executed phase fully matched; 1 means at least
one unit mismatched.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		if flagInteractive {
			cfg, err = wizard.Run(cfg)
			if err != nil {
				return err
			}
		}

		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return err
		}

		log, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Directory)
		if err != nil {
			return fmt.Errorf("setting up logging: %w", err)
		}

		ctx := cmd.Context()

		firstSource := source.NewPostgres(cfg.FirstDB, cfg.Schema)
		if err := firstSource.Connect(ctx); err != nil {
			return fmt.Errorf("first database: %w", err)
		}
		defer firstSource.Close()

		secondSource := source.NewPostgres(cfg.SecondDB, cfg.Schema)
		if err := secondSource.Connect(ctx); err != nil {
			return fmt.Errorf("second database: %w", err)
		}
		defer secondSource.Close()

		firstSchema := schema.NewPostgres(cfg.FirstDB, cfg.Schema, log)
		if err := firstSchema.Connect(ctx); err != nil {
			return fmt.Errorf("first database: %w", err)
		}
		defer firstSchema.Close()

		secondSchema := schema.NewPostgres(cfg.SecondDB, cfg.Schema, log)
		if err := secondSchema.Connect(ctx); err != nil {
			return fmt.Errorf("second database: %w", err)
		}
		defer secondSchema.Close()

		orch := &orchestrate.Orchestrator{
			FirstSchema: firstSchema,
			Tables: &diff.TableDiffer{
				First:        firstSource,
				Second:       secondSource,
				FirstSchema:  firstSchema,
				SecondSchema: secondSchema,
				ChunkSize:    cfg.ChunkSize,
				CountOnly:    cfg.CountOnly,
				CheckColumns: cfg.CheckColumns,
			},
			Sequences: &diff.SequenceDiffer{
				First:  firstSource,
				Second: secondSource,
			},
			Reporter: &ui.ConsoleReporter{Out: cmd.OutOrStdout()},
			Log:      log,
		}

		var dataPhase, seqPhase *report.PhaseResult
		failed := false

		if !cfg.OnlySequences {
			summary, err := orch.RunDataPhase(ctx)
			if err != nil {
				return err
			}
			dataPhase = &report.PhaseResult{Summary: summary, Units: orch.DataOutcomes}
			failed = failed || summary.Failed()
		}
		if !cfg.OnlyData {
			summary, err := orch.RunSequencePhase(ctx)
			if err != nil {
				return err
			}
			seqPhase = &report.PhaseResult{Summary: summary, Units: orch.SequenceOutcomes}
			failed = failed || summary.Failed()
		}

		if cfg.ReportPath != "" {
			rep := report.Generate(cfg.FirstDB, cfg.SecondDB, cfg.Schema,
				cfg.ChunkSize, cfg.CountOnly, dataPhase, seqPhase)
			if err := report.WriteJSON(rep, config.ExpandHome(cfg.ReportPath)); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
		}

		if failed {
			return fmt.Errorf("comparison finished with mismatches")
		}
		return nil
	},
}

// resolveConfig loads the config file when present and overlays any
// flags the user set on top of it.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := &config.Config{Version: config.CurrentVersion}

	path := cfgFile
	if path == "" {
		path = config.ExpandHome(config.DefaultPath)
	}
	if _, err := os.Stat(path); err == nil {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if cfgFile != "" {
		return nil, fmt.Errorf("config file %s not found", cfgFile)
	}

	flags := cmd.Flags()
	if flags.Changed("firstdb") {
		cfg.FirstDB = flagFirstDB
	}
	if flags.Changed("seconddb") {
		cfg.SecondDB = flagSecondDB
	}
	if flags.Changed("schema") {
		cfg.Schema = flagSchema
	}
	if flags.Changed("chunk-size") {
		if flagChunkSize <= 0 {
			return nil, fmt.Errorf("chunk size must be a positive integer, got %d", flagChunkSize)
		}
		cfg.ChunkSize = flagChunkSize
	}
	if flags.Changed("count-only") {
		cfg.CountOnly = flagCountOnly
	}
	if flags.Changed("check-columns") {
		cfg.CheckColumns = flagCheckColumns
	}
	if flags.Changed("only-data") {
		cfg.OnlyData = flagOnlyData
	}
	if flags.Changed("only-sequences") {
		cfg.OnlySequences = flagOnlySeqs
	}
	if flags.Changed("report") {
		cfg.ReportPath = flagReport
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

func Execute() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.pgdatadiff/pgdatadiff.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.Flags().StringVar(&flagFirstDB, "firstdb", "", "connection string of the first database (postgres://...)")
	rootCmd.Flags().StringVar(&flagSecondDB, "seconddb", "", "connection string of the second database (postgres://...)")
	rootCmd.Flags().StringVar(&flagSchema, "schema", "public", "schema to compare")
	rootCmd.Flags().IntVar(&flagChunkSize, "chunk-size", config.DefaultChunkSize, "rows per digest window")
	rootCmd.Flags().BoolVar(&flagCountOnly, "count-only", false, "compare row counts only, skipping content digesting")
	rootCmd.Flags().StringArrayVar(&flagCheckColumns, "check-columns", nil, "restrict content comparison to named columns (repeatable; primary key always included)")
	rootCmd.Flags().BoolVar(&flagOnlyData, "only-data", false, "skip the sequence-comparison phase")
	rootCmd.Flags().BoolVar(&flagOnlySeqs, "only-sequences", false, "skip the data-comparison phase")
	rootCmd.Flags().StringVar(&flagReport, "report", "", "write a JSON run report to the given path")
	rootCmd.Flags().BoolVar(&flagInteractive, "interactive", false, "collect connection settings interactively")
	rootCmd.MarkFlagsMutuallyExclusive("only-data", "only-sequences")
}
