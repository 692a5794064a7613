// Package cmd implements the annexa command line
package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ethanolivertroy/annexa/internal/config"
	"github.com/ethanolivertroy/annexa/internal/logging"
	"github.com/ethanolivertroy/annexa/internal/workspace"
)

// Version is set at build time with -ldflags "-X github.com/ethanolivertroy/annexa/cmd.Version=..."
var Version = "v0.1.0"

// StageError names the pipeline stage that failed
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// options collects every flag; subcommands register the ones they use
type options struct {
	configFile string
	outDir     string
	logLevel   string
	logFormat  string

	catalog      string
	requirements string
	policies     string
	evidence     string

	threshold       float64
	includeKeywords bool
	maxAge          time.Duration
	asOf            string
	workers         int

	formats []string
	style   string
	width   int
}

// env is what a stage runs with once configuration is resolved
type env struct {
	cfg config.Config
	log *zap.Logger
	ws  *workspace.Workspace
	out io.Writer
	now time.Time
}

// NewRootCommand builds the annexa command tree
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "annexa",
		Short: "ISO 27001 Annex A control-to-policy mapping and compliance scoring",
		Long: `annexa maps an organization's security policies and evidence against the
ISO 27001 Annex A control catalog, scores each control and reports gaps.

The pipeline runs in four stages, each reading the previous stage's output
from the output directory:

  annexa ingest    load catalog, policies and evidence into snapshot.json
  annexa map       score every policy against every control (mappings.json)
  annexa check     verify evidence, score controls, find gaps (results.json)
  annexa export    write JSON, CSV, Markdown, XLSX, PDF and metrics reports

or all at once with "annexa run-all".`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "YAML config file")
	pf.StringVarP(&opts.outDir, "out", "o", "", "output directory (default \"out\")")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "", "log format: console or json")

	root.AddCommand(
		newIngestCommand(opts),
		newMapCommand(opts),
		newCheckCommand(opts),
		newExportCommand(opts),
		newRunAllCommand(opts),
		newBrowseCommand(opts),
		newAdviseCommand(opts),
		newSummaryCommand(opts),
		newCatalogCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

func addInputFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.StringVar(&opts.catalog, "catalog", "", "control catalog (JSON or YAML); empty uses the built-in Annex A catalog")
	f.StringVar(&opts.requirements, "requirements", "", "required evidence/keyword overlay (JSON or YAML)")
	f.StringVar(&opts.policies, "policies", "", "directory of policy documents (.txt, .md)")
	f.StringVar(&opts.evidence, "evidence", "", "evidence index (JSON or CSV)")
}

func addMatchFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.Float64Var(&opts.threshold, "threshold", config.DefaultMatchThreshold, "minimum similarity for a policy to match a control")
	f.BoolVar(&opts.includeKeywords, "include-keywords", false, "append required keywords to the control text before matching")
	f.IntVar(&opts.workers, "workers", 1, "controls evaluated in parallel")
}

func addCheckFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.DurationVar(&opts.maxAge, "max-age", 0, "maximum evidence age, e.g. 2160h; 0 disables the freshness check")
	f.StringVar(&opts.asOf, "as-of", "", "assessment date (RFC3339 or YYYY-MM-DD); default now")
}

func addExportFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringSliceVarP(&opts.formats, "format", "f", nil, "formats to export: json, gaps-csv, mappings-csv, markdown, xlsx, pdf, metrics (default all)")
}

// load resolves config file, environment and flags, in increasing precedence
func (o *options) load(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			apply()
		}
	}
	set("out", func() { cfg.Paths.Output = o.outDir })
	set("log-level", func() { cfg.Log.Level = o.logLevel })
	set("log-format", func() { cfg.Log.Format = o.logFormat })
	set("catalog", func() { cfg.Paths.Catalog = o.catalog })
	set("requirements", func() { cfg.Paths.Requirements = o.requirements })
	set("policies", func() { cfg.Paths.Policies = o.policies })
	set("evidence", func() { cfg.Paths.Evidence = o.evidence })
	set("threshold", func() { cfg.Matching.Threshold = o.threshold })
	set("include-keywords", func() { cfg.Matching.IncludeKeywords = o.includeKeywords })
	set("workers", func() { cfg.Workers = o.workers })
	set("max-age", func() { cfg.Evidence.MaxAge = o.maxAge })
	set("as-of", func() { cfg.Evidence.AsOf = o.asOf })

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	now, err := cfg.AssessmentTime(time.Now)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	ws, err := workspace.Open(cfg.Paths.Output)
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, log: logger, ws: ws, out: cmd.OutOrStdout(), now: now}, nil
}

// stageFunc is one pipeline stage
type stageFunc func(ctx context.Context, e *env) error

// runStage wraps a stage failure in a StageError
func runStage(ctx context.Context, e *env, name string, fn stageFunc) error {
	e.log.Debug("stage starting", zap.String("stage", name))
	start := time.Now()
	if err := fn(ctx, e); err != nil {
		e.log.Error("stage failed", zap.String("stage", name), zap.Error(err))
		return &StageError{Stage: name, Err: err}
	}
	e.log.Debug("stage finished", zap.String("stage", name), zap.Duration("took", time.Since(start)))
	return nil
}

// stageCommand adapts a single stage to cobra
func stageCommand(opts *options, name string, fn stageFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := opts.load(cmd)
		if err != nil {
			return &StageError{Stage: name, Err: err}
		}
		defer func() { _ = e.log.Sync() }()
		return runStage(cmd.Context(), e, name, fn)
	}
}
