package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsgonest/apitypes/internal/config"
	"github.com/tsgonest/apitypes/internal/diagnostic"
	"github.com/tsgonest/apitypes/internal/errors"
	"github.com/tsgonest/apitypes/internal/logger"
	"github.com/tsgonest/apitypes/internal/openapi"
	"github.com/tsgonest/apitypes/internal/source"
	"github.com/tsgonest/apitypes/internal/typegen"
)

// errReported marks a failed run whose details were already printed.
var errReported = errors.New("run failed")

type options struct {
	configFile string
	output     string
	strict     bool
	cycles     string
	check      bool
	watch      bool
	timeout    time.Duration
	verbose    bool
	quiet      bool
	logJSON    bool
	noColor    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "apitypes <source>",
		Short: "Generate TypeScript request/response types from an OpenAPI document",
		Long: `Generate TypeScript request and response types from an OpenAPI 3 document.

<source> is an http(s):// URL or a path to a JSON or YAML document. One file is
written per operation, at <output>/<path>/<method><OperationId>.ts, holding the
<OperationId>Request and <OperationId>Response declarations.

Configuration is read from the first of package.json ("apitypes" key),
.apitypesrc[.json|.yaml|.yml|.toml] or apitypes.config.[json|yaml|yml|toml]
found walking up from the working directory.

Examples:
  apitypes openapi.json
  apitypes https://api.example.com/v3/api-docs -o src/api
  apitypes openapi.yaml --check
  apitypes openapi.json --watch --cycles alias`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				fmt.Fprint(stderr, cmd.UsageString())
				return errors.WithHint(
					errors.Mark(errors.Newf("expected exactly one source, got %d", len(args)), errors.ErrInput),
					"pass a URL or a local file path to an OpenAPI document",
				)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.noColor {
				color.NoColor = true
			}
			a, err := newApp(cmd, opts, stdout, stderr)
			if err != nil {
				return err
			}
			defer func() { _ = a.log.Sync() }()

			if opts.watch {
				return a.watch(cmd.Context(), args[0])
			}
			return a.generate(cmd.Context(), args[0])
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVar(&opts.configFile, "config", "", "Config file to use instead of searching for one")
	f.StringVarP(&opts.output, "output", "o", "", "Output directory (overrides output.path)")
	f.BoolVar(&opts.strict, "strict", false, "Fail operations that use schema shapes the generator does not recognize")
	f.StringVar(&opts.cycles, "cycles", "", `Recursive schemas: "error" fails the operation, "alias" emits a named type`)
	f.BoolVar(&opts.check, "check", false, "Compare generated output with the files on disk instead of writing; exit 1 when out of date")
	f.BoolVar(&opts.watch, "watch", false, "Regenerate whenever the local source document changes")
	f.DurationVar(&opts.timeout, "timeout", 0, "Bound on reading the source document (0 means no limit)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Report only errors, not warnings or notes")
	f.BoolVar(&opts.logJSON, "log-json", false, "Log as JSON lines")
	f.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	return cmd
}

// app holds everything a run needs once flags and config are resolved.
type app struct {
	opts   *options
	cfg    *config.Config
	cycles typegen.CyclePolicy
	log    *zap.SugaredLogger
	client *http.Client
	out    *printer
}

func newApp(cmd *cobra.Command, opts *options, stdout, stderr io.Writer) (*app, error) {
	log := logger.New(logger.Options{Verbose: opts.verbose, JSON: opts.logJSON, Output: stderr})

	cfg, err := config.Load(opts.configFile, "")
	if err != nil {
		return nil, err
	}
	if cfg.File != "" {
		log.Debugw("Loaded config", "file", cfg.File)
	}
	for _, w := range cfg.Warnings {
		log.Warnw("Config warning", "file", cfg.File, "warning", w)
	}

	f := cmd.Flags()
	if f.Changed("output") {
		abs, err := filepath.Abs(opts.output)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "resolving %s", opts.output), errors.ErrInput)
		}
		cfg.Output.Path = abs
	}
	if f.Changed("strict") {
		cfg.Strict = opts.strict
	}
	if f.Changed("cycles") {
		cfg.Cycles = opts.cycles
	}
	cycles, err := cfg.CyclePolicy()
	if err != nil {
		return nil, err
	}

	return &app{
		opts:   opts,
		cfg:    cfg,
		cycles: cycles,
		log:    log,
		client: source.NewHTTPClient(log, source.DefaultClientOptions),
		out:    newPrinter(stdout, stderr),
	}, nil
}

// generate runs one acquisition and generation pass over src.
func (a *app) generate(ctx context.Context, src string) error {
	start := time.Now()
	mode := "Generating"
	if a.opts.check {
		mode = "Checking"
	}
	a.out.banner("%s types from %s", mode, src)

	doc, err := a.load(ctx, src)
	if err != nil {
		return err
	}
	a.log.Debugw("Parsed document", "openapi", doc.OpenAPI, "title", doc.Title, "version", doc.Version)

	// Under --strict the remaining warnings (out-of-date artifacts) count as
	// errors too.
	diags := diagnostic.NewCollector(a.cfg.Strict, a.opts.quiet)
	sum, err := typegen.Generate(ctx, doc, typegen.Options{
		OutputRoot:  a.cfg.Output.Path,
		Strict:      a.cfg.Strict,
		Cycles:      a.cycles,
		Check:       a.opts.check,
		Logger:      a.log,
		Diagnostics: diags,
		OnResult:    a.out.result,
	})
	if err != nil {
		return err
	}

	a.out.diagnostics(diags)
	a.out.summary(sum, a.cfg.Output.Path, time.Since(start))
	if !sum.OK() {
		return errReported
	}
	return nil
}

// load reads and parses the source document. Only the read is bounded by
// --timeout.
func (a *app) load(ctx context.Context, src string) (*openapi.Document, error) {
	readCtx := ctx
	if a.opts.timeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, a.opts.timeout)
		defer cancel()
	}

	data, err := source.Read(readCtx, src, a.client)
	if err != nil {
		return nil, err
	}
	a.log.Debugw("Read source", "source", src, "bytes", len(data))
	return openapi.ParseSource(src, data)
}
