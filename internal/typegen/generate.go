package typegen

import (
	"context"

	"go.uber.org/zap"

	"github.com/tsgonest/apitypes/internal/diagnostic"
	"github.com/tsgonest/apitypes/internal/errors"
	"github.com/tsgonest/apitypes/internal/logger"
	"github.com/tsgonest/apitypes/internal/openapi"
)

// Status is the outcome of one operation.
type Status int

const (
	StatusWritten   Status = iota // artifact written
	StatusUnchanged               // check mode: file on disk is up to date
	StatusStale                   // check mode: file on disk is missing or differs
	StatusFailed                  // extraction, resolution or emission failed
)

func (s Status) String() string {
	switch s {
	case StatusWritten:
		return "written"
	case StatusUnchanged:
		return "unchanged"
	case StatusStale:
		return "stale"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result reports what happened to one operation.
type Result struct {
	Operation openapi.Operation
	Status    Status
	Path      string // artifact location on disk; empty when layout failed
	Diff      string // StatusStale only
	Err       error  // StatusFailed only
}

// Summary aggregates the results of a run in document order.
type Summary struct {
	Results   []Result
	Written   int
	Unchanged int
	Stale     int
	Failed    int
}

// OK reports whether every operation succeeded and, in check mode, every
// artifact is up to date.
func (s *Summary) OK() bool {
	return s.Failed == 0 && s.Stale == 0
}

func (s *Summary) record(res Result) {
	s.Results = append(s.Results, res)
	switch res.Status {
	case StatusWritten:
		s.Written++
	case StatusUnchanged:
		s.Unchanged++
	case StatusStale:
		s.Stale++
	case StatusFailed:
		s.Failed++
	}
}

// Options configures Generate.
type Options struct {
	OutputRoot string
	Strict     bool
	Cycles     CyclePolicy
	// Check compares instead of writing.
	Check       bool
	Logger      *zap.SugaredLogger
	Diagnostics *diagnostic.Collector
	// OnResult is called after each operation, in document order.
	OnResult func(Result)
}

// Generate emits one artifact per operation of doc, strictly in document
// order. A failing operation is recorded and the run continues; the returned
// error is reserved for failures that stop the whole run (an unreadable path
// table, cancellation).
func Generate(ctx context.Context, doc *openapi.Document, opts Options) (*Summary, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	ops, err := doc.Operations()
	if err != nil {
		return nil, err
	}
	log.Debugw("Extracted operations", "count", len(ops), "schemas", doc.Registry.Len())

	sum := &Summary{}
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return sum, errors.Wrap(err, "generation interrupted")
		}

		res := process(doc.Registry, op, opts)
		switch {
		case res.Err != nil:
			opts.Diagnostics.Report(op.String(), res.Err)
			log.Debugw("Operation failed", "operation", op.String(), "id", op.RawID, "error", res.Err)
		case res.Status == StatusStale:
			opts.Diagnostics.Warn(diagnostic.CategoryStaleArtifact, op.String(), "", "out of date: "+res.Path)
			log.Debugw("Operation stale", "operation", op.String(), "path", res.Path)
		default:
			log.Debugw("Operation done", "operation", op.String(), "status", res.Status.String(), "path", res.Path)
		}
		sum.record(res)
		if opts.OnResult != nil {
			opts.OnResult(res)
		}
	}
	return sum, nil
}

func process(reg *openapi.Registry, op openapi.Operation, opts Options) Result {
	res := Result{Operation: op}
	fail := func(err error) Result {
		res.Status = StatusFailed
		res.Err = err
		return res
	}

	art, err := Synthesize(reg, op, ResolverOptions{
		Strict:      opts.Strict,
		Cycles:      opts.Cycles,
		Diagnostics: opts.Diagnostics,
		Operation:   op.String(),
	})
	if err != nil {
		return fail(err)
	}
	res.Path = art.Path(opts.OutputRoot)

	if opts.Check {
		stale, diff, err := Check(art, opts.OutputRoot)
		if err != nil {
			return fail(err)
		}
		res.Status = StatusUnchanged
		if stale {
			res.Status = StatusStale
			res.Diff = diff
		}
		return res
	}

	if _, err := art.Write(opts.OutputRoot); err != nil {
		return fail(err)
	}
	res.Status = StatusWritten
	return res
}

// Synthesize resolves op's payloads and lays out its artifact without
// touching the disk: the request declaration, the response declaration, then
// any cycle aliases.
func Synthesize(reg *openapi.Registry, op openapi.Operation, opts ResolverOptions) (*Artifact, error) {
	req, resp, err := op.Payloads(reg)
	if err != nil {
		return nil, err
	}

	r := NewResolver(reg, opts)
	r.Reserve(op.ID+"Request", op.ID+"Response")
	reqDecl, err := r.Declare(op.ID+"Request", req)
	if err != nil {
		return nil, errors.Wrap(err, "request body")
	}
	respDecl, err := r.Declare(op.ID+"Response", resp)
	if err != nil {
		return nil, errors.Wrap(err, "response")
	}
	aliases, err := r.Aliases()
	if err != nil {
		return nil, err
	}
	return NewArtifact(op, append([]Declaration{reqDecl, respDecl}, aliases...))
}
