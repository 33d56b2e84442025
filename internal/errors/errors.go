// Package errors provides error handling for apitypes.
//
// This package re-exports github.com/cockroachdb/errors and defines the
// sentinel errors every failure in a run is marked with. Callers classify
// failures with errors.Is against the sentinels:
//
//	if errors.Is(err, errors.ErrUnknownReference) {
//	    // a $ref points at a schema that does not exist
//	}
//
// Hints attached with WithHint are printed by the CLI below the message.
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New       = crdb.New
	Newf      = crdb.Newf
	Wrap      = crdb.Wrap
	Wrapf     = crdb.Wrapf
	Mark      = crdb.Mark
	WithStack = crdb.WithStack
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is           = crdb.Is
	IsAny        = crdb.IsAny
	As           = crdb.As
	UnwrapAll    = crdb.UnwrapAll
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Sentinel errors. Every error produced by a run is marked with one of these.
var (
	// ErrInput indicates a missing argument or an unreadable local document.
	ErrInput = New("input error")

	// ErrFetch indicates the remote document could not be retrieved.
	ErrFetch = New("fetch error")

	// ErrMalformedDocument indicates the document is not valid JSON/YAML or
	// lacks the schema definitions section.
	ErrMalformedDocument = New("malformed document")

	// ErrUnknownReference indicates a $ref names a schema that is not defined.
	ErrUnknownReference = New("unknown reference")

	// ErrCyclicReference indicates a $ref re-enters a schema that is
	// already being expanded.
	ErrCyclicReference = New("cyclic reference")

	// ErrUnsupportedSchema indicates a schema shape the resolver does not
	// handle, reported only in strict mode.
	ErrUnsupportedSchema = New("unsupported schema")

	// ErrFileSystem indicates an artifact directory or file could not be written.
	ErrFileSystem = New("file system error")

	// ErrConfig indicates an unreadable or invalid configuration file.
	ErrConfig = New("config error")
)

// Kind returns the sentinel err is marked with, or nil when it carries none.
func Kind(err error) error {
	for _, sentinel := range []error{
		ErrInput, ErrFetch, ErrMalformedDocument, ErrUnknownReference,
		ErrCyclicReference, ErrUnsupportedSchema, ErrFileSystem, ErrConfig,
	} {
		if Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}
