package main

import (
	"context"
	"crypto/sha256"
	"os"

	"github.com/tsgonest/apitypes/internal/errors"
	"github.com/tsgonest/apitypes/internal/source"
	"github.com/tsgonest/apitypes/internal/watcher"
)

// watch generates once and then again every time src changes, until ctx is
// cancelled. Failed passes are reported and watching continues.
func (a *app) watch(ctx context.Context, src string) error {
	if source.IsRemote(src) {
		return errors.WithHint(
			errors.Mark(errors.Newf("cannot watch remote source %s", src), errors.ErrInput),
			"--watch needs a local file; download the document or drop --watch",
		)
	}

	last := digest(src)
	a.pass(ctx, src)

	w, err := watcher.New([]string{src}, watcher.DefaultDebounce, a.log, func(events []watcher.Event) {
		for _, e := range events {
			if e.Op == "remove" {
				a.log.Warnw("Source removed, waiting for it to reappear", "file", e.Path)
				return
			}
		}
		// Editors often touch a file without changing it.
		sum := digest(src)
		if sum != nil && string(sum) == string(last) {
			a.log.Debugw("Source content unchanged, skipping", "file", src)
			return
		}
		last = sum
		a.pass(ctx, src)
	})
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()
	select {
	case <-w.Ready():
		a.out.banner("Watching %s for changes (Ctrl+C to stop)", src)
	case err := <-done:
		return err
	}
	return <-done
}

// pass runs one generation and reports its error instead of returning it.
func (a *app) pass(ctx context.Context, src string) {
	if err := a.generate(ctx, src); err != nil {
		printError(a.out.stderr, err)
	}
}

// digest hashes the file at path, or returns nil if it cannot be read.
func digest(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	sum := sha256.Sum256(data)
	return sum[:]
}
