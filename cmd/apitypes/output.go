package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/tsgonest/apitypes/internal/diagnostic"
	"github.com/tsgonest/apitypes/internal/typegen"
)

// printer writes progress to stdout and diagnostics to stderr.
type printer struct {
	stdout io.Writer
	stderr io.Writer
	cwd    string

	bold   *color.Color
	green  *color.Color
	yellow *color.Color
	red    *color.Color
	faint  *color.Color
}

func newPrinter(stdout, stderr io.Writer) *printer {
	cwd, _ := os.Getwd()
	return &printer{
		stdout: stdout,
		stderr: stderr,
		cwd:    cwd,
		bold:   color.New(color.Bold),
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
		faint:  color.New(color.Faint),
	}
}

func (p *printer) banner(format string, args ...any) {
	fmt.Fprintln(p.stdout, p.bold.Sprintf(format, args...))
}

// result prints one line per operation as it completes.
func (p *printer) result(res typegen.Result) {
	var tag string
	switch res.Status {
	case typegen.StatusWritten:
		tag = p.green.Sprint("wrote    ")
	case typegen.StatusUnchanged:
		tag = p.faint.Sprint("ok       ")
	case typegen.StatusStale:
		tag = p.yellow.Sprint("stale    ")
	case typegen.StatusFailed:
		tag = p.red.Sprint("failed   ")
	}

	line := "  " + tag + res.Operation.String()
	if res.Path != "" && res.Status != typegen.StatusFailed {
		line += p.faint.Sprint(" -> " + p.rel(res.Path))
	}
	fmt.Fprintln(p.stdout, line)

	if res.Status == typegen.StatusStale && res.Diff != "" {
		for _, l := range strings.Split(strings.TrimRight(res.Diff, "\n"), "\n") {
			switch {
			case strings.HasPrefix(l, "- "):
				l = p.red.Sprint(l)
			case strings.HasPrefix(l, "+ "):
				l = p.green.Sprint(l)
			default:
				l = p.faint.Sprint(l)
			}
			fmt.Fprintln(p.stdout, "      "+l)
		}
	}
}

func (p *printer) diagnostics(c *diagnostic.Collector) {
	if len(c.Diagnostics()) == 0 {
		return
	}
	fmt.Fprintln(p.stderr)
	for _, d := range c.Diagnostics() {
		sev := p.yellow
		switch d.Severity {
		case diagnostic.SeverityError:
			sev = p.red
		case diagnostic.SeverityInfo:
			sev = p.faint
		}
		fmt.Fprintln(p.stderr, sev.Sprint(d.String()))
	}
	fmt.Fprintln(p.stderr, p.faint.Sprint(c.Summary()))
}

func (p *printer) summary(sum *typegen.Summary, root string, elapsed time.Duration) {
	var parts []string
	if sum.Written > 0 {
		parts = append(parts, p.green.Sprintf("%d written", sum.Written))
	}
	if sum.Unchanged > 0 {
		parts = append(parts, fmt.Sprintf("%d up to date", sum.Unchanged))
	}
	if sum.Stale > 0 {
		parts = append(parts, p.yellow.Sprintf("%d out of date", sum.Stale))
	}
	if sum.Failed > 0 {
		parts = append(parts, p.red.Sprintf("%d failed", sum.Failed))
	}
	if len(parts) == 0 {
		parts = append(parts, "no operations")
	}
	fmt.Fprintf(p.stdout, "\n%s in %s (%s)\n",
		strings.Join(parts, ", "), p.rel(root), elapsed.Round(time.Millisecond))
}

// rel shortens path for display when it sits under the working directory.
func (p *printer) rel(path string) string {
	if p.cwd == "" {
		return path
	}
	r, err := filepath.Rel(p.cwd, path)
	if err != nil || strings.HasPrefix(r, "..") {
		return path
	}
	return r
}
