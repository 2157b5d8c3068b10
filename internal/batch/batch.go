// Package batch applies a file of "ACTION ADDRESS DOMAIN" commands to a table.
package batch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/n6g7/dnstable/internal/lines"
	"github.com/n6g7/dnstable/internal/record"
	"github.com/n6g7/nomtail/pkg/log"
)

type Updater interface {
	Update(line string) (record.IPAddress, bool, error)
}

// LineError is a failure to apply one line of a batch.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

type Report struct {
	Applied int
	Errors  *multierror.Error
}

// Failed returns the number of lines that could not be applied.
func (r Report) Failed() int {
	if r.Errors == nil {
		return 0
	}
	return len(r.Errors.Errors)
}

// Err returns the per-line errors, or nil if every line was applied.
func (r Report) Err() error {
	return r.Errors.ErrorOrNil()
}

// Apply runs every command read from r against table. A failing line is
// recorded in the report and processing continues with the next one. Blank
// lines are ignored. The returned error is only set when r itself fails.
func Apply(logger *log.Logger, table Updater, r io.Reader) (Report, error) {
	var report Report

	lr := lines.NewReader(r)
	for {
		text, err := lr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !errors.Is(err, lines.ErrTooLong) {
			return report, fmt.Errorf("failed to read updates: %w", err)
		}
		lineNo := lr.Line()
		line := strings.TrimSpace(text)

		if err == nil {
			if line == "" {
				continue
			}
			_, _, err = table.Update(line)
		}
		if err != nil {
			logger.Warn("failed to apply update", "line", lineNo, "text", line, "err", err)
			report.Errors = multierror.Append(report.Errors, &LineError{Line: lineNo, Text: line, Err: err})
			continue
		}
		logger.Trace("applied update", "line", lineNo, "text", line)
		report.Applied++
	}

	logger.Info("applied updates", "applied", report.Applied, "failed", report.Failed())
	return report, nil
}

func ApplyFile(logger *log.Logger, table Updater, path string) (Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("the updates file could not be opened: %w", err)
	}
	defer file.Close()

	return Apply(logger.With("file", path), table, file)
}
