// Package shell is a line-oriented front-end for a table: one verb per line.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/n6g7/dnstable/internal/batch"
	"github.com/n6g7/dnstable/internal/lines"
	"github.com/n6g7/dnstable/internal/record"
	"github.com/n6g7/dnstable/internal/table"
	"github.com/n6g7/nomtail/pkg/log"
)

const prompt = "dnstable> "

const usage = `Commands:
  start                 load the records and enable editing
  stop                  save the records and disable editing
  lookup DOMAIN         show the address of DOMAIN
  add DOMAIN ADDRESS    add or replace a record
  del DOMAIN ADDRESS    delete a record
  update [FILE]         apply "ACTION ADDRESS DOMAIN" lines from FILE
  undo                  undo the last edit
  redo                  redo the last undone edit
  list                  print every record
  status                print the table state
  help                  print this message
  exit                  save and quit
`

type Shell struct {
	logger      *log.Logger
	table       *table.Table
	updatesFile string
	timeout     time.Duration
	out         io.Writer
}

// New returns a shell over tbl. Every start and stop of the table is bounded
// by timeout; zero means no deadline.
func New(logger *log.Logger, tbl *table.Table, updatesFile string, timeout time.Duration, out io.Writer) *Shell {
	return &Shell{
		logger:      logger.With("component", "shell"),
		table:       tbl,
		updatesFile: updatesFile,
		timeout:     timeout,
		out:         out,
	}
}

func (s *Shell) backendContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Run reads commands from in until "exit" or end of input, then stops the table.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	lr := lines.NewReader(in)
	for {
		fmt.Fprint(s.out, prompt)
		line, err := lr.Next()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			break
		}
		if errors.Is(err, lines.ErrTooLong) {
			s.errorf("%s", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if quit := s.Exec(ctx, line); quit {
			break
		}
	}

	stopCtx, cancel := s.backendContext(ctx)
	defer cancel()
	return s.table.Stop(stopCtx)
}

// Exec runs a single command line and reports whether the shell should quit.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]

	switch verb {
	case "exit", "quit":
		return true
	case "help":
		fmt.Fprint(s.out, usage)
		return false
	case "start":
		s.start(ctx)
		return false
	case "status":
		s.status()
		return false
	}

	// Everything else needs a started table, like the disabled buttons of a GUI.
	if !s.table.Started() {
		s.errorf("the table is not started, run \"start\" first")
		return false
	}

	switch verb {
	case "stop":
		s.stop(ctx)
	case "lookup":
		s.lookup(args)
	case "add":
		s.add(args)
	case "del", "delete":
		s.delete(args)
	case "update":
		s.update(args)
	case "undo":
		s.undo()
	case "redo":
		s.redo()
	case "list":
		s.list()
	default:
		s.errorf("unknown command %q, try \"help\"", verb)
	}
	return false
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

func (s *Shell) errorf(format string, args ...any) {
	fmt.Fprintf(s.out, "Error: "+format+"\n", args...)
}

func (s *Shell) start(ctx context.Context) {
	ctx, cancel := s.backendContext(ctx)
	defer cancel()
	if err := s.table.Start(ctx); err != nil {
		s.logger.Error("failed to start table", "err", err)
		s.errorf("the table was not able to be started: %s", err)
		return
	}
	s.printf("Started with %d records", s.table.Len())
}

func (s *Shell) stop(ctx context.Context) {
	ctx, cancel := s.backendContext(ctx)
	defer cancel()
	if err := s.table.Stop(ctx); err != nil {
		s.logger.Error("failed to stop table", "err", err)
		s.errorf("the table was not able to be stopped: %s", err)
		return
	}
	s.printf("Stopped")
}

func (s *Shell) status() {
	state := "stopped"
	if s.table.Started() {
		state = "started"
	}
	s.printf("Table %s, %d records, undo: %t, redo: %t", state, s.table.Len(), s.table.CanUndo(), s.table.CanRedo())
}

func (s *Shell) lookup(args []string) {
	if len(args) != 1 {
		s.errorf("usage: lookup DOMAIN")
		return
	}
	domain, err := record.ParseDomainName(args[0])
	if err != nil {
		s.errorf("%s", err)
		return
	}
	if address, ok := s.table.Lookup(domain); ok {
		s.printf("IP Address: %s", address)
	} else {
		s.printf("IP Address: Not found")
	}
}

func parsePair(args []string) (record.DomainName, record.IPAddress, error) {
	if len(args) != 2 {
		return record.DomainName{}, record.IPAddress{}, errors.New("expected DOMAIN ADDRESS")
	}
	domain, err := record.ParseDomainName(args[0])
	if err != nil {
		return record.DomainName{}, record.IPAddress{}, err
	}
	address, err := record.ParseIPAddress(args[1])
	if err != nil {
		return record.DomainName{}, record.IPAddress{}, err
	}
	return domain, address, nil
}

func (s *Shell) add(args []string) {
	domain, address, err := parsePair(args)
	if err != nil {
		s.errorf("%s", err)
		return
	}
	if previous, found := s.table.Add(domain, address); found {
		s.printf("Successfully added the DNS record (replaced %s)", previous)
		return
	}
	s.printf("Successfully added the DNS record")
}

func (s *Shell) delete(args []string) {
	domain, address, err := parsePair(args)
	if err != nil {
		s.errorf("%s", err)
		return
	}
	removed, err := s.table.Delete(domain, address)
	if err != nil {
		s.errorf("%s", err)
		return
	}
	if removed {
		s.printf("Successfully deleted the DNS record")
	} else {
		s.printf("Could not delete the specified DNS record")
	}
}

func (s *Shell) update(args []string) {
	path := s.updatesFile
	if len(args) > 0 {
		path = args[0]
	}
	report, err := batch.ApplyFile(s.logger, s.table, path)
	if err != nil {
		s.errorf("%s", err)
		return
	}
	if report.Errors != nil {
		for _, lineErr := range report.Errors.Errors {
			s.errorf("%s", lineErr)
		}
	}
	s.printf("Applied %d updates, %d failed", report.Applied, report.Failed())
}

func (s *Shell) undo() {
	if !s.table.CanUndo() {
		s.printf("Nothing to undo")
		return
	}
	if err := s.table.Undo(); err != nil {
		s.errorf("%s", err)
		return
	}
	s.printf("Undone")
}

func (s *Shell) redo() {
	if !s.table.CanRedo() {
		s.printf("Nothing to redo")
		return
	}
	if err := s.table.Redo(); err != nil {
		s.errorf("%s", err)
		return
	}
	s.printf("Redone")
}

func (s *Shell) list() {
	for _, r := range s.table.Records() {
		s.printf("%s\t\t%s", r.Address, r.Domain)
	}
	s.printf("%d records", s.table.Len())
}
