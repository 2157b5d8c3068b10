// Package table holds the domain to address mapping and its undo/redo history.
package table

import (
	"context"
	"errors"
	"fmt"

	"github.com/n6g7/dnstable/internal/history"
	"github.com/n6g7/dnstable/internal/record"
	"github.com/n6g7/dnstable/internal/storage"
	"github.com/n6g7/nomtail/pkg/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Record struct {
	Domain  record.DomainName
	Address record.IPAddress
}

// Table is not safe for concurrent use.
type Table struct {
	logger  *log.Logger
	backend storage.Backend
	records storage.Records
	history *history.Stack[Entry]
	started bool
}

func New(logger *log.Logger, backend storage.Backend) *Table {
	return &Table{
		logger:  logger.With("component", "table"),
		backend: backend,
		records: storage.Records{},
		history: history.NewStack[Entry](),
	}
}

// Start loads the records from the backend, replacing the in-memory table. A
// backend that doesn't exist yet yields an empty table. Starting a started
// table is a no-op.
func (t *Table) Start(ctx context.Context) error {
	if t.started {
		return nil
	}

	records, err := t.backend.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		t.logger.Info("no stored records yet, starting with an empty table")
		records = storage.Records{}
	} else if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	t.records = records
	t.started = true
	recordsGauge.Set(float64(len(t.records)))
	t.logger.Info("table started", "records", len(t.records))
	return nil
}

// Stop saves the records to the backend. The table stays started if saving
// fails. History is kept across Stop and Start.
func (t *Table) Stop(ctx context.Context) error {
	if !t.started {
		return nil
	}

	if err := t.backend.Save(ctx, t.records); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}

	t.started = false
	t.logger.Info("table stopped", "records", len(t.records))
	return nil
}

func (t *Table) Started() bool {
	return t.started
}

func (t *Table) Lookup(domain record.DomainName) (record.IPAddress, bool) {
	address, ok := t.records[domain]
	return address, ok
}

func (t *Table) Len() int {
	return len(t.records)
}

// Records returns a snapshot of the table sorted by domain.
func (t *Table) Records() []Record {
	domains := maps.Keys(t.records)
	slices.SortFunc(domains, func(a, b record.DomainName) bool {
		return a.String() < b.String()
	})

	records := make([]Record, 0, len(domains))
	for _, domain := range domains {
		records = append(records, Record{Domain: domain, Address: t.records[domain]})
	}
	return records
}

// Apply runs cmd against the table and returns the address previously mapped
// to the command's domain, if any.
//
// ADD always succeeds, overwriting any existing address. DELETE of an unknown
// domain is a no-op. DELETE of a domain mapped to another address fails with
// a *MismatchError. When recordHistory is set, commands that changed the table
// are pushed onto the history.
func (t *Table) Apply(cmd record.Command, recordHistory bool) (record.IPAddress, bool, error) {
	switch cmd.Kind {
	case record.Add:
		previous, found := t.records[cmd.Domain]
		t.records[cmd.Domain] = cmd.Address
		if recordHistory {
			t.history.Push(Entry{Command: cmd, Displaced: previous})
		}
		t.applied(cmd, recordHistory)
		return previous, found, nil

	case record.Delete:
		found, ok := t.records[cmd.Domain]
		if !ok {
			t.logger.Trace("nothing to delete", "domain", cmd.Domain.String())
			return record.IPAddress{}, false, nil
		}
		if found != cmd.Address {
			mismatchCounter.Inc()
			return record.IPAddress{}, false, &MismatchError{Domain: cmd.Domain, Requested: cmd.Address, Actual: found}
		}
		delete(t.records, cmd.Domain)
		if recordHistory {
			t.history.Push(Entry{Command: cmd})
		}
		t.applied(cmd, recordHistory)
		return found, true, nil
	}

	return record.IPAddress{}, false, fmt.Errorf("unknown command kind %s", cmd.Kind)
}

func (t *Table) applied(cmd record.Command, recorded bool) {
	appliedCounter.WithLabelValues(cmd.Kind.String()).Inc()
	recordsGauge.Set(float64(len(t.records)))
	t.logger.Trace("applied command", "command", cmd.String(), "recorded", recorded)
}

func (t *Table) Add(domain record.DomainName, address record.IPAddress) (record.IPAddress, bool) {
	previous, found, _ := t.Apply(record.NewCommand(record.Add, domain, address), true)
	return previous, found
}

// Delete removes the record if it maps domain to address. It reports whether
// a record was removed.
func (t *Table) Delete(domain record.DomainName, address record.IPAddress) (bool, error) {
	_, removed, err := t.Apply(record.NewCommand(record.Delete, domain, address), true)
	return removed, err
}

// Update parses and applies one "ACTION ADDRESS DOMAIN" command.
func (t *Table) Update(line string) (record.IPAddress, bool, error) {
	cmd, err := record.ParseCommand(line)
	if err != nil {
		return record.IPAddress{}, false, err
	}
	return t.Apply(cmd, true)
}

func (t *Table) CanUndo() bool {
	return t.started && t.history.CanUndo()
}

func (t *Table) CanRedo() bool {
	return t.started && t.history.CanRedo()
}

// Undo reverts the most recent recorded command.
func (t *Table) Undo() error {
	entry, err := t.history.Undo()
	if err != nil {
		return ErrNoHistory
	}

	inverse := entry.Inverse()
	if _, _, err := t.Apply(inverse, false); err != nil {
		// Put the entry back so history still matches the table.
		if _, rerr := t.history.Redo(); rerr != nil {
			t.logger.Error("failed to restore history", "err", rerr)
		}
		return fmt.Errorf("failed to undo %s: %w", entry.Command, err)
	}

	undoCounter.Inc()
	t.logger.Debug("undone command", "command", entry.Command.String(), "inverse", inverse.String())
	return nil
}

// Redo re-applies the most recently undone command.
func (t *Table) Redo() error {
	entry, err := t.history.Redo()
	if err != nil {
		return ErrNoHistory
	}

	if _, _, err := t.Apply(entry.Command, false); err != nil {
		if _, rerr := t.history.Undo(); rerr != nil {
			t.logger.Error("failed to restore history", "err", rerr)
		}
		return fmt.Errorf("failed to redo %s: %w", entry.Command, err)
	}

	redoCounter.Inc()
	t.logger.Debug("redone command", "command", entry.Command.String())
	return nil
}
