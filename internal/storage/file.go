package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/n6g7/dnstable/internal/config"
	"github.com/n6g7/dnstable/internal/lines"
	"github.com/n6g7/dnstable/internal/record"
	"github.com/n6g7/nomtail/pkg/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const newFileMode fs.FileMode = 0o644

// FileBackend stores records as "ADDRESS<tab><tab>DOMAIN" lines in a flat file.
type FileBackend struct {
	logger *log.Logger
	path   string
}

func NewFileBackend(logger *log.Logger, conf config.FileConf) *FileBackend {
	return &FileBackend{
		logger: logger.With("component", "file-storage"),
		path:   conf.Path,
	}
}

func (f *FileBackend) Init(ctx context.Context) error {
	return nil
}

func (f *FileBackend) Load(ctx context.Context) (Records, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", f.path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", f.path, err)
	}
	defer file.Close()

	records, err := ReadRecords(f.logger, file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	f.logger.Debug("loaded records", "path", f.path, "count", len(records))
	return records, nil
}

// Save writes to a temporary file next to the target and renames it into place.
func (f *FileBackend) Save(ctx context.Context, records Records) error {
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteRecords(tmp, records); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(f.fileMode()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions on %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}

	f.logger.Debug("saved records", "path", f.path, "count", len(records))
	return nil
}

// fileMode returns the permissions of the current file, or newFileMode if
// there is no file yet.
func (f *FileBackend) fileMode() fs.FileMode {
	info, err := os.Stat(f.path)
	if err != nil {
		return newFileMode
	}
	return info.Mode().Perm()
}

// ReadRecords parses "ADDRESS DOMAIN" lines. Lines that don't parse are
// logged and skipped; only read errors are returned.
func ReadRecords(logger *log.Logger, r io.Reader) (Records, error) {
	records := Records{}
	seen := mapset.NewThreadUnsafeSet[record.DomainName]()

	lr := lines.NewReader(r)
	for {
		text, err := lr.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		lineNo := lr.Line()
		if errors.Is(err, lines.ErrTooLong) {
			logger.Warn("skipping oversized line", "line", lineNo, "text", text, "err", err)
			continue
		}
		if err != nil {
			return records, err
		}

		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			logger.Warn("skipping malformed line", "line", lineNo, "text", text)
			continue
		}

		address, err := record.ParseIPAddress(fields[0])
		if err != nil {
			logger.Warn("skipping record", "line", lineNo, "domain", fields[1], "address", fields[0], "err", err)
			continue
		}
		domain, err := record.ParseDomainName(fields[1])
		if err != nil {
			logger.Warn("skipping record", "line", lineNo, "domain", fields[1], "address", fields[0], "err", err)
			continue
		}

		if !seen.Add(domain) {
			logger.Warn("duplicate domain, keeping the last address", "line", lineNo, "domain", domain.String())
		}
		records[domain] = address
	}
}

// WriteRecords writes one line per record, sorted by domain.
func WriteRecords(w io.Writer, records Records) error {
	bw := bufio.NewWriter(w)
	for _, domain := range sortedDomains(records) {
		if _, err := fmt.Fprintf(bw, "%s\t\t%s\n", records[domain], domain); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func sortedDomains(records Records) []record.DomainName {
	domains := maps.Keys(records)
	slices.SortFunc(domains, func(a, b record.DomainName) bool {
		return a.String() < b.String()
	})
	return domains
}
