package table

import (
	"fmt"

	"github.com/n6g7/dnstable/internal/history"
	"github.com/n6g7/dnstable/internal/record"
)

// ErrNoHistory is returned by Undo and Redo when there is nothing to replay.
var ErrNoHistory = fmt.Errorf("no history: %w", history.ErrEmptyHistory)

// MismatchError is returned when a DELETE names a domain that exists but is
// mapped to another address. The table is left unchanged.
type MismatchError struct {
	Domain    record.DomainName
	Requested record.IPAddress
	Actual    record.IPAddress
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s is mapped to %s, not %s: the domain name and IP address do not match any record", e.Domain, e.Actual, e.Requested)
}
