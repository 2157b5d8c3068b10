package table

import "github.com/n6g7/dnstable/internal/record"

// Entry is one step of the edit history. Displaced is the address an ADD
// overwrote, or the zero value if the domain was new.
type Entry struct {
	Command   record.Command
	Displaced record.IPAddress
}

// Inverse returns the command that restores the table to its state before
// Command was applied.
func (e Entry) Inverse() record.Command {
	switch e.Command.Kind {
	case record.Add:
		if !e.Displaced.IsZero() {
			return record.NewCommand(record.Add, e.Command.Domain, e.Displaced)
		}
		return e.Command.Inverse()
	case record.Delete:
		return e.Command.Inverse()
	}
	return e.Command.Inverse()
}
