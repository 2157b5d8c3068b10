package record

import (
	"fmt"
	"strings"
)

type Kind int

const (
	Add Kind = iota + 1
	Delete
)

// Code is the action token used in command text.
func (k Kind) Code() string {
	switch k {
	case Add:
		return "ADD"
	case Delete:
		return "DEL"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) String() string {
	switch k {
	case Add:
		return "add"
	case Delete:
		return "delete"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseAction maps a case-insensitive action token to its Kind.
func ParseAction(code string) (Kind, error) {
	switch strings.ToUpper(code) {
	case Add.Code():
		return Add, nil
	case Delete.Code():
		return Delete, nil
	}
	return 0, &InvalidActionError{Action: code}
}

// Command is a single reversible mutation over one record.
type Command struct {
	Kind    Kind
	Domain  DomainName
	Address IPAddress
}

func NewCommand(kind Kind, domain DomainName, address IPAddress) Command {
	return Command{Kind: kind, Domain: domain, Address: address}
}

// Inverse swaps ADD and DELETE, keeping domain and address.
func (c Command) Inverse() Command {
	inv := c
	switch c.Kind {
	case Add:
		inv.Kind = Delete
	case Delete:
		inv.Kind = Add
	}
	return inv
}

// String renders the command in the same syntax ParseCommand accepts.
func (c Command) String() string {
	return fmt.Sprintf("%s %s %s", c.Kind.Code(), c.Address, c.Domain)
}

// ParseCommand parses "ACTION ADDRESS DOMAIN".
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Command{}, &ValidationError{
			Field:  "command",
			Value:  line,
			Reason: "expected ACTION ADDRESS DOMAIN",
		}
	}

	kind, err := ParseAction(fields[0])
	if err != nil {
		return Command{}, err
	}
	address, err := ParseIPAddress(fields[1])
	if err != nil {
		return Command{}, err
	}
	domain, err := ParseDomainName(fields[2])
	if err != nil {
		return Command{}, err
	}

	return NewCommand(kind, domain, address), nil
}
