package record

import (
	"regexp"
	"strings"
)

const maxDomainLength = 253

var domainCharset = regexp.MustCompile(`^[A-Za-z0-9.-]*$`)

// DomainName is a validated, lower-cased domain name. The zero value is not a
// valid name; build one with ParseDomainName.
type DomainName struct {
	name string
}

func ParseDomainName(raw string) (DomainName, error) {
	invalid := func(reason string) (DomainName, error) {
		return DomainName{}, &ValidationError{Field: "domain name", Value: raw, Reason: reason}
	}

	if raw == "" {
		return invalid("must not be empty")
	}
	if len(raw) > maxDomainLength {
		return invalid("must be at most 253 characters long")
	}
	if strings.HasPrefix(raw, ".") || strings.HasPrefix(raw, "-") ||
		strings.HasSuffix(raw, ".") || strings.HasSuffix(raw, "-") {
		return invalid("must not start or end with a dash or period")
	}
	if strings.Contains(raw, "..") {
		return invalid("must not contain two periods in series")
	}
	if !domainCharset.MatchString(raw) {
		return invalid("contains illegal characters")
	}

	return DomainName{name: strings.ToLower(raw)}, nil
}

func MustDomainName(raw string) DomainName {
	d, err := ParseDomainName(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func (d DomainName) String() string {
	return d.name
}

func (d DomainName) IsZero() bool {
	return d.name == ""
}
