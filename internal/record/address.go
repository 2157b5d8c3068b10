package record

import (
	"net/netip"
)

// IPAddress is a validated dotted-quad IPv4 address in canonical form.
type IPAddress struct {
	addr string
}

func ParseIPAddress(raw string) (IPAddress, error) {
	ip, err := netip.ParseAddr(raw)
	if err != nil || !ip.Is4() {
		return IPAddress{}, &ValidationError{Field: "IP address", Value: raw, Reason: "not a valid IPv4 address"}
	}
	return IPAddress{addr: ip.String()}, nil
}

func MustIPAddress(raw string) IPAddress {
	a, err := ParseIPAddress(raw)
	if err != nil {
		panic(err)
	}
	return a
}

func (a IPAddress) String() string {
	return a.addr
}

func (a IPAddress) IsZero() bool {
	return a.addr == ""
}
