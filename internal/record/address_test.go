package record

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIPAddress_Valid(t *testing.T) {
	for _, input := range []string{"1.2.3.4", "0.0.0.0", "255.255.255.255", "10.1.100.2"} {
		a, err := ParseIPAddress(input)
		require.NoError(t, err, input)
		assert.Equal(t, input, a.String())
	}
}

func TestParseIPAddress_Invalid(t *testing.T) {
	cases := []string{
		"",
		"1.2.3",
		"1.2.3.4.5",
		"256.1.1.1",
		"01.2.3.4",
		"a.b.c.d",
		"::1",
		"::ffff:1.2.3.4",
		" 1.2.3.4",
	}
	for _, input := range cases {
		_, err := ParseIPAddress(input)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "expected validation error for %q", input)
		assert.Equal(t, "IP address", verr.Field)
	}
}

func TestIPAddress_Equality(t *testing.T) {
	assert.Equal(t, MustIPAddress("9.9.9.9"), MustIPAddress("9.9.9.9"))
	assert.NotEqual(t, MustIPAddress("9.9.9.9"), MustIPAddress("9.9.9.8"))
	assert.True(t, IPAddress{}.IsZero())
}
