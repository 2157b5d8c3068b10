package record

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var labelGen = rapid.StringMatching(`[a-zA-Z0-9]{1,12}(\.[a-zA-Z0-9]{1,12}){0,3}`)

func TestParseDomainName_Valid(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"example.com", "example.com"},
		{"EXAMPLE.COM", "example.com"},
		{"a-b.c-d.net", "a-b.c-d.net"},
		{"localhost", "localhost"},
		{"1.2.3.4", "1.2.3.4"},
		{strings.Repeat("a", 253), strings.Repeat("a", 253)},
	}
	for _, c := range cases {
		d, err := ParseDomainName(c.input)
		require.NoError(t, err, c.input)
		assert.Equal(t, c.want, d.String())
	}
}

func TestParseDomainName_Invalid(t *testing.T) {
	cases := []string{
		"",
		".example.com",
		"example.com.",
		"-example.com",
		"example.com-",
		"example..com",
		"exa_mple.com",
		"exam ple.com",
		"héllo.com",
		strings.Repeat("a", 254),
	}
	for _, input := range cases {
		_, err := ParseDomainName(input)
		require.Error(t, err, input)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr), input)
		assert.Equal(t, "domain name", verr.Field)
		assert.NotEmpty(t, verr.Reason)
		assert.ErrorIs(t, err, ErrInvalid)
	}
}

func TestDomainName_CaseInsensitiveEquality(t *testing.T) {
	rapid.Check(t, func(tt *rapid.T) {
		raw := labelGen.Draw(tt, "domain")

		upper, err := ParseDomainName(strings.ToUpper(raw))
		require.NoError(tt, err)
		lower, err := ParseDomainName(strings.ToLower(raw))
		require.NoError(tt, err)
		mixed, err := ParseDomainName(raw)
		require.NoError(tt, err)

		assert.Equal(tt, upper, lower)
		assert.Equal(tt, lower, mixed)

		set := map[DomainName]int{upper: 1}
		set[lower]++
		set[mixed]++
		assert.Len(tt, set, 1)
		assert.Equal(tt, 3, set[upper])
	})
}

func TestDomainName_RejectsMalformed(t *testing.T) {
	rapid.Check(t, func(tt *rapid.T) {
		raw := labelGen.Draw(tt, "domain")
		var corrupt string
		switch rapid.IntRange(0, 5).Draw(tt, "corruption") {
		case 0:
			corrupt = "." + raw
		case 1:
			corrupt = raw + "-"
		case 2:
			corrupt = raw + ".." + raw
		case 3:
			bad := rapid.SampledFrom([]string{"_", "!", " ", "@", "*", "/"}).Draw(tt, "char")
			corrupt = raw + bad + raw
		case 4:
			corrupt = "-" + raw
		case 5:
			corrupt = strings.Repeat("a", 254-len(raw)) + raw
		}

		_, err := ParseDomainName(corrupt)
		assert.ErrorIs(tt, err, ErrInvalid, corrupt)
	})
}

func TestMustDomainName_Panics(t *testing.T) {
	assert.Panics(t, func() { MustDomainName("bad..name") })
}
