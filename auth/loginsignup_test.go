package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"a@b.com", "a@b.com"},
		{"A@B.COM", "a@b.com"},
		{"MiXeD@Example.Com", "mixed@example.com"},
		{"  a@b.com  ", "a@b.com"},
		{"\tA@b.Com\n", "a@b.com"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, normalizeEmail(c.in), "input %q", c.in)
	}
}

func TestNormalizedVariantsCollide(t *testing.T) {
	// Different casings of the same address must map to one stored key,
	// otherwise duplicate accounts slip past the uniqueness check.
	require.Equal(t, normalizeEmail("a@b.com"), normalizeEmail("A@b.com"))
	require.Equal(t, normalizeEmail("user@shop.io"), normalizeEmail("USER@SHOP.IO"))
}

func TestEmailValidation(t *testing.T) {
	valid := []string{"a@b.com", "first.last@sub.domain.org", "x+tag@b.io"}
	invalid := []string{"", "missing-at", "a@", "@b.com", "a b@c.com", "a@b"}

	for _, e := range valid {
		require.True(t, emailRe.MatchString(normalizeEmail(e)), "expected valid: %q", e)
	}
	for _, e := range invalid {
		require.False(t, emailRe.MatchString(normalizeEmail(e)), "expected invalid: %q", e)
	}
}
