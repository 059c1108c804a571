package utils

import (
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddr(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"10.0.0.1", "10.0.0.1", true},
		{"10.0.0.1:8080", "10.0.0.1", true},
		{"[::1]:443", "::1", true},
		{"::ffff:192.168.1.5", "192.168.1.5", true},
		{" ", "", false},
		{"not-an-ip", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAddr(tt.in)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "127.0.0.1:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2")

	assert.Equal(t, "127.0.0.1", ClientIP(r, false))
	assert.Equal(t, "203.0.113.7", ClientIP(r, true))

	r.Header.Set("CF-Connecting-IP", "198.51.100.9")
	assert.Equal(t, "198.51.100.9", ClientIP(r, true))

	r = httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", ClientIP(r, false))
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.1.0.0/16", " 192.168.0.10 ", "", "garbage", "2001:db8::/32"})
	require.Equal(t, 3, m.Len())

	allow := func(s string) bool { return m.Allow(netip.MustParseAddr(s)) }
	assert.True(t, allow("10.1.200.3"))
	assert.True(t, allow("192.168.0.10"))
	assert.True(t, allow("::ffff:192.168.0.10"))
	assert.True(t, allow("2001:db8::1"))
	assert.False(t, allow("192.168.0.11"))
	assert.False(t, m.Allow(netip.Addr{}))

	assert.True(t, NewIPMatcher(nil).IsEmpty())
}
