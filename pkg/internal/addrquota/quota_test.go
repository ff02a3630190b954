package addrquota

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tcp(ip string) net.Addr {
	return &net.TCPAddr{IP: net.ParseIP(ip), Port: 40000}
}

func TestQuotaBlocksAfterBurst(t *testing.T) {
	q := NewQuota(0.001, 2, 10)
	addr := tcp("192.168.1.20")
	require.False(t, q.Blocked(addr))
	require.False(t, q.Blocked(addr))
	require.True(t, q.Blocked(addr))
}

func TestQuotaSharesBlock(t *testing.T) {
	q := NewQuota(0.001, 1, 10)
	require.False(t, q.Blocked(tcp("10.0.0.1")))
	require.True(t, q.Blocked(tcp("10.0.0.200")), "same /24 block")
	require.False(t, q.Blocked(tcp("10.0.1.1")))
	require.Equal(t, 2, q.Len())
}

func TestQuotaEvictsOldestBlock(t *testing.T) {
	q := NewQuota(0.001, 1, 1)
	require.False(t, q.Blocked(tcp("10.0.0.1")))
	require.False(t, q.Blocked(tcp("10.0.1.1")))
	require.False(t, q.Blocked(tcp("10.0.0.1")), "evicted block starts over")
	require.Equal(t, 1, q.Len())
}

func TestIPKey(t *testing.T) {
	assert.Equal(t, "10.1.2.0", ipKey(tcp("10.1.2.3")))
	assert.Equal(t, "2001:db8::", ipKey(tcp("2001:db8::1")))
	assert.Equal(t, "", ipKey(nil))

	p1, p2 := net.Pipe()
	defer p1.Close()
	defer p2.Close()
	assert.Equal(t, "", ipKey(p1.RemoteAddr()))
	assert.False(t, NewQuota(1, 1, 1).Blocked(p1.RemoteAddr()))
}
