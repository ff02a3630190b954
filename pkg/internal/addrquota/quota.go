// Package addrquota rate limits events per client address block.
package addrquota

import (
	"net"
	"sync"

	"github.com/golang/groupcache/lru"
	"golang.org/x/time/rate"
)

// Quota implements a simple IP-based rate limiter.
// Each set of incoming IP addresses with the same
// low-order byte gets events per second.
// Information is kept in an LRU cache of size maxEntries.
type Quota struct {
	eps   float32    // allowed events per second
	burst int        // maximum events per second (queue)
	mu    sync.Mutex // protects cache
	cache *lru.Cache
}

// NewQuota returns a Quota. A maxEntries of 0 keeps every block.
func NewQuota(eventsPerSecond float32, burst, maxEntries int) *Quota {
	return &Quota{
		eps:   eventsPerSecond,
		burst: burst,
		cache: lru.New(maxEntries),
	}
}

// Blocked records an event for addr and reports whether it
// exceeds the quota of addr's block. Addresses without an IP,
// such as pipes, are never blocked.
func (q *Quota) Blocked(addr net.Addr) bool {
	key := ipKey(addr)
	if key == "" {
		return false
	}
	q.mu.Lock()
	var limiter *rate.Limiter
	if v, ok := q.cache.Get(key); ok {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(rate.Limit(q.eps), q.burst)
		q.cache.Add(key, limiter)
	}
	q.mu.Unlock()
	return !limiter.Allow()
}

// Len returns the number of tracked address blocks.
func (q *Quota) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cache.Len()
}

func ipKey(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		host = addr.String()
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return ""
	}
	// Zero out last byte, to cover ranges.
	ip[len(ip)-1] = 0
	return ip.String()
}
