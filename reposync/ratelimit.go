package reposync

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/fwojciec/repodocs"
	"golang.org/x/time/rate"
)

var _ repodocs.HostLimiter = (*HostLimiter)(nil)

// HostLimiter provides per-host rate limiting using token buckets.
// It creates a separate rate limiter for each host, allowing concurrent
// clones from different hosts while enforcing rate limits within each host.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewHostLimiter creates a new HostLimiter with the specified clones per second limit.
// Each host gets its own limiter with a burst of 1 (no bursting allowed).
func NewHostLimiter(rps float64) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until the rate limit allows a clone from host.
// Returns an error if the context is canceled before the wait completes.
// Local repositories have an empty host and are never limited.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	if host == "" {
		return nil
	}

	h.mu.Lock()
	limiter, ok := h.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(h.rps), 1)
		h.limiters[host] = limiter
	}
	h.mu.Unlock()

	return limiter.Wait(ctx)
}

// HostOf returns the host of a clone URL. It understands URLs with a scheme
// and scp-like addresses such as git@github.com:org/repo.git. Local paths
// and file URLs have no host.
func HostOf(rawURL string) string {
	if strings.Contains(rawURL, "://") {
		u, err := url.Parse(rawURL)
		if err != nil || u.Scheme == "file" {
			return ""
		}
		return strings.ToLower(u.Hostname())
	}

	// scp-like syntax: [user@]host:path
	colon := strings.Index(rawURL, ":")
	if colon <= 0 || strings.ContainsAny(rawURL[:colon], `/\`) {
		return ""
	}
	host := rawURL[:colon]
	if at := strings.LastIndex(host, "@"); at >= 0 {
		host = host[at+1:]
	}
	// A single letter before the colon is a Windows drive.
	if len(host) == 1 {
		return ""
	}
	return strings.ToLower(host)
}
