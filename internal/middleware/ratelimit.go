package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"edu-platform/pkg/apierror"
	"edu-platform/pkg/envelope"
)

// Paths under these prefixes share the stricter sensitive-route budget.
var sensitivePrefixes = []string{"/api/auth", "/api/email"}

// Exempt paths must answer even when a client has spent its budget: health
// probes, and logout which always clears the session cookie.
var exemptPaths = map[string]struct{}{
	"/api/health":      {},
	"/api/auth/logout": {},
}

type clientLimiter struct {
	general   *rate.Limiter
	sensitive *rate.Limiter
	lastSeen  time.Time
}

type RateLimitMiddleware struct {
	generalRPM   int
	sensitiveRPM int
	proxies      trustedProxies
	mu           sync.Mutex
	clients      map[string]*clientLimiter
}

// NewRateLimitMiddleware treats generalRPM <= 0 as unlimited. The sensitive
// budget always applies and defaults to 20 per minute. Forwarding headers are
// only honored when the peer address is one of proxies (IPs or CIDRs).
func NewRateLimitMiddleware(generalRPM int, sensitiveRPM int, proxies []string) *RateLimitMiddleware {
	if sensitiveRPM <= 0 {
		sensitiveRPM = 20
	}

	return &RateLimitMiddleware{
		generalRPM:   generalRPM,
		sensitiveRPM: sensitiveRPM,
		proxies:      parseTrustedProxies(proxies),
		clients:      map[string]*clientLimiter{},
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimSuffix(strings.ToLower(r.URL.Path), "/")
		if _, exempt := exemptPaths[path]; exempt {
			next.ServeHTTP(w, r)
			return
		}

		limiter := m.getLimiter(m.proxies.clientIP(r))

		target := limiter.general
		for _, prefix := range sensitivePrefixes {
			if strings.HasPrefix(path, prefix) {
				target = limiter.sensitive
				break
			}
		}

		if target != nil && !target.Allow() {
			w.Header().Set("Retry-After", "60")
			envelope.SendAPIError(w, apierror.New(apierror.KindRateLimited, "Too many requests", ""))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) getLimiter(ip string) *clientLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limiter, exists := m.clients[ip]; exists {
		limiter.lastSeen = time.Now()
		m.gcLocked()
		return limiter
	}

	created := &clientLimiter{
		sensitive: rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.sensitiveRPM)), m.sensitiveRPM),
		lastSeen:  time.Now(),
	}
	if m.generalRPM > 0 {
		created.general = rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.generalRPM)), m.generalRPM)
	}
	m.clients[ip] = created
	m.gcLocked()

	return created
}

func (m *RateLimitMiddleware) gcLocked() {
	if len(m.clients) < 1000 {
		return
	}

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, limiter := range m.clients {
		if limiter.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}

type trustedProxies []netip.Prefix

// ParseTrustedProxy accepts a single address or a CIDR block.
func ParseTrustedProxy(entry string) (netip.Prefix, error) {
	entry = strings.TrimSpace(entry)
	if strings.Contains(entry, "/") {
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			return netip.Prefix{}, err
		}
		return prefix.Masked(), nil
	}

	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// parseTrustedProxies skips invalid entries; config validation rejects them
// before the server starts.
func parseTrustedProxies(entries []string) trustedProxies {
	out := make(trustedProxies, 0, len(entries))
	for _, entry := range entries {
		if prefix, err := ParseTrustedProxy(entry); err == nil {
			out = append(out, prefix)
		}
	}
	return out
}

func (p trustedProxies) contains(raw string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	for _, prefix := range p {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP keys on the peer address. Behind a trusted proxy it walks
// X-Forwarded-For from the right and returns the first hop that is not itself
// a trusted proxy, so clients cannot pick their own key.
func (p trustedProxies) clientIP(r *http.Request) string {
	peer := remoteIP(r)
	if len(p) == 0 || !p.contains(peer) {
		return peer
	}

	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		hops := strings.Split(forwarded, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !p.contains(hop) {
				return hop
			}
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	return peer
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}

	return r.RemoteAddr
}
