package server

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/osse101/TriviaCast_Go/internal/logger"
	"github.com/osse101/TriviaCast_Go/internal/metrics"
)

// AuthMiddleware requires "Authorization: Bearer <secret>" matching the shared
// cron secret. Used for the sweep and the real-time finalize trigger.
func AuthMiddleware(secret string, proxies TrustedProxies, detector *SuspiciousActivityDetector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := bearerToken(r)

			if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				ip := proxies.ClientIP(r)
				detector.RecordFailedAuth(ip)
				metrics.AuthFailures.WithLabelValues(metrics.SchemeCronSecret).Inc()

				logger.FromContext(r.Context()).Warn(LogMsgAuthFailed,
					"path", r.URL.Path,
					"has_token", provided != "",
					"ip", ip)

				http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestSizeLimitMiddleware limits request body size
func RequestSizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// TrustedProxies are the peers whose X-Forwarded-For header is believed
type TrustedProxies []netip.Prefix

// ParseTrustedProxies accepts bare addresses and CIDR ranges. Invalid entries
// are skipped and reported together in the returned error.
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	var (
		proxies TrustedProxies
		errs    []error
	)
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				errs = append(errs, fmt.Errorf("trusted proxy %q: %w", entry, err))
				continue
			}
			proxies = append(proxies, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("trusted proxy %q: %w", entry, err))
			continue
		}
		addr = addr.Unmap()
		proxies = append(proxies, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return proxies, errors.Join(errs...)
}

func (p TrustedProxies) contains(ip string) bool {
	addr, err := netip.ParseAddr(ip)
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

// ClientIP returns the peer address, or the last X-Forwarded-For hop when the
// peer is a trusted proxy.
func (p TrustedProxies) ClientIP(r *http.Request) string {
	remoteIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remoteIP = r.RemoteAddr
	}

	if !p.contains(remoteIP) {
		return remoteIP
	}

	// The rightmost entry is the hop that connected to our proxy
	forwarded := r.Header.Get(HeaderForwardedFor)
	if forwarded == "" {
		return remoteIP
	}
	hops := strings.Split(forwarded, ",")
	if last := strings.TrimSpace(hops[len(hops)-1]); last != "" {
		return last
	}
	return remoteIP
}

// SuspiciousActivityDetector counts requests and failed auth per IP over a
// fixed window.
type SuspiciousActivityDetector struct {
	mu               sync.Mutex
	failedAuthByIP   map[string]int
	requestCountByIP map[string]int
	lastResetTime    time.Time

	window      time.Duration
	maxRequests int
	alertAfter  int
	now         func() time.Time
}

// NewSuspiciousActivityDetector uses the default window and thresholds
func NewSuspiciousActivityDetector() *SuspiciousActivityDetector {
	return NewSuspiciousActivityDetectorWithLimits(DetectorWindow, DetectorMaxRequests, DetectorFailedAuthAlert, nil)
}

// NewSuspiciousActivityDetectorWithLimits allows maxRequests per IP per window
// and warns once an IP reaches alertAfter failed authentications.
func NewSuspiciousActivityDetectorWithLimits(window time.Duration, maxRequests, alertAfter int, now func() time.Time) *SuspiciousActivityDetector {
	if now == nil {
		now = time.Now
	}
	return &SuspiciousActivityDetector{
		failedAuthByIP:   make(map[string]int),
		requestCountByIP: make(map[string]int),
		lastResetTime:    now(),
		window:           window,
		maxRequests:      maxRequests,
		alertAfter:       alertAfter,
		now:              now,
	}
}

// RecordFailedAuth records a failed authentication attempt
func (s *SuspiciousActivityDetector) RecordFailedAuth(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetCountsIfNeeded()
	s.failedAuthByIP[ip]++

	if count := s.failedAuthByIP[ip]; count >= s.alertAfter {
		slog.Warn(SecurityAlertFailedAuth, "ip", ip, "count", count)
	}
}

// RecordRequest counts a request and reports false once the IP is over its limit
func (s *SuspiciousActivityDetector) RecordRequest(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetCountsIfNeeded()
	s.requestCountByIP[ip]++

	count := s.requestCountByIP[ip]
	if count <= s.maxRequests {
		return true
	}
	// one log line per hundred rejected requests
	if (count-s.maxRequests)%100 == 1 {
		slog.Warn(SecurityAlertHighRate, "ip", ip, "count_in_window", count)
	}
	return false
}

// retryAfter is the time left in the current window. Caller must hold the mutex.
func (s *SuspiciousActivityDetector) retryAfter() time.Duration {
	left := s.window - s.now().Sub(s.lastResetTime)
	if left < time.Second {
		return time.Second
	}
	return left
}

// resetCountsIfNeeded starts a new window. Caller must hold the mutex.
func (s *SuspiciousActivityDetector) resetCountsIfNeeded() {
	if s.now().Sub(s.lastResetTime) > s.window {
		s.requestCountByIP = make(map[string]int)
		s.failedAuthByIP = make(map[string]int)
		s.lastResetTime = s.now()
	}
}

// SecurityLoggingMiddleware enforces the per-IP request limit
func SecurityLoggingMiddleware(proxies TrustedProxies, detector *SuspiciousActivityDetector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := proxies.ClientIP(r)

			if !detector.RecordRequest(ip) {
				metrics.RateLimitedRequests.Inc()

				detector.mu.Lock()
				wait := detector.retryAfter()
				detector.mu.Unlock()

				w.Header().Set(HeaderRetryAfter, strconv.Itoa(int(wait.Seconds())))
				http.Error(w, ErrMsgTooManyRequests, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware adds security headers to responses
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set(HeaderContentType, HeaderValueNoSniff)
			h.Set(HeaderFrameOptions, HeaderValueDeny)
			h.Set(HeaderReferrerPolicy, HeaderValueNoReferrer)
			h.Set(HeaderCacheControl, HeaderValueNoStore)

			next.ServeHTTP(w, r)
		})
	}
}
