package middleware

import (
	"net/http"
	"sync"
	"time"

	"bibliocra/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ventana tracks request counts per IP within a sliding window.
type ventana struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

type limiterMap struct {
	entries map[string]*ventana
	mu      sync.Mutex
}

func (m *limiterMap) entry(ip string) *ventana {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[ip]
	if !ok {
		e = &ventana{}
		m.entries[ip] = e
	}
	return e
}

var (
	loginMap = &limiterMap{entries: make(map[string]*ventana)}
	apiMap   = &limiterMap{entries: make(map[string]*ventana)}
)

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return limit(loginMap, 20, time.Minute, "Demasiados intentos de login. Intente en 1 minuto.")
}

// RateLimiter returns a general-purpose sliding-window rate limiter.
func RateLimiter(max int, window time.Duration) gin.HandlerFunc {
	return limit(apiMap, max, window, "Demasiadas solicitudes. Intente nuevamente en un momento.")
}

func limit(m *limiterMap, max int, window time.Duration, mensaje string) gin.HandlerFunc {
	return func(c *gin.Context) {
		e := m.entry(c.ClientIP())

		e.mu.Lock()
		now := time.Now()
		if now.After(e.windowEnd) {
			e.count = 0
			e.windowEnd = now.Add(window)
		}
		e.count++
		excedido := e.count > max
		retry := e.windowEnd
		e.mu.Unlock()

		if excedido {
			c.Header("Retry-After", retry.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(mensaje))
			return
		}
		c.Next()
	}
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Expired entries are removed periodically so IPs that never return do not
// accumulate.

const purgeInterval = 5 * time.Minute

func init() {
	go purgeExpiredEntries()
}

func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		purged := 0
		for _, m := range []*limiterMap{loginMap, apiMap} {
			m.mu.Lock()
			for ip, e := range m.entries {
				e.mu.Lock()
				if now.After(e.windowEnd) {
					delete(m.entries, ip)
					purged++
				}
				e.mu.Unlock()
			}
			m.mu.Unlock()
		}
		if purged > 0 {
			log.Debug().Int("entries_purged", purged).Msg("rate limiter maps purged")
		}
	}
}
