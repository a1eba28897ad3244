package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, "203.0.113.7", extractClientIP(r), "untrusted peer cannot forward")

	r.RemoteAddr = "10.0.0.2:5555"
	assert.Equal(t, "1.2.3.4", extractClientIP(r))

	r.Header.Del("X-Forwarded-For")
	r.Header.Set("X-Real-IP", "5.6.7.8")
	assert.Equal(t, "5.6.7.8", extractClientIP(r))
}

func TestDetectSuspiciousRequest(t *testing.T) {
	m := &securityMetrics{}
	assert.True(t, detectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/.env", nil), m))
	assert.False(t, detectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/api/stats", nil), m))
	assert.EqualValues(t, 1, m.suspiciousRequests)
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("ip", nil))
	assert.True(t, rl.allow("ip", nil))
	assert.False(t, rl.allow("ip", nil))
	assert.True(t, rl.allow("other", nil))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.allow("ip", nil))

	now = now.Add(time.Hour)
	rl.cleanupStaleEntries()
	assert.Empty(t, rl.clients)
}
