package middleware

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "krida.io/dealdesk/internal/pkg/errors"
	"krida.io/dealdesk/internal/pkg/metrics"
)

// Per-request simulation override parameters. Query wins over header.
const (
	LatencyQueryParam = "_sim_latency"
	LatencyHeader     = "X-Sim-Latency"
	ErrorQueryParam   = "_sim_error"
	ErrorHeader       = "X-Sim-Error"
)

// latencyProfile holds the latency envelope of a profile, in seconds.
type latencyProfile struct {
	min     float64
	typical float64
	p95     float64
}

// ProfileChaos also widens sampling and bumps the error rate.
const ProfileChaos = "chaos"

const defaultProfile = "normal"

var latencyProfiles = map[string]latencyProfile{
	"fast":       {0.03, 0.12, 0.15},
	"normal":     {0.12, 0.4, 0.6},
	"slow":       {0.4, 1.2, 1.8},
	ProfileChaos: {0.05, 2.5, 2.5},
}

// errorOverrides maps the _sim_error shorthand values to error rates.
// The value "next" is handled separately: it always injects.
var errorOverrides = map[string]float64{
	"p5":   0.05,
	"p10":  0.10,
	"p20":  0.20,
	"none": 0.0,
}

// KnownProfile reports whether name is a recognized latency profile.
func KnownProfile(name string) bool {
	_, ok := latencyProfiles[name]
	return ok
}

// Simulator holds the mutable chaos settings: the default latency profile and
// error rate. Per-request overrides are resolved against it on each request.
type Simulator struct {
	mu        sync.RWMutex
	profile   string
	errorRate float64
}

// NewSimulator creates a simulator with the given defaults; an unknown
// profile falls back to normal.
func NewSimulator(profile string, errorRate float64) *Simulator {
	if !KnownProfile(profile) {
		profile = defaultProfile
	}
	return &Simulator{profile: profile, errorRate: errorRate}
}

// Profile returns the current default latency profile.
func (s *Simulator) Profile() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// SetProfile changes the default latency profile. Unknown names are ignored.
func (s *Simulator) SetProfile(profile string) {
	if !KnownProfile(profile) {
		return
	}
	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()
}

// ErrorRate returns the current default error rate.
func (s *Simulator) ErrorRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errorRate
}

// resolveProfile applies a per-request override when it names a known profile.
func (s *Simulator) resolveProfile(c *gin.Context) string {
	override := c.Query(LatencyQueryParam)
	if override == "" {
		override = c.GetHeader(LatencyHeader)
	}
	if KnownProfile(override) {
		return override
	}
	return s.Profile()
}

// SampleLatency draws one delay from the profile's envelope. Chaos draws
// uniformly across the full [min, p95] range; other profiles stay within
// [min, typical] 95% of the time with occasional spikes up to p95.
func SampleLatency(profile string) time.Duration {
	p, ok := latencyProfiles[profile]
	if !ok {
		p = latencyProfiles[defaultProfile]
	}
	var seconds float64
	switch {
	case profile == ProfileChaos:
		seconds = uniform(p.min, p.p95)
	case rand.Float64() < 0.95:
		seconds = uniform(p.min, p.typical)
	default:
		seconds = uniform(p.typical, p.p95)
	}
	return time.Duration(seconds * float64(time.Second))
}

// shouldInjectError decides whether this request fails. "next" always
// injects; other overrides replace the default rate. The chaos profile adds
// five points on top, capped at certainty.
func (s *Simulator) shouldInjectError(c *gin.Context, profile string) bool {
	override := c.Query(ErrorQueryParam)
	if override == "" {
		override = c.GetHeader(ErrorHeader)
	}
	if override == "next" {
		return true
	}

	rate, ok := errorOverrides[override]
	if !ok {
		rate = s.ErrorRate()
	}
	if profile == ProfileChaos {
		rate = min(1.0, rate+0.05)
	}
	return rand.Float64() < rate
}

// Chaos injects artificial latency and failures into every request. The
// sleep honors request cancellation so an abandoned client does not pin a
// handler goroutine.
func Chaos(sim *Simulator, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.IncrRequests()

		profile := sim.resolveProfile(c)
		if delay := SampleLatency(profile); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-c.Request.Context().Done():
				timer.Stop()
				c.Abort()
				return
			case <-timer.C:
			}
		}

		if sim.shouldInjectError(c, profile) {
			c.Error(apperrors.Simulated())
			c.Abort()
			return
		}

		c.Next()
	}
}

func uniform(low, high float64) float64 {
	return low + rand.Float64()*(high-low)
}
