package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// maxLimiters caps the buckets held at once; the least recently used goes first.
	maxLimiters = 10000
	// sweepInterval spaces out the idle sweeps done on allocation.
	sweepInterval = time.Minute
	// minIdle is the shortest time a bucket is kept after its last use.
	minIdle = time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterPool hands out one token bucket per session.
// A bucket idle for longer than its refill time is full again, so dropping
// it loses nothing.
type limiterPool struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	idle      time.Duration
	max       int
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterPool(perSecond float64, burst int) *limiterPool {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	idle := minIdle
	if limit != rate.Inf {
		if refill := time.Duration(float64(burst) / perSecond * float64(time.Second)); refill > idle {
			idle = refill
		}
	}
	return &limiterPool{
		entries: make(map[string]*limiterEntry),
		limit:   limit,
		burst:   burst,
		idle:    idle,
		max:     maxLimiters,
		now:     time.Now,
	}
}

// allow takes a token from the session's bucket.
func (p *limiterPool) allow(sessionID string) bool {
	if p.limit == rate.Inf {
		return true
	}

	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[sessionID]
	if !ok {
		if len(p.entries) >= p.max || now.Sub(p.lastSweep) >= sweepInterval {
			p.sweep(now)
		}
		if len(p.entries) >= p.max {
			p.evictOldest()
		}
		entry = &limiterEntry{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.entries[sessionID] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// sweep drops buckets unused for p.idle. Callers hold p.mu.
func (p *limiterPool) sweep(now time.Time) {
	p.lastSweep = now
	for id, e := range p.entries {
		if now.Sub(e.lastSeen) >= p.idle {
			delete(p.entries, id)
		}
	}
}

// evictOldest drops the least recently used bucket. Callers hold p.mu.
func (p *limiterPool) evictOldest() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, e := range p.entries {
		if oldestID == "" || e.lastSeen.Before(oldest) {
			oldestID, oldest = id, e.lastSeen
		}
	}
	delete(p.entries, oldestID)
}

func (p *limiterPool) forget(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, sessionID)
}

func (p *limiterPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
