// Package ceremonyratelimit throttles how often a given participant may
// submit a turn to the coordinator, guarding the sequential round state
// machine against a misbehaving or looping client hammering retries.
// Direct adaptation of teacher's cmd/auctiond/rate_limiter.go: same token
// bucket, same per-identity map wrapping one bucket each, renamed from
// per-participant auction bids to per-participant round submissions. No
// rate-limiting library appears anywhere in the corpus (golang.org/x/time
// is absent from every example's go.mod), so the teacher's hand-rolled
// token bucket is kept rather than introduced from outside the corpus.
package ceremonyratelimit

import (
	"sync"
	"time"
)

// bucket is a single token-bucket limiter.
type bucket struct {
	mu           sync.Mutex
	tokens       int
	maxTokens    int
	refillRate   int
	refillPeriod time.Duration
	lastRefill   time.Time
}

func newBucket(maxTokens, refillRate int, refillPeriod time.Duration) *bucket {
	return &bucket{
		tokens:       maxTokens,
		maxTokens:    maxTokens,
		refillRate:   refillRate,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

func (b *bucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(b.lastRefill); elapsed >= b.refillPeriod {
		refills := int(elapsed / b.refillPeriod)
		b.tokens += refills * b.refillRate
		if b.tokens > b.maxTokens {
			b.tokens = b.maxTokens
		}
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// Limiter rate-limits each participant independently, lazily creating a
// bucket for any identity seen for the first time.
type Limiter struct {
	mu           sync.RWMutex
	buckets      map[string]*bucket
	maxTokens    int
	refillRate   int
	refillPeriod time.Duration
}

// New builds a Limiter allowing maxTokens submissions per participant,
// refilling by refillRate tokens every refillPeriod.
func New(maxTokens, refillRate int, refillPeriod time.Duration) *Limiter {
	return &Limiter{
		buckets:      make(map[string]*bucket),
		maxTokens:    maxTokens,
		refillRate:   refillRate,
		refillPeriod: refillPeriod,
	}
}

// Allow reports whether participantID may submit its next turn now,
// consuming a token if so.
func (l *Limiter) Allow(participantID string) bool {
	l.mu.Lock()
	b, ok := l.buckets[participantID]
	if !ok {
		b = newBucket(l.maxTokens, l.refillRate, l.refillPeriod)
		l.buckets[participantID] = b
	}
	l.mu.Unlock()
	return b.allow()
}

// Reset restores participantID's bucket to full, used after a legitimate
// reconnect so a dropped connection doesn't cost the participant its turn.
func (l *Limiter) Reset(participantID string) {
	l.mu.RLock()
	b, ok := l.buckets[participantID]
	l.mu.RUnlock()
	if !ok {
		return
	}
	b.mu.Lock()
	b.tokens = b.maxTokens
	b.lastRefill = time.Now()
	b.mu.Unlock()
}
