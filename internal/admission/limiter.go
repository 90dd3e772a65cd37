// Package admission implements the per-client fixed-window request limiter
// that guards the analysis endpoint.
package admission

import (
	"hash/fnv"
	"strings"
	"sync"
	"time"
)

const (
	defaultWindow     = 60 * time.Second
	defaultCeiling    = 5
	defaultShardCount = 16
	unknownClient     = "unknown"
)

// Decision is the outcome of a single admission check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type clientWindow struct {
	count   int
	resetAt time.Time
}

type shard struct {
	mu      sync.Mutex
	windows map[string]*clientWindow
}

// Limiter admits at most ceiling requests per client within each fixed window.
type Limiter struct {
	window  time.Duration
	ceiling int
	now     func() time.Time
	shards  []*shard

	sweepMu      sync.Mutex
	sweepRunning bool
	sweepStop    chan struct{}
	sweepWg      sync.WaitGroup
}

// New returns a limiter. Non-positive values fall back to a 60s window and a ceiling of 5.
func New(window time.Duration, ceiling int, now func() time.Time) *Limiter {
	if window <= 0 {
		window = defaultWindow
	}
	if ceiling <= 0 {
		ceiling = defaultCeiling
	}
	if now == nil {
		now = time.Now
	}
	shards := make([]*shard, defaultShardCount)
	for i := range shards {
		shards[i] = &shard{windows: make(map[string]*clientWindow)}
	}
	return &Limiter{
		window:  window,
		ceiling: ceiling,
		now:     now,
		shards:  shards,
	}
}

// Ceiling returns the per-window request ceiling.
func (l *Limiter) Ceiling() int { return l.ceiling }

func (l *Limiter) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return l.shards[h.Sum32()%uint32(len(l.shards))]
}

// Admit counts one request for clientID and reports whether it may proceed.
func (l *Limiter) Admit(clientID string) Decision {
	key := strings.TrimSpace(clientID)
	if key == "" {
		key = unknownClient
	}
	now := l.now()

	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &clientWindow{resetAt: now.Add(l.window)}
		s.windows[key] = w
	}
	if w.count >= l.ceiling {
		return Decision{Allowed: false, Remaining: 0, ResetAt: w.resetAt}
	}
	w.count++
	return Decision{
		Allowed:   true,
		Remaining: max(0, l.ceiling-w.count),
		ResetAt:   w.resetAt,
	}
}

// Sweep drops windows that have already reset and returns how many were removed.
func (l *Limiter) Sweep() int {
	now := l.now()
	removed := 0
	for _, s := range l.shards {
		s.mu.Lock()
		for key, w := range s.windows {
			if !now.Before(w.resetAt) {
				delete(s.windows, key)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Len returns the number of tracked client windows.
func (l *Limiter) Len() int {
	n := 0
	for _, s := range l.shards {
		s.mu.Lock()
		n += len(s.windows)
		s.mu.Unlock()
	}
	return n
}

// Start runs Sweep every interval until Stop is called. Calling Start twice is a no-op.
func (l *Limiter) Start(interval time.Duration) {
	if interval <= 0 {
		interval = l.window
	}
	l.sweepMu.Lock()
	defer l.sweepMu.Unlock()
	if l.sweepRunning {
		return
	}
	l.sweepRunning = true
	l.sweepStop = make(chan struct{})
	l.sweepWg.Add(1)
	go l.sweepLoop(interval, l.sweepStop)
}

// Stop halts the sweep worker and waits for it to exit.
func (l *Limiter) Stop() {
	l.sweepMu.Lock()
	if !l.sweepRunning {
		l.sweepMu.Unlock()
		return
	}
	l.sweepRunning = false
	close(l.sweepStop)
	l.sweepMu.Unlock()
	l.sweepWg.Wait()
}

func (l *Limiter) sweepLoop(interval time.Duration, stop <-chan struct{}) {
	defer l.sweepWg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-stop:
			return
		}
	}
}
