package pagination

import "sync"

// Progress is one completion notification of a run.
//
// The first notification of every run has Page 0 and Completed 0. Later
// ones arrive as pages finish and are not ordered by Page.
type Progress struct {
	Completed  int
	Total      int
	Page       int
	TotalPages int
}

// Percent returns Completed/Total as a percentage; 100 for an empty result.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Completed) / float64(p.Total) * 100
}

// ProgressObserver receives progress notifications.
// The engine never calls an observer concurrently with itself.
type ProgressObserver interface {
	OnProgress(Progress)
}

// ProgressFunc adapts a plain function to ProgressObserver.
type ProgressFunc func(Progress)

// OnProgress calls f(p).
func (f ProgressFunc) OnProgress(p Progress) {
	f(p)
}

// serialObserver serializes notifications coming from concurrent page tasks.
type serialObserver struct {
	mu  sync.Mutex
	obs ProgressObserver
}

func newSerialObserver(obs ProgressObserver) *serialObserver {
	if obs == nil {
		return nil
	}
	return &serialObserver{obs: obs}
}

func (s *serialObserver) report(p Progress) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.obs.OnProgress(p)
}

// ChannelProgress forwards notifications over a buffered channel to a single
// consumer goroutine, decoupling slow consumers (terminal rendering, remote
// sinks) from page tasks. Close must be called once the run is over;
// notifications arriving after Close are dropped.
type ChannelProgress struct {
	ch   chan Progress
	done chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewChannelProgress starts the consumer goroutine.
func NewChannelProgress(buffer int, consume func(Progress)) *ChannelProgress {
	if buffer < 0 {
		buffer = 0
	}
	c := &ChannelProgress{
		ch:   make(chan Progress, buffer),
		done: make(chan struct{}),
	}
	go func() {
		defer close(c.done)
		for p := range c.ch {
			consume(p)
		}
	}()
	return c
}

// OnProgress enqueues p, blocking while the buffer is full.
func (c *ChannelProgress) OnProgress(p Progress) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	c.ch <- p
}

// Close stops accepting notifications and waits for the consumer to drain.
// It is safe to call more than once.
func (c *ChannelProgress) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
	c.mu.Unlock()
	<-c.done
}
