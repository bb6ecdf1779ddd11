package sync

import "sync"

// Closer is an idempotent start/stop signal. Multiple goroutines may call
// Close; only the first does any work. Done returns a channel that closes
// once Close has run, so callers can `<-closer.Done()` to block until
// shutdown is complete.
type Closer struct {
	once sync.Once
	done chan struct{}
}

// NewCloser returns a Closer ready for use.
func NewCloser() *Closer {
	return &Closer{done: make(chan struct{})}
}

// Close signals shutdown. Safe to call more than once or concurrently.
func (c *Closer) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// Done returns the channel that closes when Close has run.
func (c *Closer) Done() <-chan struct{} {
	return c.done
}
