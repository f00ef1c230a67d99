// Package closer coordinates the shutdown of a group of goroutines. This
// module's engine is synchronous, one update at a time, with no
// background workers of its own, but the same coordination is useful
// for the concurrent-reader benchmark harness, where multiple readers
// traverse the same tree concurrently without synchronization.
package closer

import "sync"

// Closer lets a coordinator signal a group of worker goroutines to stop
// and wait for them to acknowledge.
type Closer struct {
	waiting     sync.WaitGroup
	CloseSignal chan struct{}
}

// New creates a Closer with n workers expected to call Done.
func New(n int) *Closer {
	c := &Closer{CloseSignal: make(chan struct{})}
	c.waiting.Add(n)
	return c
}

// Signal closes CloseSignal, telling every worker to stop, then blocks
// until each one has called Done.
func (c *Closer) Signal() {
	close(c.CloseSignal)
	c.waiting.Wait()
}

// Done marks one worker as finished.
func (c *Closer) Done() {
	c.waiting.Done()
}
