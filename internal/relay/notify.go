package relay

import "sync"

// notifyOnce is a fire-once broadcast signal: any number of goroutines can
// wait on C, and Fire is idempotent. Grounded on sync.Once plus a
// closed-channel broadcast, the closest idiom the teacher's stdlib-only
// concurrency style offers to a Tokio-style Notify (SPEC_FULL.md §5);
// used here for the mDNS drain-wait signal, which context cancellation
// alone can't express ("wait one second before releasing").
type notifyOnce struct {
	once sync.Once
	ch   chan struct{}
}

func newNotifyOnce() *notifyOnce {
	return &notifyOnce{ch: make(chan struct{})}
}

// Fire broadcasts the signal; safe to call more than once or concurrently.
func (n *notifyOnce) Fire() {
	n.once.Do(func() { close(n.ch) })
}

// C returns the channel that closes when Fire is called.
func (n *notifyOnce) C() <-chan struct{} {
	return n.ch
}
