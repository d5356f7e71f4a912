package server

// slotPool caps how many connections are handled at once. acquire blocks
// until a slot frees or done closes; the release func must be called exactly
// once.
type slotPool struct {
	sem chan struct{}
}

func newSlotPool(max int) *slotPool {
	if max < 1 {
		max = 1
	}
	return &slotPool{sem: make(chan struct{}, max)}
}

func (p *slotPool) acquire(done <-chan struct{}) (release func(), ok bool) {
	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, true
	case <-done:
		return nil, false
	}
}
