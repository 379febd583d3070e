package buffer

import "fmt"

// ReplacementStrategy decides which buffer receives a block that is not in the pool. The Manager calls every
// method while holding its lock, so implementations keep no locks of their own.
type ReplacementStrategy interface {
	// Name identifies the strategy in diagnostics.
	Name() string
	// initialize hands the strategy the pool's buffers, none of them assigned yet.
	initialize(buffers []*Buffer)
	// chooseUnpinnedBuffer detaches and returns a buffer to hold a new block, or nil if every buffer is pinned.
	chooseUnpinnedBuffer() *Buffer
	// bufferAssigned is called once a detached buffer holds its new block.
	bufferAssigned(buff *Buffer)
	// restore takes back a detached buffer whose flush or read failed.
	restore(buff *Buffer)
	// pinBuffer notifies the strategy of a hit, before the pin count is incremented.
	pinBuffer(buff *Buffer)
	// unpinBuffer notifies the strategy that the buffer's pin count reached zero.
	unpinBuffer(buff *Buffer)
	// evictionOrder lists the assigned, unpinned buffers in the order they would be replaced.
	evictionOrder() []*Buffer
}

// NewStrategy builds a strategy from its name: "lru" or "midpoint".
func NewStrategy(name string) (ReplacementStrategy, error) {
	switch name {
	case lruStrategyName:
		return NewLRUStrategy(), nil
	case midpointStrategyName:
		return NewMidpointStrategy(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}
