package buffer

import (
	"context"
	"fmt"
	"log/slog"
	"minidb/file"
	"sync"
	"time"
)

// Manager is the buffer pool. It pins blocks into a fixed set of buffers, keeps the mapping from blocks to the
// buffers holding them, and asks its ReplacementStrategy which unpinned buffer to reuse when a block is not
// resident. Every operation runs under one pool-wide lock; Pin is the only one that may wait.
type Manager struct {
	bufferPool   []*Buffer
	allocated    map[file.BlockId]*Buffer
	numAvailable int
	hits         int
	references   int
	blockSize    int
	mu           sync.Mutex
	cond         *sync.Cond
	strategy     ReplacementStrategy
	maxWaitTime  time.Duration
	baseLogger   *slog.Logger
	logger       *slog.Logger
}

// NewManager creates a pool of numBuffers buffers reading from storage and flushing the log through logs. It
// panics if numBuffers is not positive.
func NewManager(storage BlockStorage, logs LogFlusher, numBuffers int, opts ...Option) *Manager {
	if numBuffers <= 0 {
		panic(fmt.Errorf("%w: %d", ErrInvalidPoolSize, numBuffers))
	}

	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.Strategy == nil {
		o.Strategy = NewLRUStrategy()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	m := &Manager{
		bufferPool:   make([]*Buffer, numBuffers),
		allocated:    make(map[file.BlockId]*Buffer, numBuffers),
		numAvailable: numBuffers,
		blockSize:    storage.BlockSize(),
		strategy:     o.Strategy,
		maxWaitTime:  o.MaxWaitTime,
		baseLogger:   o.Logger,
		logger:       o.Logger.With("component", "buffer", "strategy", o.Strategy.Name()),
	}
	m.cond = sync.NewCond(&m.mu)
	for i := range m.bufferPool {
		m.bufferPool[i] = newBuffer(i, storage, logs, &m.mu)
	}
	m.strategy.initialize(m.bufferPool)
	return m
}

// Logger returns the logger the pool was configured with, for clients that want their events to go to the same
// place.
func (m *Manager) Logger() *slog.Logger {
	return m.baseLogger
}

// Available returns the number of buffers a Pin could use without waiting: never-used buffers plus assigned,
// unpinned ones.
func (m *Manager) Available() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.numAvailable
}

// FlushAll writes every buffer modified by txnNum to disk. Buffers stay assigned and keep their pins; buffers of
// other transactions are not touched.
func (m *Manager) FlushAll(txnNum int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, buff := range m.bufferPool {
		if buff.assigned && buff.txnNum == txnNum {
			if err := buff.flush(); err != nil {
				return fmt.Errorf("failed to flush buffers of txn %d: %w", txnNum, err)
			}
		}
	}
	return nil
}

// Unpin releases one pin on buff. When the pin count reaches zero the buffer becomes a replacement candidate and
// goroutines waiting in Pin are woken. Unpinning a buffer that is not pinned panics.
func (m *Manager) Unpin(buff *Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buff.unpin()
	if !buff.isPinned() {
		m.numAvailable++
		m.strategy.unpinBuffer(buff)
		m.cond.Broadcast()
	}
}

/*
Pin pins a buffer to block, reading the block from disk if it is not resident. If every buffer is pinned it waits
for one to be released. The wait is bounded by the maximum wait time measured from the call; when it runs out Pin
returns an error wrapping ErrNoFreeFrame and the caller should abort its transaction.

The deadline is a context whose AfterFunc broadcasts on the condition variable. The AfterFunc takes the lock before
broadcasting, so the broadcast cannot slip in between a waiter's deadline check and its call to Wait:
https://pkg.go.dev/context#example-AfterFunc-Cond
*/
func (m *Manager) Pin(block file.BlockId) (*Buffer, error) {
	start := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.references++
	if buff, err := m.tryToPin(block); err != nil || buff != nil {
		return buff, err
	}

	ctx, cancel := context.WithDeadline(context.Background(), start.Add(m.maxWaitTime))
	defer cancel()
	stop := context.AfterFunc(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.cond.Broadcast()
	})
	defer stop()

	for {
		m.cond.Wait()
		if buff, err := m.tryToPin(block); err != nil || buff != nil {
			return buff, err
		}
		if ctx.Err() != nil {
			m.logger.Warn("pin timed out", "block", block.String(), "waited", time.Since(start))
			return nil, fmt.Errorf("%w: could not pin block %s within %v", ErrNoFreeFrame, block, m.maxWaitTime)
		}
	}
}

// tryToPin pins block if it is resident or a buffer can be freed for it. It returns nil, nil when every buffer
// is pinned.
func (m *Manager) tryToPin(block file.BlockId) (*Buffer, error) {
	buff, ok := m.allocated[block]
	if ok {
		m.hits++
		m.strategy.pinBuffer(buff)
	} else {
		if buff = m.strategy.chooseUnpinnedBuffer(); buff == nil {
			return nil, nil
		}
		if err := m.assign(buff, block); err != nil {
			return nil, err
		}
	}

	if !buff.isPinned() {
		m.numAvailable--
	}
	buff.pin()
	return buff, nil
}

// assign loads block into a buffer detached by the strategy, replacing the block it held before in the
// allocation map.
func (m *Manager) assign(buff *Buffer, block file.BlockId) error {
	previous, hadPrevious := buff.block, buff.assigned
	if buff.isPinned() {
		panic(fmt.Sprintf("[buffer] [assign] strategy %s chose pinned buffer %d", m.strategy.Name(), buff.id))
	}
	if hadPrevious && m.allocated[previous] != buff {
		panic(fmt.Sprintf("[buffer] [assign] allocation map has no entry for buffer %d holding %s", buff.id, previous))
	}

	if err := buff.assignToBlock(block); err != nil {
		if hadPrevious && !buff.assigned {
			delete(m.allocated, previous)
		}
		m.strategy.restore(buff)
		return fmt.Errorf("failed to pin block %s: %w", block, err)
	}

	if hadPrevious {
		delete(m.allocated, previous)
		m.logger.Debug("replaced block", "buffer", buff.id, "evicted", previous.String(), "loaded", block.String())
	}
	m.allocated[block] = buff
	m.strategy.bufferAssigned(buff)
	return nil
}
