package buffer

import (
	"fmt"
	"minidb/file"
	"sync"
)

// BlockStorage is the disk side of the pool: it reads and writes whole blocks. *file.Manager implements it.
type BlockStorage interface {
	Read(block file.BlockId, page *file.Page) error
	Write(block file.BlockId, page *file.Page) error
	BlockSize() int
}

// LogFlusher makes log records durable up to an LSN. *log.Manager implements it.
type LogFlusher interface {
	Flush(lsn int) error
}

/*
Buffer is one slot of the pool. It wraps a page and records its status: the disk block it holds, how many times it
is pinned, and, when its contents have been modified, the number of the modifying transaction and the LSN of the
latest log record describing the change.

Buffers share their Manager's lock. The unexported methods expect the caller to already hold it; the exported ones
take it themselves.
*/
type Buffer struct {
	id       int
	storage  BlockStorage
	logs     LogFlusher
	mu       sync.Locker
	contents *file.Page
	block    file.BlockId
	assigned bool
	pins     int
	txnNum   int
	lsn      int
}

func newBuffer(id int, storage BlockStorage, logs LogFlusher, mu sync.Locker) *Buffer {
	return &Buffer{
		id:       id,
		storage:  storage,
		logs:     logs,
		mu:       mu,
		contents: file.NewPage(storage.BlockSize()),
		txnNum:   -1,
		lsn:      -1,
	}
}

// ID returns the buffer's fixed position in the pool.
func (b *Buffer) ID() int {
	return b.id
}

// Contents returns the page held by the buffer. Only a goroutine holding a pin may read or write it.
func (b *Buffer) Contents() *file.Page {
	return b.contents
}

// Block returns the block the buffer holds, and false if it has never been assigned one.
func (b *Buffer) Block() (file.BlockId, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.block, b.assigned
}

// SetModified records that txnNum changed the buffer's contents. A negative lsn means no log record was generated
// for the change, and the previous LSN is kept.
func (b *Buffer) SetModified(txnNum, lsn int) {
	if txnNum < 0 {
		panic(fmt.Sprintf("[buffer] [SetModified] invalid transaction number %d", txnNum))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.txnNum = txnNum
	if lsn >= 0 {
		b.lsn = lsn
	}
}

func (b *Buffer) IsPinned() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.isPinned()
}

func (b *Buffer) PinCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.pins
}

// ModifyingTxn returns the transaction whose changes have not been flushed yet, or -1.
func (b *Buffer) ModifyingTxn() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.txnNum
}

func (b *Buffer) IsDirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.isDirty()
}

func (b *Buffer) isPinned() bool {
	return b.pins > 0
}

func (b *Buffer) isDirty() bool {
	return b.txnNum >= 0
}

// assignToBlock flushes the current contents if they are dirty and then reads block into the buffer. If the read
// fails the buffer is left holding no block.
func (b *Buffer) assignToBlock(block file.BlockId) error {
	if err := b.flush(); err != nil {
		return err
	}

	b.block, b.assigned = block, true
	if err := b.storage.Read(block, b.contents); err != nil {
		b.block, b.assigned = file.BlockId{}, false
		return fmt.Errorf("failed to read block %s into buffer %d: %w", block, b.id, err)
	}
	b.pins = 0
	return nil
}

// flush writes the buffer to its disk block if it is dirty. The log is flushed up to the buffer's LSN first.
func (b *Buffer) flush() error {
	if !b.isDirty() {
		return nil
	}
	if err := b.logs.Flush(b.lsn); err != nil {
		return fmt.Errorf("failed to flush log up to lsn %d for txn %d: %w", b.lsn, b.txnNum, err)
	}
	if err := b.storage.Write(b.block, b.contents); err != nil {
		return fmt.Errorf("failed to write buffer %d to block %s: %w", b.id, b.block, err)
	}
	b.txnNum = -1
	return nil
}

func (b *Buffer) pin() { b.pins++ }

func (b *Buffer) unpin() {
	if b.pins <= 0 {
		panic(fmt.Errorf("%w: buffer %d holding %s", ErrInvalidUnpin, b.id, b.block))
	}
	b.pins--
}
