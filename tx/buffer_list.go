package tx

import (
	"minidb/buffer"
	"minidb/file"
)

// pinnedBuffer is a buffer pinned by the transaction and the number of times the transaction pinned it.
type pinnedBuffer struct {
	buffer   *buffer.Buffer
	refCount int
}

// BufferList tracks the buffers a transaction has pinned. The transaction holds one pin in the buffer pool per
// block, however many times it pins that block itself.
type BufferList struct {
	buffers       map[file.BlockId]*pinnedBuffer
	bufferManager *buffer.Manager
}

func NewBufferList(bufferManager *buffer.Manager) *BufferList {
	return &BufferList{
		buffers:       make(map[file.BlockId]*pinnedBuffer),
		bufferManager: bufferManager,
	}
}

// GetBuffer returns the buffer pinned to block, or nil if the transaction has not pinned it.
func (bl *BufferList) GetBuffer(block file.BlockId) *buffer.Buffer {
	if pinned, ok := bl.buffers[block]; ok {
		return pinned.buffer
	}
	return nil
}

// Pin pins block, asking the buffer pool only the first time.
func (bl *BufferList) Pin(block file.BlockId) error {
	if pinned, ok := bl.buffers[block]; ok {
		pinned.refCount++
		return nil
	}

	buff, err := bl.bufferManager.Pin(block)
	if err != nil {
		return err
	}
	bl.buffers[block] = &pinnedBuffer{buffer: buff, refCount: 1}
	return nil
}

// Unpin drops one of the transaction's pins on block and releases the pool pin with the last one. Blocks the
// transaction has not pinned are ignored.
func (bl *BufferList) Unpin(block file.BlockId) {
	pinned, ok := bl.buffers[block]
	if !ok {
		return
	}
	pinned.refCount--
	if pinned.refCount <= 0 {
		bl.bufferManager.Unpin(pinned.buffer)
		delete(bl.buffers, block)
	}
}

// UnpinAll releases every pool pin the transaction holds.
func (bl *BufferList) UnpinAll() {
	for _, pinned := range bl.buffers {
		bl.bufferManager.Unpin(pinned.buffer)
	}
	clear(bl.buffers)
}
