package log

import (
	"errors"
	"fmt"
	"minidb/file"
)

// ErrNoMoreRecords is returned by Next once the oldest record has been read.
var ErrNoMoreRecords = errors.New("no more log records")

// Iterator walks the log records from the most recent to the oldest.
type Iterator struct {
	fileManager     *file.Manager
	block           file.BlockId
	page            *file.Page
	currentPosition int
}

// NewIterator creates an iterator positioned at the most recent record of block.
func NewIterator(fileManager *file.Manager, block file.BlockId) (*Iterator, error) {
	it := &Iterator{
		fileManager: fileManager,
		block:       block,
		page:        file.NewPage(fileManager.BlockSize()),
	}
	if err := it.moveToBlock(block); err != nil {
		return nil, err
	}
	return it, nil
}

// HasNext reports whether an older record remains.
func (it *Iterator) HasNext() bool {
	return it.currentPosition < it.fileManager.BlockSize() || it.block.Number() > 0
}

// Next returns the next older record, moving to the previous log block when the current one is exhausted.
func (it *Iterator) Next() ([]byte, error) {
	if it.currentPosition == it.fileManager.BlockSize() {
		if it.block.Number() == 0 {
			return nil, ErrNoMoreRecords
		}
		if err := it.moveToBlock(file.NewBlockId(it.block.Filename(), it.block.Number()-1)); err != nil {
			return nil, err
		}
	}
	record, err := it.page.GetBytes(it.currentPosition)
	if err != nil {
		return nil, fmt.Errorf("corrupt log record in %s at %d: %w", it.block, it.currentPosition, err)
	}
	it.currentPosition += file.IntSize + len(record)
	return record, nil
}

func (it *Iterator) moveToBlock(block file.BlockId) error {
	if err := it.fileManager.Read(block, it.page); err != nil {
		return fmt.Errorf("failed to read log block %s: %w", block, err)
	}
	it.block = block
	it.currentPosition = it.page.GetInt(0)
	return nil
}
