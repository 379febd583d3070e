package file

import "fmt"

// BlockId identifies a disk block by its filename and block number. It is a comparable value and is used directly
// as a map key by the buffer pool.
type BlockId struct {
	File        string
	BlockNumber int
}

func NewBlockId(filename string, blockNumber int) BlockId {
	return BlockId{File: filename, BlockNumber: blockNumber}
}

func (b BlockId) Filename() string {
	return b.File
}

func (b BlockId) Number() int {
	return b.BlockNumber
}

func (b BlockId) String() string {
	return fmt.Sprintf("[file %s, block %d]", b.File, b.BlockNumber)
}

// validate rejects block ids that cannot address a position in a file.
func (b BlockId) validate() error {
	if b.File == "" {
		return fmt.Errorf("block %s: %w", b, ErrEmptyFilename)
	}
	if b.BlockNumber < 0 {
		return fmt.Errorf("block %s: %w", b, ErrNegativeBlock)
	}
	return nil
}
