package tx

import (
	"fmt"
	"log/slog"
	"math"
	"minidb/buffer"
	"minidb/file"
	"minidb/log"
	"sync/atomic"
)

var nextTxNum atomic.Int64

func nextTxNumber() int {
	return int(nextTxNum.Add(1))
}

// Transaction reads and writes values in blocks through the buffer pool, logging every logged write so that
// it can be undone. There is no concurrency control: callers must not let two transactions touch the same block
// at the same time.
type Transaction struct {
	recoveryManager *RecoveryManager
	bufferManager   *buffer.Manager
	fileManager     *file.Manager
	logger          *slog.Logger
	txNum           int
	myBuffers       *BufferList
}

// NewTransaction starts a transaction and writes its START record to the log. The transaction logs through the
// buffer manager's logger.
func NewTransaction(fileManager *file.Manager, logManager *log.Manager, bufferManager *buffer.Manager) (*Transaction, error) {
	txNum := nextTxNumber()
	tx := &Transaction{
		fileManager:   fileManager,
		bufferManager: bufferManager,
		logger:        bufferManager.Logger().With("component", "tx", "txn", txNum),
		txNum:         txNum,
		myBuffers:     NewBufferList(bufferManager),
	}
	rm, err := NewRecoveryManager(tx, txNum, logManager, bufferManager)
	if err != nil {
		return nil, err
	}
	tx.recoveryManager = rm
	return tx, nil
}

// Commit flushes the transaction's modified buffers and its log records, writes a COMMIT record, and unpins
// every buffer the transaction still holds.
func (tx *Transaction) Commit() error {
	if err := tx.recoveryManager.Commit(); err != nil {
		return err
	}
	tx.logger.Debug("committed")
	tx.myBuffers.UnpinAll()
	return nil
}

// Rollback undoes every logged change of the transaction, flushes the restored buffers, writes a ROLLBACK
// record, and unpins every buffer the transaction still holds.
func (tx *Transaction) Rollback() error {
	if err := tx.recoveryManager.Rollback(); err != nil {
		return err
	}
	tx.logger.Debug("rolled back")
	tx.myBuffers.UnpinAll()
	return nil
}

// Pin pins block. It may wait for a free buffer and fails with buffer.ErrNoFreeFrame if none frees up in time.
func (tx *Transaction) Pin(block file.BlockId) error {
	return tx.myBuffers.Pin(block)
}

func (tx *Transaction) Unpin(block file.BlockId) {
	tx.myBuffers.Unpin(block)
}

// GetInt returns the int at offset of block. The block must be pinned by the transaction.
func (tx *Transaction) GetInt(block file.BlockId, offset int) (int, error) {
	buff := tx.myBuffers.GetBuffer(block)
	if buff == nil {
		return math.MinInt, fmt.Errorf("buffer for block %s not found", block)
	}
	return buff.Contents().GetInt(offset), nil
}

// GetString returns the string at offset of block. The block must be pinned by the transaction.
func (tx *Transaction) GetString(block file.BlockId, offset int) (string, error) {
	buff := tx.myBuffers.GetBuffer(block)
	if buff == nil {
		return "", fmt.Errorf("buffer for block %s not found", block)
	}
	return buff.Contents().GetString(offset)
}

// SetInt stores val at offset of block. With logIt set, the old value is written to the log first and the
// buffer remembers the record's LSN, so the buffer cannot reach disk before the record does.
func (tx *Transaction) SetInt(block file.BlockId, offset int, val int, logIt bool) error {
	buff := tx.myBuffers.GetBuffer(block)
	if buff == nil {
		return fmt.Errorf("buffer for block %s not found", block)
	}

	lsn := -1
	if logIt {
		var err error
		if lsn, err = tx.recoveryManager.SetInt(buff, offset); err != nil {
			return err
		}
	}

	buff.Contents().SetInt(offset, val)
	buff.SetModified(tx.txNum, lsn)
	return nil
}

// SetString stores val at offset of block, logging the old value first when logIt is set.
func (tx *Transaction) SetString(block file.BlockId, offset int, val string, logIt bool) error {
	buff := tx.myBuffers.GetBuffer(block)
	if buff == nil {
		return fmt.Errorf("buffer for block %s not found", block)
	}

	lsn := -1
	if logIt {
		var err error
		if lsn, err = tx.recoveryManager.SetString(buff, offset); err != nil {
			return err
		}
	}

	if err := buff.Contents().SetString(offset, val); err != nil {
		return err
	}
	buff.SetModified(tx.txNum, lsn)
	return nil
}

// Size returns the number of blocks in filename.
func (tx *Transaction) Size(filename string) (int, error) {
	return tx.fileManager.Length(filename)
}

// Append adds an empty block to the end of filename.
func (tx *Transaction) Append(filename string) (file.BlockId, error) {
	return tx.fileManager.Append(filename)
}

func (tx *Transaction) BlockSize() int {
	return tx.fileManager.BlockSize()
}

// AvailableBuffers returns the number of unpinned buffers in the pool.
func (tx *Transaction) AvailableBuffers() int {
	return tx.bufferManager.Available()
}

func (tx *Transaction) TxNum() int {
	return tx.txNum
}
