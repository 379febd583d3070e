package tx

import (
	"errors"
	"fmt"
	"minidb/buffer"
	"minidb/log"
)

// RecoveryManager writes a transaction's log records and undoes its changes on rollback. Restart recovery is not
// supported: a rollback only walks back to the transaction's own START record.
type RecoveryManager struct {
	logManager    *log.Manager
	bufferManager *buffer.Manager
	transaction   *Transaction
	txNum         int
}

func NewRecoveryManager(tx *Transaction, txNum int, logManager *log.Manager, bufferManager *buffer.Manager) (*RecoveryManager, error) {
	if _, err := writeStatusToLog(logManager, Start, txNum); err != nil {
		return nil, fmt.Errorf("failed to log start of txn %d: %w", txNum, err)
	}
	return &RecoveryManager{
		logManager:    logManager,
		bufferManager: bufferManager,
		transaction:   tx,
		txNum:         txNum,
	}, nil
}

// Commit flushes the transaction's buffers (each one flushes the log up to its own LSN first), then writes a
// COMMIT record and makes it durable.
func (rm *RecoveryManager) Commit() error {
	if err := rm.bufferManager.FlushAll(rm.txNum); err != nil {
		return err
	}
	return rm.writeAndFlush(Commit)
}

// Rollback undoes the transaction's changes, flushes the restored buffers, and writes a ROLLBACK record.
func (rm *RecoveryManager) Rollback() error {
	if err := rm.doRollback(); err != nil {
		return err
	}
	if err := rm.bufferManager.FlushAll(rm.txNum); err != nil {
		return err
	}
	return rm.writeAndFlush(Rollback)
}

// SetInt logs the value about to be overwritten at offset and returns the record's LSN.
func (rm *RecoveryManager) SetInt(buff *buffer.Buffer, offset int) (int, error) {
	block, _ := buff.Block()
	oldVal := buff.Contents().GetInt(offset)
	return WriteSetIntToLog(rm.logManager, rm.txNum, block, offset, oldVal)
}

// SetString logs the string about to be overwritten at offset and returns the record's LSN.
func (rm *RecoveryManager) SetString(buff *buffer.Buffer, offset int) (int, error) {
	block, _ := buff.Block()
	oldVal, err := buff.Contents().GetString(offset)
	if err != nil {
		return -1, fmt.Errorf("cannot read old value at %s offset %d: %w", block, offset, err)
	}
	return WriteSetStringToLog(rm.logManager, rm.txNum, block, offset, oldVal)
}

func (rm *RecoveryManager) writeAndFlush(op LogRecordType) error {
	lsn, err := writeStatusToLog(rm.logManager, op, rm.txNum)
	if err != nil {
		return fmt.Errorf("failed to log %s of txn %d: %w", op, rm.txNum, err)
	}
	return rm.logManager.Flush(lsn)
}

// doRollback reads the log newest first and undoes each of the transaction's records until it reaches the
// transaction's START record.
func (rm *RecoveryManager) doRollback() error {
	iter, err := rm.logManager.Iterator()
	if err != nil {
		return err
	}

	for iter.HasNext() {
		b, err := iter.Next()
		if err != nil {
			return err
		}
		record, err := CreateLogRecord(b)
		if err != nil {
			return err
		}
		if record.TxNumber() != rm.txNum {
			continue
		}
		if record.Op() == Start {
			return nil
		}
		if err := record.Undo(rm.transaction); err != nil {
			return fmt.Errorf("failed to undo %s: %w", record, err)
		}
	}
	return errors.New("start record of the transaction not found in the log")
}
