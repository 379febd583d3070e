package tx

import (
	"fmt"
	"minidb/file"
	"minidb/log"
)

// SetStringRecord holds the value a string had before a transaction overwrote it.
type SetStringRecord struct {
	updateHeader
	value string
}

func newSetStringRecord(p *file.Page) (*SetStringRecord, error) {
	h, valuePos, err := decodeUpdateHeader(p)
	if err != nil {
		return nil, err
	}
	value, err := p.GetString(valuePos)
	if err != nil {
		return nil, fmt.Errorf("corrupt SETSTRING record: %w", err)
	}
	return &SetStringRecord{updateHeader: h, value: value}, nil
}

func (r *SetStringRecord) Op() LogRecordType {
	return SetString
}

func (r *SetStringRecord) TxNumber() int {
	return r.txNum
}

func (r *SetStringRecord) String() string {
	return fmt.Sprintf("<SETSTRING %d %s %d %s>", r.txNum, r.block, r.offset, r.value)
}

func (r *SetStringRecord) Undo(tx *Transaction) error {
	if err := tx.Pin(r.block); err != nil {
		return err
	}
	defer tx.Unpin(r.block)
	return tx.SetString(r.block, r.offset, r.value, false)
}

// WriteSetStringToLog appends a SETSTRING record holding val, the value being overwritten, and returns its LSN.
func WriteSetStringToLog(logManager *log.Manager, txNum int, block file.BlockId, offset int, val string) (int, error) {
	h := updateHeader{txNum: txNum, block: block, offset: offset}
	p, valuePos, err := encodeUpdate(SetString, h, file.MaxLength(len(val)))
	if err != nil {
		return -1, err
	}
	if err := p.SetString(valuePos, val); err != nil {
		return -1, err
	}
	return logManager.Append(p.Contents())
}
