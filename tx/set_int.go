package tx

import (
	"fmt"
	"minidb/file"
	"minidb/log"
)

// SetIntRecord holds the value an int had before a transaction overwrote it.
type SetIntRecord struct {
	updateHeader
	value int
}

func newSetIntRecord(p *file.Page) (*SetIntRecord, error) {
	h, valuePos, err := decodeUpdateHeader(p)
	if err != nil {
		return nil, err
	}
	return &SetIntRecord{updateHeader: h, value: p.GetInt(valuePos)}, nil
}

func (r *SetIntRecord) Op() LogRecordType {
	return SetInt
}

func (r *SetIntRecord) TxNumber() int {
	return r.txNum
}

func (r *SetIntRecord) String() string {
	return fmt.Sprintf("<SETINT %d %s %d %d>", r.txNum, r.block, r.offset, r.value)
}

// Undo pins the block, writes the saved value back without logging it, and unpins the block.
func (r *SetIntRecord) Undo(tx *Transaction) error {
	if err := tx.Pin(r.block); err != nil {
		return err
	}
	defer tx.Unpin(r.block)
	return tx.SetInt(r.block, r.offset, r.value, false)
}

// WriteSetIntToLog appends a SETINT record holding val, the value being overwritten, and returns its LSN.
func WriteSetIntToLog(logManager *log.Manager, txNum int, block file.BlockId, offset, val int) (int, error) {
	p, valuePos, err := encodeUpdate(SetInt, updateHeader{txNum: txNum, block: block, offset: offset}, file.IntSize)
	if err != nil {
		return -1, err
	}
	p.SetInt(valuePos, val)
	return logManager.Append(p.Contents())
}
