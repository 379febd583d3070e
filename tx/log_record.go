package tx

import (
	"fmt"
	"minidb/file"
	"minidb/log"
)

// LogRecordType is the operation a log record describes. Its value is the first int of the encoded record.
type LogRecordType int

const (
	Start LogRecordType = iota + 1
	Commit
	Rollback
	SetInt
	SetString
)

func (t LogRecordType) String() string {
	switch t {
	case Start:
		return "START"
	case Commit:
		return "COMMIT"
	case Rollback:
		return "ROLLBACK"
	case SetInt:
		return "SETINT"
	case SetString:
		return "SETSTRING"
	default:
		return fmt.Sprintf("LogRecordType(%d)", int(t))
	}
}

// LogRecord is one decoded record of the write-ahead log.
type LogRecord interface {
	Op() LogRecordType
	TxNumber() int
	// Undo reverts the change the record describes on behalf of tx. Only update records do anything.
	Undo(tx *Transaction) error
	String() string
}

// CreateLogRecord decodes a record produced by one of the write functions of this package.
func CreateLogRecord(b []byte) (LogRecord, error) {
	if len(b) < 2*file.IntSize {
		return nil, fmt.Errorf("log record of %d bytes is too short", len(b))
	}
	p := file.NewPageFromBytes(b)
	txNum := p.GetInt(file.IntSize)

	switch op := LogRecordType(p.GetInt(0)); op {
	case Start, Commit, Rollback:
		return &statusRecord{op: op, txNum: txNum}, nil
	case SetInt:
		return newSetIntRecord(p)
	case SetString:
		return newSetStringRecord(p)
	default:
		return nil, fmt.Errorf("unknown log record type %d", int(op))
	}
}

// statusRecord marks a point in a transaction's life: START, COMMIT or ROLLBACK. It changes no data.
type statusRecord struct {
	op    LogRecordType
	txNum int
}

func (r *statusRecord) Op() LogRecordType {
	return r.op
}

func (r *statusRecord) TxNumber() int {
	return r.txNum
}

func (r *statusRecord) Undo(*Transaction) error {
	return nil
}

func (r *statusRecord) String() string {
	return fmt.Sprintf("<%s %d>", r.op, r.txNum)
}

// writeStatusToLog appends a status record for txNum and returns its LSN.
func writeStatusToLog(logManager *log.Manager, op LogRecordType, txNum int) (int, error) {
	record := make([]byte, 2*file.IntSize)
	p := file.NewPageFromBytes(record)
	p.SetInt(0, int(op))
	p.SetInt(file.IntSize, txNum)
	return logManager.Append(record)
}

// updateHeader is the part shared by update records: the transaction, and the block and offset of the value.
type updateHeader struct {
	txNum  int
	block  file.BlockId
	offset int
}

// decodeUpdateHeader reads the header written by encodeUpdate and returns the position of the value.
func decodeUpdateHeader(p *file.Page) (updateHeader, int, error) {
	fileNamePos := 2 * file.IntSize
	fileName, err := p.GetString(fileNamePos)
	if err != nil {
		return updateHeader{}, 0, fmt.Errorf("corrupt update record: %w", err)
	}
	blockNumPos := fileNamePos + file.MaxLength(len(fileName))
	offsetPos := blockNumPos + file.IntSize
	h := updateHeader{
		txNum:  p.GetInt(file.IntSize),
		block:  file.NewBlockId(fileName, p.GetInt(blockNumPos)),
		offset: p.GetInt(offsetPos),
	}
	return h, offsetPos + file.IntSize, nil
}

// encodeUpdate lays out an update record with valueSize bytes reserved for the value, and returns the page and
// the position of the value.
func encodeUpdate(op LogRecordType, h updateHeader, valueSize int) (*file.Page, int, error) {
	fileNamePos := 2 * file.IntSize
	blockNumPos := fileNamePos + file.MaxLength(len(h.block.Filename()))
	offsetPos := blockNumPos + file.IntSize
	valuePos := offsetPos + file.IntSize

	p := file.NewPageFromBytes(make([]byte, valuePos+valueSize))
	p.SetInt(0, int(op))
	p.SetInt(file.IntSize, h.txNum)
	if err := p.SetString(fileNamePos, h.block.Filename()); err != nil {
		return nil, 0, err
	}
	p.SetInt(blockNumPos, h.block.Number())
	p.SetInt(offsetPos, h.offset)
	return p, valuePos, nil
}
