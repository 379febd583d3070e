package log

import (
	"fmt"
	"minidb/file"
	"sync"
)

// Manager appends records to the write-ahead log and makes them durable on request. Records are packed right to
// left inside the current log block; the first int of the block holds the boundary, the offset of the most
// recently written record. Storing the records backwards makes it cheap to read them newest first.
// The Manager is thread-safe.
type Manager struct {
	fileManager  *file.Manager
	logFile      string
	logPage      *file.Page
	currentBlock file.BlockId
	latestLSN    int
	lastSavedLSN int
	mu           sync.Mutex
}

func NewManager(fileManager *file.Manager, logFile string) (*Manager, error) {
	logPage := file.NewPage(fileManager.BlockSize())

	logSize, err := fileManager.Length(logFile)
	if err != nil {
		return nil, fmt.Errorf("failed to get log file length: %w", err)
	}

	var currentBlock file.BlockId
	if logSize == 0 {
		if currentBlock, err = appendNewBlock(fileManager, logFile, logPage); err != nil {
			return nil, err
		}
	} else {
		currentBlock = file.NewBlockId(logFile, logSize-1)
		if err := fileManager.Read(currentBlock, logPage); err != nil {
			return nil, fmt.Errorf("failed to read log page: %w", err)
		}
	}

	return &Manager{
		fileManager:  fileManager,
		logFile:      logFile,
		logPage:      logPage,
		currentBlock: currentBlock,
	}, nil
}

// Flush makes every record up to and including lsn durable. Buffers call it before writing a modified page so
// that the log always reaches disk ahead of the data it describes.
func (m *Manager) Flush(lsn int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lsn >= m.lastSavedLSN {
		return m.flush()
	}
	return nil
}

// Append adds logRecord to the log and returns its LSN. The record is not durable until Flush is called with an
// LSN at least as large.
func (m *Manager) Append(logRecord []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bytesNeeded := len(logRecord) + file.IntSize
	if bytesNeeded+file.IntSize > m.fileManager.BlockSize() {
		return 0, fmt.Errorf("log record of %d bytes does not fit in a block", len(logRecord))
	}

	boundary := m.logPage.GetInt(0)
	if boundary-bytesNeeded < file.IntSize {
		if err := m.flush(); err != nil {
			return 0, err
		}
		var err error
		if m.currentBlock, err = appendNewBlock(m.fileManager, m.logFile, m.logPage); err != nil {
			return 0, err
		}
		boundary = m.logPage.GetInt(0)
	}

	recordPosition := boundary - bytesNeeded
	if err := m.logPage.SetBytes(recordPosition, logRecord); err != nil {
		return 0, fmt.Errorf("failed to place log record: %w", err)
	}
	m.logPage.SetInt(0, recordPosition)

	m.latestLSN++
	return m.latestLSN, nil
}

// LastSavedLSN returns the largest LSN known to be on disk.
func (m *Manager) LastSavedLSN() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastSavedLSN
}

// Iterator flushes the log and returns an iterator positioned at the most recent record.
func (m *Manager) Iterator() (*Iterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.flush(); err != nil {
		return nil, err
	}
	return NewIterator(m.fileManager, m.currentBlock)
}

func appendNewBlock(fileManager *file.Manager, logFile string, logPage *file.Page) (file.BlockId, error) {
	block, err := fileManager.Append(logFile)
	if err != nil {
		return file.BlockId{}, fmt.Errorf("failed to append log block: %w", err)
	}
	clear(logPage.Contents())
	logPage.SetInt(0, fileManager.BlockSize())
	if err := fileManager.Write(block, logPage); err != nil {
		return file.BlockId{}, fmt.Errorf("failed to write log block %s: %w", block, err)
	}
	return block, nil
}

// flush writes the log page to disk. Callers must hold m.mu.
func (m *Manager) flush() error {
	if err := m.fileManager.Write(m.currentBlock, m.logPage); err != nil {
		return fmt.Errorf("failed to write log page: %w", err)
	}
	m.lastSavedLSN = m.latestLSN
	return nil
}
