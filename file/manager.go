package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager reads and writes whole blocks of the database files kept in one directory. It is the block storage the
// buffer pool loads pages from and flushes pages to.
// The Manager is thread-safe.
type Manager struct {
	dbDirectory   string
	blockSize     int
	isNew         bool
	mu            sync.Mutex
	openFiles     map[string]*os.File
	closed        bool
	blocksRead    int
	blocksWritten int
}

// NewManager opens (creating if needed) dbDirectory. Files whose names start with "temp" are leftovers of a
// previous run and are removed.
func NewManager(dbDirectory string, blockSize int) (*Manager, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("invalid block size %d", blockSize)
	}

	isNew := false
	if _, err := os.Stat(dbDirectory); errors.Is(err, os.ErrNotExist) {
		isNew = true
		if err := os.MkdirAll(dbDirectory, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create directory %s: %w", dbDirectory, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("cannot access directory %s: %w", dbDirectory, err)
	}

	entries, err := os.ReadDir(dbDirectory)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %s: %w", dbDirectory, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "temp") {
			continue
		}
		tempPath := filepath.Join(dbDirectory, entry.Name())
		if err := os.Remove(tempPath); err != nil {
			return nil, fmt.Errorf("cannot remove file %s: %w", tempPath, err)
		}
	}

	return &Manager{
		dbDirectory: dbDirectory,
		blockSize:   blockSize,
		isNew:       isNew,
		openFiles:   make(map[string]*os.File),
	}, nil
}

// Read copies the contents of block into page. Blocks past the end of the file read as zeroes.
func (m *Manager) Read(block BlockId, page *Page) error {
	if err := block.validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.getFile(block.Filename())
	if err != nil {
		return fmt.Errorf("cannot read block %s: %w", block, err)
	}

	buf := page.Contents()
	n, err := f.ReadAt(buf, m.offset(block))
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && n == 0:
		clear(buf)
	case errors.Is(err, io.EOF):
		return fmt.Errorf("partial read of block %s: expected %d bytes, got %d", block, len(buf), n)
	default:
		return fmt.Errorf("cannot read block %s: %w", block, err)
	}

	m.blocksRead++
	return nil
}

// Write stores page as the contents of block and syncs the file.
func (m *Manager) Write(block BlockId, page *Page) error {
	if err := block.validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.getFile(block.Filename())
	if err != nil {
		return fmt.Errorf("cannot write block %s: %w", block, err)
	}
	if err := m.writeAndSync(f, block, page.Contents()); err != nil {
		return err
	}
	m.blocksWritten++
	return nil
}

// Append extends filename by one zeroed block and returns its id.
func (m *Manager) Append(filename string) (BlockId, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	length, err := m.length(filename)
	if err != nil {
		return BlockId{}, err
	}
	block := NewBlockId(filename, length)
	if err := block.validate(); err != nil {
		return BlockId{}, err
	}

	f, err := m.getFile(filename)
	if err != nil {
		return BlockId{}, fmt.Errorf("cannot append block %s: %w", block, err)
	}
	if err := m.writeAndSync(f, block, make([]byte, m.blockSize)); err != nil {
		return BlockId{}, err
	}
	m.blocksWritten++
	return block, nil
}

// Length returns the number of blocks in filename.
func (m *Manager) Length(filename string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.length(filename)
}

func (m *Manager) length(filename string) (int, error) {
	f, err := m.getFile(filename)
	if err != nil {
		return 0, fmt.Errorf("cannot access %s: %w", filename, err)
	}
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("cannot stat %s: %w", filename, err)
	}
	return int(info.Size() / int64(m.blockSize)), nil
}

func (m *Manager) writeAndSync(f *os.File, block BlockId, buf []byte) error {
	n, err := f.WriteAt(buf, m.offset(block))
	if err != nil {
		return fmt.Errorf("cannot write block %s (%d of %d bytes): %w", block, n, len(buf), err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("cannot sync %s: %w", block.Filename(), err)
	}
	return nil
}

func (m *Manager) offset(block BlockId) int64 {
	return int64(block.Number()) * int64(m.blockSize)
}

// getFile returns the open handle for filename, opening it on first use. Callers must hold m.mu.
func (m *Manager) getFile(filename string) (*os.File, error) {
	if m.closed {
		return nil, ErrClosed
	}
	if f, ok := m.openFiles[filename]; ok {
		return f, nil
	}

	path := filepath.Join(m.dbDirectory, filename)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, fmt.Errorf("cannot open file %s: %w", path, err)
	}
	m.openFiles[filename] = f
	return f, nil
}

// Close closes every open file. Later calls on the Manager fail with ErrClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, f := range m.openFiles {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cannot close %s: %w", name, err))
		}
	}
	m.openFiles = nil
	m.closed = true
	return errors.Join(errs...)
}

// IsNew reports whether the database directory was created by this Manager.
func (m *Manager) IsNew() bool {
	return m.isNew
}

func (m *Manager) BlockSize() int {
	return m.blockSize
}

func (m *Manager) BlocksRead() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.blocksRead
}

func (m *Manager) BlocksWritten() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.blocksWritten
}
