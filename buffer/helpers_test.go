package buffer

import (
	"fmt"
	"log/slog"
	"minidb/file"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testBlockSize = 400

// journal records storage and log calls in the order they happen.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, fmt.Sprintf(format, args...))
}

func (j *journal) snapshot() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

// memStorage keeps blocks in memory.
type memStorage struct {
	mu       sync.Mutex
	journal  *journal
	blocks   map[file.BlockId][]byte
	writes   []file.BlockId
	readErr  error
	writeErr error
	// failing holds per-block write errors.
	failing map[file.BlockId]error
}

func newMemStorage(j *journal) *memStorage {
	return &memStorage{journal: j, blocks: make(map[file.BlockId][]byte), failing: make(map[file.BlockId]error)}
}

func (s *memStorage) Read(block file.BlockId, page *file.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return s.readErr
	}
	s.journal.add("read %s", block)
	if data, ok := s.blocks[block]; ok {
		copy(page.Contents(), data)
	} else {
		clear(page.Contents())
	}
	return nil
}

func (s *memStorage) Write(block file.BlockId, page *file.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	if err, ok := s.failing[block]; ok {
		return err
	}
	s.journal.add("write %s", block)
	s.blocks[block] = append([]byte(nil), page.Contents()...)
	s.writes = append(s.writes, block)
	return nil
}

func (s *memStorage) BlockSize() int {
	return testBlockSize
}

func (s *memStorage) setReadErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

func (s *memStorage) setWriteErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

func (s *memStorage) failWritesTo(block file.BlockId, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[block] = err
}

func (s *memStorage) written() []file.BlockId {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]file.BlockId(nil), s.writes...)
}

// memLog only remembers how far it has been flushed.
type memLog struct {
	mu          sync.Mutex
	journal     *journal
	flushedUpTo int
}

func (l *memLog) Flush(lsn int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.journal.add("log %d", lsn)
	l.flushedUpTo = max(l.flushedUpTo, lsn)
	return nil
}

type testEnv struct {
	journal *journal
	storage *memStorage
	logs    *memLog
	bm      *Manager
}

var strategyNames = []string{lruStrategyName, midpointStrategyName}

func setupTest(t *testing.T, numBuffers int, strategy string, opts ...Option) *testEnv {
	t.Helper()
	s, err := NewStrategy(strategy)
	require.NoError(t, err)

	j := &journal{}
	storage := newMemStorage(j)
	logs := &memLog{journal: j}
	opts = append([]Option{
		WithStrategy(s),
		WithMaxWaitTime(200 * time.Millisecond),
		WithLogger(slog.New(slog.DiscardHandler)),
	}, opts...)

	return &testEnv{
		journal: j,
		storage: storage,
		logs:    logs,
		bm:      NewManager(storage, logs, numBuffers, opts...),
	}
}

func blk(n int) file.BlockId {
	return file.NewBlockId("testfile", n)
}

func (env *testEnv) pin(t *testing.T, n int) *Buffer {
	t.Helper()
	buff, err := env.bm.Pin(blk(n))
	require.NoError(t, err)
	return buff
}

// touch pins and immediately releases block n.
func (env *testEnv) touch(t *testing.T, n int) *Buffer {
	t.Helper()
	buff := env.pin(t, n)
	env.bm.Unpin(buff)
	return buff
}

func (env *testEnv) resident(n int) bool {
	env.bm.mu.Lock()
	defer env.bm.mu.Unlock()
	_, ok := env.bm.allocated[blk(n)]
	return ok
}

// recoverError runs fn and returns the error it panicked with.
func recoverError(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		var ok bool
		err, ok = r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
	}()
	fn()
	return nil
}
