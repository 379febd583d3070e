package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBlockSize = 400

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "db")
	mgr, err := NewManager(dir, testBlockSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr, dir
}

func TestFileManager(t *testing.T) {
	t.Run("AppendAndRead", func(t *testing.T) {
		mgr, _ := newTestManager(t)
		assert.True(t, mgr.IsNew())

		block, err := mgr.Append("test.db")
		require.NoError(t, err)
		assert.Equal(t, NewBlockId("test.db", 0), block)

		page := NewPage(testBlockSize)
		require.NoError(t, page.SetString(0, "Hello, Database!"))
		require.NoError(t, mgr.Write(block, page))

		readPage := NewPage(testBlockSize)
		require.NoError(t, mgr.Read(block, readPage))
		got, err := readPage.GetString(0)
		require.NoError(t, err)
		assert.Equal(t, "Hello, Database!", got)
	})

	t.Run("MultipleBlocks", func(t *testing.T) {
		mgr, _ := newTestManager(t)

		blocks := make([]BlockId, 5)
		for i := range blocks {
			block, err := mgr.Append("multiblock.db")
			require.NoError(t, err)
			assert.Equal(t, i, block.Number())
			blocks[i] = block
		}

		for i, block := range blocks {
			page := NewPage(testBlockSize)
			require.NoError(t, page.SetString(0, fmt.Sprintf("Block %d data", i)))
			require.NoError(t, mgr.Write(block, page))
		}

		for i, block := range blocks {
			page := NewPage(testBlockSize)
			require.NoError(t, mgr.Read(block, page))
			got, err := page.GetString(0)
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("Block %d data", i), got)
		}

		length, err := mgr.Length("multiblock.db")
		require.NoError(t, err)
		assert.Equal(t, len(blocks), length)
	})

	t.Run("ReadPastEndIsZeroed", func(t *testing.T) {
		mgr, _ := newTestManager(t)

		page := NewPage(testBlockSize)
		page.SetInt(0, 99)
		require.NoError(t, mgr.Read(NewBlockId("empty.db", 3), page))
		assert.Equal(t, make([]byte, testBlockSize), page.Contents())
	})

	t.Run("InvalidBlock", func(t *testing.T) {
		mgr, _ := newTestManager(t)

		page := NewPage(testBlockSize)
		assert.ErrorIs(t, mgr.Read(NewBlockId("x.db", -1), page), ErrNegativeBlock)
		assert.ErrorIs(t, mgr.Write(NewBlockId("", 0), page), ErrEmptyFilename)
	})

	t.Run("TempFileCleanup", func(t *testing.T) {
		mgr, dir := newTestManager(t)
		require.NoError(t, mgr.Close())

		tempFile := filepath.Join(dir, "temp_test.db")
		require.NoError(t, os.WriteFile(tempFile, []byte("test data"), 0o666))

		reopened, err := NewManager(dir, testBlockSize)
		require.NoError(t, err)
		defer reopened.Close()
		assert.False(t, reopened.IsNew())

		_, err = os.Stat(tempFile)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("Counters", func(t *testing.T) {
		mgr, _ := newTestManager(t)

		block, err := mgr.Append("count.db")
		require.NoError(t, err)
		page := NewPage(testBlockSize)
		require.NoError(t, mgr.Read(block, page))
		require.NoError(t, mgr.Write(block, page))

		assert.Equal(t, 1, mgr.BlocksRead())
		assert.Equal(t, 2, mgr.BlocksWritten())
	})

	t.Run("Closed", func(t *testing.T) {
		mgr, _ := newTestManager(t)
		require.NoError(t, mgr.Close())

		err := mgr.Read(NewBlockId("x.db", 0), NewPage(testBlockSize))
		assert.ErrorIs(t, err, ErrClosed)
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		mgr, _ := newTestManager(t)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()

				block, err := mgr.Append("concurrent.db")
				if !assert.NoError(t, err) {
					return
				}
				for j := 0; j < 5; j++ {
					data := fmt.Sprintf("Goroutine %d Operation %d", id, j)
					page := NewPage(testBlockSize)
					assert.NoError(t, page.SetString(0, data))
					assert.NoError(t, mgr.Write(block, page))

					readPage := NewPage(testBlockSize)
					assert.NoError(t, mgr.Read(block, readPage))
					got, err := readPage.GetString(0)
					assert.NoError(t, err)
					assert.Equal(t, data, got)
				}
			}(i)
		}
		wg.Wait()

		length, err := mgr.Length("concurrent.db")
		require.NoError(t, err)
		assert.Equal(t, 10, length)
	})
}
