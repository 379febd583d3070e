package buffer

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// Stats is a snapshot of the pool's counters.
type Stats struct {
	Size       int
	Available  int
	Hits       int
	References int
}

// HitRatio returns the percentage of Pin calls served by a resident buffer, rounded to two decimals. It is 0
// before the first Pin.
func (s Stats) HitRatio() float64 {
	if s.References == 0 {
		return 0
	}
	return math.Round(float64(s.Hits)/float64(s.References)*10000) / 100
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stats()
}

func (m *Manager) stats() Stats {
	return Stats{
		Size:       len(m.bufferPool),
		Available:  m.numAvailable,
		Hits:       m.hits,
		References: m.references,
	}
}

func (m *Manager) HitRatio() float64 {
	return m.Stats().HitRatio()
}

// DescribeStatus renders the assigned buffers in pool order with their pin state, followed by the order in which
// unpinned buffers would be replaced. The output depends only on the pool's state.
func (m *Manager) DescribeStatus() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sb strings.Builder
	poolBytes := humanize.Bytes(uint64(len(m.bufferPool) * m.blockSize))
	fmt.Fprintf(&sb, "Buffer pool: %d buffers (%s), strategy %s\n", len(m.bufferPool), poolBytes, m.strategy.Name())

	sb.WriteString("Allocated buffers:\n")
	for _, buff := range m.bufferPool {
		if !buff.assigned {
			continue
		}
		state := "unpinned"
		if buff.isPinned() {
			state = "pinned"
		}
		fmt.Fprintf(&sb, "Buffer %d: %s %s\n", buff.id, buff.block, state)
	}

	if r, ok := m.strategy.(interface{ ranking() []*Buffer }); ok {
		writeIDs(&sb, "Ranking:", r.ranking())
	}
	writeIDs(&sb, "Eviction order:", m.strategy.evictionOrder())

	s := m.stats()
	fmt.Fprintf(&sb, "Hit ratio: %.2f%% (%d/%d)\n", s.HitRatio(), s.Hits, s.References)
	return sb.String()
}

func writeIDs(sb *strings.Builder, label string, buffers []*Buffer) {
	sb.WriteString(label)
	for _, buff := range buffers {
		fmt.Fprintf(sb, " %d", buff.id)
	}
	sb.WriteByte('\n')
}
