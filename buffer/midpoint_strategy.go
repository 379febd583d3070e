package buffer

import "container/list"

const (
	midpointStrategyName = "midpoint"
	// Lists up to this length take new entries at the head.
	midpointHeadLimit = 3
	// New entries go in at len*midpointNum/midpointDen from the head.
	midpointNum = 5
	midpointDen = 8
)

// MidpointStrategy is a scan resistant replacement strategy. Assigned buffers, pinned or not, are kept in one list
// ranked from most protected (head) to least protected (tail). A block entering the pool is inserted five eighths
// of the way down the list instead of at the head, and only a hit moves a buffer to the head. A burst of pages read
// once therefore competes with itself near the tail and cannot push out pages that have been hit.
type MidpointStrategy struct {
	freeList []*Buffer
	lruList  *list.List
	elements map[*Buffer]*list.Element
}

func NewMidpointStrategy() *MidpointStrategy {
	return &MidpointStrategy{}
}

func (s *MidpointStrategy) Name() string {
	return midpointStrategyName
}

func (s *MidpointStrategy) initialize(buffers []*Buffer) {
	s.freeList = append([]*Buffer(nil), buffers...)
	s.lruList = list.New()
	s.elements = make(map[*Buffer]*list.Element, len(buffers))
}

// chooseUnpinnedBuffer prefers never-used buffers. Once there are none it scans from the tail and detaches the
// first unpinned buffer; pinned buffers are skipped and keep their place.
func (s *MidpointStrategy) chooseUnpinnedBuffer() *Buffer {
	if len(s.freeList) > 0 {
		buff := s.freeList[0]
		s.freeList = s.freeList[1:]
		return buff
	}
	for e := s.lruList.Back(); e != nil; e = e.Prev() {
		buff := e.Value.(*Buffer)
		if !buff.isPinned() {
			s.lruList.Remove(e)
			delete(s.elements, buff)
			return buff
		}
	}
	return nil
}

// bufferAssigned inserts the buffer at the midpoint. A reused buffer does not inherit its old position.
func (s *MidpointStrategy) bufferAssigned(buff *Buffer) {
	n := s.lruList.Len()
	if n <= midpointHeadLimit {
		s.elements[buff] = s.lruList.PushFront(buff)
		return
	}
	mark := s.lruList.Front()
	for i := 0; i < n*midpointNum/midpointDen; i++ {
		mark = mark.Next()
	}
	s.elements[buff] = s.lruList.InsertBefore(buff, mark)
}

// restore returns a buffer that still holds its old block to the head, behind every other candidate, and an empty
// one to the free list.
func (s *MidpointStrategy) restore(buff *Buffer) {
	if buff.assigned {
		s.elements[buff] = s.lruList.PushFront(buff)
		return
	}
	s.freeList = append([]*Buffer{buff}, s.freeList...)
}

// pinBuffer moves a hit buffer to the head.
func (s *MidpointStrategy) pinBuffer(buff *Buffer) {
	if elem, ok := s.elements[buff]; ok {
		s.lruList.MoveToFront(elem)
	}
}

func (s *MidpointStrategy) unpinBuffer(*Buffer) {}

func (s *MidpointStrategy) evictionOrder() []*Buffer {
	var order []*Buffer
	for e := s.lruList.Back(); e != nil; e = e.Prev() {
		if buff := e.Value.(*Buffer); !buff.isPinned() {
			order = append(order, buff)
		}
	}
	return order
}

// ranking lists every assigned buffer from head to tail.
func (s *MidpointStrategy) ranking() []*Buffer {
	ranked := make([]*Buffer, 0, s.lruList.Len())
	for e := s.lruList.Front(); e != nil; e = e.Next() {
		ranked = append(ranked, e.Value.(*Buffer))
	}
	return ranked
}
