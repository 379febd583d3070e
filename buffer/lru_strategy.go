package buffer

import (
	"container/list"
	"fmt"
)

const lruStrategyName = "lru"

// LRUStrategy replaces the buffer that was released longest ago. Recency is tracked by unpin time only: a hit
// takes the buffer out of the queue without reordering anything else, so a buffer pinned and released again a
// moment ago can be replaced before one that has sat idle since an earlier release. Never-used buffers start in
// the queue in pool order.
type LRUStrategy struct {
	unpinned *list.List
	elements map[*Buffer]*list.Element
}

func NewLRUStrategy() *LRUStrategy {
	return &LRUStrategy{}
}

func (s *LRUStrategy) Name() string {
	return lruStrategyName
}

func (s *LRUStrategy) initialize(buffers []*Buffer) {
	s.unpinned = list.New()
	s.elements = make(map[*Buffer]*list.Element, len(buffers))
	for _, buff := range buffers {
		s.elements[buff] = s.unpinned.PushBack(buff)
	}
}

// chooseUnpinnedBuffer takes the head of the queue.
func (s *LRUStrategy) chooseUnpinnedBuffer() *Buffer {
	front := s.unpinned.Front()
	if front == nil {
		return nil
	}
	buff := s.unpinned.Remove(front).(*Buffer)
	delete(s.elements, buff)
	return buff
}

// bufferAssigned does nothing: the buffer is about to be pinned and stays out of the queue until released.
func (s *LRUStrategy) bufferAssigned(*Buffer) {}

// restore requeues a buffer whose flush or read failed. One still holding its old block goes to the tail so the
// other candidates are tried before it again; an emptied one goes back to the head.
func (s *LRUStrategy) restore(buff *Buffer) {
	if buff.assigned {
		s.elements[buff] = s.unpinned.PushBack(buff)
		return
	}
	s.elements[buff] = s.unpinned.PushFront(buff)
}

func (s *LRUStrategy) pinBuffer(buff *Buffer) {
	if elem, ok := s.elements[buff]; ok {
		s.unpinned.Remove(elem)
		delete(s.elements, buff)
	}
}

func (s *LRUStrategy) unpinBuffer(buff *Buffer) {
	if _, ok := s.elements[buff]; ok {
		panic(fmt.Sprintf("[buffer] [lru] buffer %d released twice", buff.id))
	}
	s.elements[buff] = s.unpinned.PushBack(buff)
}

func (s *LRUStrategy) evictionOrder() []*Buffer {
	order := make([]*Buffer, 0, s.unpinned.Len())
	for e := s.unpinned.Front(); e != nil; e = e.Next() {
		if buff := e.Value.(*Buffer); buff.assigned {
			order = append(order, buff)
		}
	}
	return order
}
