package events

import (
	"errors"
	"sync"
)

var ErrBufferFull = errors.New("event buffer is full")

type message struct {
	Kind    string
	Subject string
	Data    []byte
	prev    *message
}

// buffer is a FIFO of pending messages. A max of 0 means unbounded.
type buffer struct {
	lock sync.Mutex
	head *message
	tail *message
	size int
	max  int
}

func newBuffer(max int) *buffer {
	return &buffer{max: max}
}

func (b *buffer) PushBack(msg *message) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.max > 0 && b.size >= b.max {
		return ErrBufferFull
	}

	if b.head == nil {
		b.head = msg
		b.tail = msg
	} else {
		b.tail.prev = msg
		b.tail = msg
	}
	b.size++

	return nil
}

func (b *buffer) Pop() *message {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.head == nil {
		return nil
	}
	tmp := b.head
	if b.head.prev != nil {
		b.head = b.head.prev
	} else {
		b.head = nil
		b.tail = nil
	}
	tmp.prev = nil
	b.size--
	return tmp
}

func (b *buffer) Size() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.size
}
