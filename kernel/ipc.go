package kernel

import (
	"context"
	"runtime"
	"sync"
)

// MaxMessageBytes is the maximum payload size for IPC messages.
const MaxMessageBytes = 1024

// Message is a fixed-size message envelope.
type Message struct {
	From Endpoint
	To   Endpoint
	Kind uint8
	Len  uint16
	Data [MaxMessageBytes]byte
}

// Payload returns the used part of Data.
func (m *Message) Payload() []byte {
	return m.Data[:m.Len]
}

const (
	MsgLog uint8 = iota + 1
	MsgNVMInfo
	MsgNVMRead
	MsgNVMWrite
	MsgNVMErase
	MsgNVMReply
)

const mailboxSlots = 8

// Mailbox is a fixed-size multi-producer, single-consumer queue. It does not
// allocate after first use.
type Mailbox struct {
	_      [0]func() // prevent accidental copying.
	mu     sync.Mutex
	head   uint32
	tail   uint32
	slots  [mailboxSlots]Message
	notify chan struct{}
}

// wake must be called with mb.mu held.
func (mb *Mailbox) wake() chan struct{} {
	if mb.notify == nil {
		mb.notify = make(chan struct{}, 1)
	}
	return mb.notify
}

// TrySend attempts to enqueue a message, returning false if the mailbox is full.
func (mb *Mailbox) TrySend(msg Message) bool {
	mb.mu.Lock()
	if mb.head-mb.tail >= mailboxSlots {
		mb.mu.Unlock()
		return false
	}
	mb.slots[mb.head%mailboxSlots] = msg
	mb.head++
	ch := mb.wake()
	mb.mu.Unlock()

	select {
	case ch <- struct{}{}:
	default:
	}
	return true
}

// Send enqueues a message, blocking until it succeeds.
func (mb *Mailbox) Send(msg Message) {
	for !mb.TrySend(msg) {
		runtime.Gosched()
	}
}

// TryRecv attempts to dequeue one message, returning false if empty.
func (mb *Mailbox) TryRecv() (Message, bool) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.tail == mb.head {
		return Message{}, false
	}
	msg := mb.slots[mb.tail%mailboxSlots]
	mb.tail++
	return msg, true
}

// Recv blocks until one message is available.
func (mb *Mailbox) Recv() Message {
	msg, _ := mb.RecvContext(context.Background())
	return msg
}

// RecvContext blocks until one message is available or ctx is done.
func (mb *Mailbox) RecvContext(ctx context.Context) (Message, error) {
	for {
		if msg, ok := mb.TryRecv(); ok {
			return msg, nil
		}
		mb.mu.Lock()
		ch := mb.wake()
		mb.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

// Len returns the number of queued messages.
func (mb *Mailbox) Len() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return int(mb.head - mb.tail)
}
