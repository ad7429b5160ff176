package kernel

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
)

var (
	// ErrNoEndpoints is returned once every mailbox has been handed out.
	ErrNoEndpoints = errors.New("kernel: no free endpoints")
	// ErrBadEndpoint is returned for sends and receives on an endpoint that was
	// never allocated.
	ErrBadEndpoint = errors.New("kernel: bad endpoint")
	// ErrPayloadTooLarge is returned for payloads over MaxMessageBytes.
	ErrPayloadTooLarge = errors.New("kernel: payload too large")
)

// System is the kernel state: endpoints, mailboxes and the device table.
type System struct {
	mbox [MaxEndpoints]Mailbox

	mu      sync.Mutex
	nextEP  Endpoint
	devices []*device
	byName  map[string]*device
}

// NewSystem creates a kernel instance with the static endpoints allocated.
func NewSystem() *System {
	return &System{
		nextEP: numStaticEndpoints,
		byName: make(map[string]*device),
	}
}

// NewEndpoint allocates a mailbox for a dynamic task, such as a client
// waiting for replies.
func (s *System) NewEndpoint() (Endpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(s.nextEP) >= MaxEndpoints {
		return 0, ErrNoEndpoints
	}
	ep := s.nextEP
	s.nextEP++
	return ep, nil
}

func (s *System) mailbox(ep Endpoint) (*Mailbox, error) {
	s.mu.Lock()
	n := s.nextEP
	s.mu.Unlock()
	if ep >= n {
		return nil, fmt.Errorf("%w: %s", ErrBadEndpoint, ep)
	}
	return &s.mbox[ep], nil
}

func newMessage(from, to Endpoint, kind uint8, payload []byte) (Message, error) {
	var msg Message
	if len(payload) > MaxMessageBytes {
		return msg, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	msg.From = from
	msg.To = to
	msg.Kind = kind
	msg.Len = uint16(len(payload))
	copy(msg.Data[:], payload)
	return msg, nil
}

// Send copies the payload into a fixed-size message and enqueues it,
// blocking while the destination mailbox is full.
func (s *System) Send(from, to Endpoint, kind uint8, payload []byte) error {
	mb, err := s.mailbox(to)
	if err != nil {
		return err
	}
	msg, err := newMessage(from, to, kind, payload)
	if err != nil {
		return err
	}
	mb.Send(msg)
	return nil
}

// TrySend is Send without blocking. ok is false if the mailbox is full.
func (s *System) TrySend(from, to Endpoint, kind uint8, payload []byte) (ok bool, err error) {
	mb, err := s.mailbox(to)
	if err != nil {
		return false, err
	}
	msg, err := newMessage(from, to, kind, payload)
	if err != nil {
		return false, err
	}
	return mb.TrySend(msg), nil
}

// Recv blocks until a message is available for the endpoint.
func (s *System) Recv(to Endpoint) (Message, error) {
	mb, err := s.mailbox(to)
	if err != nil {
		return Message{}, err
	}
	return mb.Recv(), nil
}

// TryRecv dequeues a message for the endpoint if one is waiting.
func (s *System) TryRecv(to Endpoint) (msg Message, ok bool, err error) {
	mb, err := s.mailbox(to)
	if err != nil {
		return Message{}, false, err
	}
	msg, ok = mb.TryRecv()
	return msg, ok, nil
}

// RecvContext blocks until a message is available for the endpoint or ctx
// is done.
func (s *System) RecvContext(ctx context.Context, to Endpoint) (Message, error) {
	mb, err := s.mailbox(to)
	if err != nil {
		return Message{}, err
	}
	return mb.RecvContext(ctx)
}

// Yield yields execution to let other tasks run.
func (s *System) Yield() {
	runtime.Gosched()
}
