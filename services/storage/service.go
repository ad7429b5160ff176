// Package storage exposes an nvm.Device to other tasks over kernel IPC.
package storage

import (
	"context"
	"fmt"
	"sync/atomic"

	"nvflash/drivers/nvm"
	"nvflash/hal"
	"nvflash/kernel"
)

// Stats counts requests handled by a Service.
type Stats struct {
	Requests uint64
	Failures uint64
}

// Service answers MsgNVM* requests on its endpoint.
type Service struct {
	sys *kernel.System
	ep  kernel.Endpoint
	dev *nvm.Device
	log hal.Logger

	requests atomic.Uint64
	failures atomic.Uint64

	reply [kernel.MaxMessageBytes]byte
	data  [MaxChunk]byte
}

// NewService serves dev on ep. log may be nil.
func NewService(sys *kernel.System, ep kernel.Endpoint, dev *nvm.Device, log hal.Logger) *Service {
	return &Service{sys: sys, ep: ep, dev: dev, log: log}
}

// Endpoint returns the endpoint requests should be sent to.
func (s *Service) Endpoint() kernel.Endpoint { return s.ep }

// Stats returns request counters.
func (s *Service) Stats() Stats {
	return Stats{Requests: s.requests.Load(), Failures: s.failures.Load()}
}

// Serve handles requests until ctx is done.
func (s *Service) Serve(ctx context.Context) error {
	for {
		if err := s.Step(ctx); err != nil {
			return err
		}
	}
}

// Step waits for one request and answers it. It returns an error only if
// ctx ends first or the reply cannot be delivered. Step is not safe for
// concurrent use.
func (s *Service) Step(ctx context.Context) error {
	msg, err := s.sys.RecvContext(ctx, s.ep)
	if err != nil {
		return err
	}
	return s.handle(ctx, &msg)
}

func (s *Service) handle(ctx context.Context, msg *kernel.Message) error {
	s.requests.Add(1)

	req, err := decodeRequest(msg.Payload())
	var data []byte
	if err == nil {
		data, err = s.do(ctx, msg.Kind, req)
	}
	code := CodeOf(err)
	if err != nil {
		s.failures.Add(1)
		if s.log != nil {
			s.log.WriteLineString(fmt.Sprintf("storage: req %d from %s: %v", req.id, msg.From, err))
		}
	}

	out := reply{id: req.id, code: code, data: data}.encode(s.reply[:])
	return s.sys.Send(s.ep, msg.From, kernel.MsgNVMReply, out)
}

func (s *Service) do(ctx context.Context, kind uint8, req request) ([]byte, error) {
	switch kind {
	case kernel.MsgNVMInfo:
		return s.info().encode(s.data[:]), nil

	case kernel.MsgNVMRead:
		if req.n > MaxChunk {
			return nil, fmt.Errorf("%w: read of %d bytes", ErrBadRequest, req.n)
		}
		buf := s.data[:req.n]
		if err := s.dev.ReadContext(ctx, int64(req.off), buf); err != nil {
			return nil, err
		}
		return buf, nil

	case kernel.MsgNVMWrite:
		if int(req.n) != len(req.data) {
			return nil, fmt.Errorf("%w: write len %d with %d data bytes", ErrBadRequest, req.n, len(req.data))
		}
		return nil, s.dev.WriteContext(ctx, int64(req.off), req.data)

	case kernel.MsgNVMErase:
		return nil, s.dev.EraseContext(ctx, int64(req.off), int64(req.n))

	default:
		return nil, fmt.Errorf("%w: message kind %d", ErrBadRequest, kind)
	}
}

func (s *Service) info() Info {
	p := s.dev.Parameters()
	cfg := s.dev.Config()
	return Info{
		Size:           s.dev.Size(),
		WriteBlockSize: p.WriteBlockSize,
		EraseBlockSize: cfg.EraseBlockSize,
		EraseValue:     p.EraseValue,
		PageCount:      s.dev.PageCount(),
	}
}
