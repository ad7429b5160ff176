package storage

import (
	"context"
	"fmt"
	"math"
	"sync"

	"nvflash/drivers/nvm"
	"nvflash/kernel"
)

// Client issues requests to a Service from its own reply endpoint. Calls
// are serialized; one request is in flight at a time.
type Client struct {
	sys *kernel.System
	ep  kernel.Endpoint
	svc kernel.Endpoint

	mu     sync.Mutex
	nextID uint32
	info   *Info
	buf    [kernel.MaxMessageBytes]byte
}

// NewClient allocates a reply endpoint for talking to the service at svc.
func NewClient(sys *kernel.System, svc kernel.Endpoint) (*Client, error) {
	ep, err := sys.NewEndpoint()
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &Client{sys: sys, ep: ep, svc: svc}, nil
}

// Info returns the geometry of the served device. The result is cached.
func (c *Client) Info(ctx context.Context) (Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.infoLocked(ctx)
}

func (c *Client) infoLocked(ctx context.Context) (Info, error) {
	if c.info != nil {
		return *c.info, nil
	}
	rep, err := c.roundTrip(ctx, kernel.MsgNVMInfo, request{})
	if err != nil {
		return Info{}, err
	}
	info, err := decodeInfo(rep.data)
	if err != nil {
		return Info{}, err
	}
	c.info = &info
	return info, nil
}

// checkRange rejects requests the service would reject, before any chunk
// is sent, so a failing request never partially applies.
func (c *Client) checkRange(ctx context.Context, op string, off, n int64) error {
	info, err := c.infoLocked(ctx)
	if err != nil {
		return err
	}
	if off < 0 || n < 0 || off > info.Size || n > info.Size-off || off > math.MaxUint32 {
		return &nvm.RangeError{Op: op, Off: off, Len: n, Size: info.Size}
	}
	return nil
}

// checkAligned rejects a write or erase whose offset or length is not a
// whole number of words. The driver checks each chunk; this checks the
// request as the caller made it.
func checkAligned(op string, off, n int64) error {
	if n == 0 {
		return nil
	}
	if off%nvm.WordSize != 0 || n%nvm.WordSize != 0 {
		return &nvm.RangeError{Op: op, Off: off, Len: n, Unaligned: true}
	}
	return nil
}

// ReadAt fills p from off.
func (c *Client) ReadAt(ctx context.Context, p []byte, off int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkRange(ctx, "read", off, int64(len(p))); err != nil {
		return err
	}
	for len(p) > 0 {
		n := min(len(p), MaxChunk)
		rep, err := c.roundTrip(ctx, kernel.MsgNVMRead, request{off: uint32(off), n: uint32(n)})
		if err != nil {
			return err
		}
		if len(rep.data) != n {
			return fmt.Errorf("%w: read reply of %d bytes, want %d", ErrBadRequest, len(rep.data), n)
		}
		copy(p, rep.data)
		p = p[n:]
		off += int64(n)
	}
	return nil
}

// Write programs p at off in chunks of at most MaxChunk bytes.
func (c *Client) Write(ctx context.Context, off int64, p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkRange(ctx, "write", off, int64(len(p))); err != nil {
		return err
	}
	if err := checkAligned("write", off, int64(len(p))); err != nil {
		return err
	}
	for len(p) > 0 {
		n := min(len(p), MaxChunk)
		if _, err := c.roundTrip(ctx, kernel.MsgNVMWrite, request{off: uint32(off), n: uint32(n), data: p[:n]}); err != nil {
			return err
		}
		p = p[n:]
		off += int64(n)
	}
	return nil
}

// Erase erases n bytes at off.
func (c *Client) Erase(ctx context.Context, off, n int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkRange(ctx, "erase", off, n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if err := checkAligned("erase", off, n); err != nil {
		return err
	}
	_, err := c.roundTrip(ctx, kernel.MsgNVMErase, request{off: uint32(off), n: uint32(n)})
	return err
}

// roundTrip sends one request and waits for its reply. Replies to earlier
// requests abandoned by a cancelled context are discarded.
func (c *Client) roundTrip(ctx context.Context, kind uint8, req request) (reply, error) {
	c.nextID++
	req.id = c.nextID
	if err := c.sys.Send(c.ep, c.svc, kind, req.encode(c.buf[:])); err != nil {
		return reply{}, err
	}

	for {
		msg, err := c.sys.RecvContext(ctx, c.ep)
		if err != nil {
			return reply{}, err
		}
		if msg.Kind != kernel.MsgNVMReply {
			continue
		}
		rep, err := decodeReply(msg.Payload())
		if err != nil {
			return reply{}, err
		}
		if rep.id != req.id {
			continue
		}
		if err := rep.code.Err(); err != nil {
			return reply{}, fmt.Errorf("storage: off=%d len=%d: %w", req.off, req.n, err)
		}
		return rep, nil
	}
}
