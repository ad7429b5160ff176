package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"nvflash/drivers/nvm"
	"nvflash/kernel"
)

// Code is the result carried by a reply.
type Code uint8

const (
	CodeOK Code = iota
	CodeInvalidRange
	CodeProgramFailed
	CodeEraseFailed
	CodeReadFailed
	CodeBadRequest
)

// ErrBadRequest is returned for malformed or unknown requests.
var ErrBadRequest = errors.New("storage: bad request")

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeInvalidRange:
		return "invalid range"
	case CodeProgramFailed:
		return "program failed"
	case CodeEraseFailed:
		return "erase failed"
	case CodeReadFailed:
		return "read failed"
	case CodeBadRequest:
		return "bad request"
	default:
		return fmt.Sprintf("code(%d)", uint8(c))
	}
}

// Err maps c back to the driver sentinel it was produced from.
func (c Code) Err() error {
	switch c {
	case CodeOK:
		return nil
	case CodeInvalidRange:
		return nvm.ErrInvalidRange
	case CodeProgramFailed:
		return nvm.ErrProgramFailed
	case CodeEraseFailed:
		return nvm.ErrEraseFailed
	case CodeReadFailed:
		return nvm.ErrReadFailed
	default:
		return ErrBadRequest
	}
}

// CodeOf classifies a driver error.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, nvm.ErrInvalidRange):
		return CodeInvalidRange
	case errors.Is(err, nvm.ErrProgramFailed):
		return CodeProgramFailed
	case errors.Is(err, nvm.ErrEraseFailed):
		return CodeEraseFailed
	case errors.Is(err, nvm.ErrReadFailed):
		return CodeReadFailed
	default:
		return CodeBadRequest
	}
}

// Wire layout, little endian:
//
//	request: id u32 | off u32 | len u32 | data (writes only)
//	reply:   id u32 | code u8 | data (reads and info only)
//	info:    size u32 | write block u32 | erase block u32 | erase value u8 | pages u32
const (
	requestHeader = 12
	replyHeader   = 5
	infoBytes     = 17

	// MaxChunk is the largest read or write carried by one message. It is a
	// multiple of nvm.WordSize so chunking keeps aligned writes aligned.
	MaxChunk = (kernel.MaxMessageBytes - requestHeader) &^ (nvm.WordSize - 1)
)

type request struct {
	id   uint32
	off  uint32
	n    uint32
	data []byte
}

func (r request) encode(buf []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf[:0], r.id)
	buf = binary.LittleEndian.AppendUint32(buf, r.off)
	buf = binary.LittleEndian.AppendUint32(buf, r.n)
	return append(buf, r.data...)
}

func decodeRequest(p []byte) (request, error) {
	if len(p) < requestHeader {
		return request{}, fmt.Errorf("%w: %d-byte request", ErrBadRequest, len(p))
	}
	return request{
		id:   binary.LittleEndian.Uint32(p),
		off:  binary.LittleEndian.Uint32(p[4:]),
		n:    binary.LittleEndian.Uint32(p[8:]),
		data: p[requestHeader:],
	}, nil
}

type reply struct {
	id   uint32
	code Code
	data []byte
}

func (r reply) encode(buf []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf[:0], r.id)
	buf = append(buf, byte(r.code))
	return append(buf, r.data...)
}

func decodeReply(p []byte) (reply, error) {
	if len(p) < replyHeader {
		return reply{}, fmt.Errorf("%w: %d-byte reply", ErrBadRequest, len(p))
	}
	return reply{
		id:   binary.LittleEndian.Uint32(p),
		code: Code(p[4]),
		data: p[replyHeader:],
	}, nil
}

// Info is the geometry a Service reports.
type Info struct {
	Size           int64
	WriteBlockSize int64
	EraseBlockSize int64
	EraseValue     byte
	PageCount      int64
}

func (i Info) encode(buf []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf[:0], uint32(i.Size))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(i.WriteBlockSize))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(i.EraseBlockSize))
	buf = append(buf, i.EraseValue)
	return binary.LittleEndian.AppendUint32(buf, uint32(i.PageCount))
}

func decodeInfo(p []byte) (Info, error) {
	if len(p) < infoBytes {
		return Info{}, fmt.Errorf("%w: %d-byte info", ErrBadRequest, len(p))
	}
	return Info{
		Size:           int64(binary.LittleEndian.Uint32(p)),
		WriteBlockSize: int64(binary.LittleEndian.Uint32(p[4:])),
		EraseBlockSize: int64(binary.LittleEndian.Uint32(p[8:])),
		EraseValue:     p[12],
		PageCount:      int64(binary.LittleEndian.Uint32(p[13:])),
	}, nil
}
