//go:build !tinygo

package main

import (
	"bytes"
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"nvflash/drivers/nvm"
	"nvflash/hal"
)

// blankPages reports, per page, whether every byte reads as the erase value.
// Pages are read through the hal.Flash view with up to jobs readers.
func blankPages(ctx context.Context, dev *nvm.Device, jobs int) ([]bool, error) {
	var flash hal.Flash
	flash, err := dev.AsFlash()
	if err != nil {
		return nil, err
	}
	erased := dev.Parameters().EraseValue
	pageSize := int(flash.EraseBlockBytes())
	blank := make([]bool, int(flash.SizeBytes())/pageSize)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range blank {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			buf := make([]byte, pageSize)
			if _, err := flash.ReadAt(buf, uint32(i*pageSize)); err != nil {
				return fmt.Errorf("page %d: %w", i, err)
			}
			blank[i] = bytes.Count(buf, []byte{erased}) == len(buf)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blank, nil
}

// compareImage checks that want is stored at off, reporting the lowest
// mismatching offset.
func compareImage(ctx context.Context, dev *nvm.Device, off int64, want []byte, jobs int) error {
	if off < 0 || off > dev.Size() || int64(len(want)) > dev.Size()-off {
		return &nvm.RangeError{Op: "read", Off: off, Len: int64(len(want)), Size: dev.Size()}
	}
	chunk := int(dev.Config().EraseBlockSize)
	n := (len(want) + chunk - 1) / chunk
	first := make([]int64, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			lo := i * chunk
			hi := min(lo+chunk, len(want))
			got := make([]byte, hi-lo)
			if err := dev.ReadContext(ctx, off+int64(lo), got); err != nil {
				return err
			}
			first[i] = -1
			for j := range got {
				if got[j] != want[lo+j] {
					first[i] = int64(lo + j)
					break
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, m := range first {
		if m >= 0 {
			return fmt.Errorf("mismatch at 0x%x: have 0x%02x, want 0x%02x", off+m, readByte(dev, off+m), want[m])
		}
	}
	return nil
}

func readByte(dev *nvm.Device, off int64) byte {
	var b [1]byte
	_ = dev.Read(off, b[:])
	return b[0]
}
