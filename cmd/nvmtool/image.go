//go:build !tinygo

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"periph.io/x/conn/v3/physic"

	"nvflash/app"
	"nvflash/drivers/nvm"
	"nvflash/hal"
	"nvflash/services/storage"
)

const defaultImagePath = "nvflash.img"

type imageFlags struct {
	path       string
	base       uint64
	size       int64
	writeBlock int64
	eraseBlock int64
	verbose    bool
	spiPort    string
	spiCS      string
}

func (f *imageFlags) register(fs *flag.FlagSet) {
	path := os.Getenv("NVFLASH_PATH")
	if path == "" {
		path = defaultImagePath
	}
	fs.StringVar(&f.path, "image", path, "Image file path (default from NVFLASH_PATH).")
	fs.Uint64Var(&f.base, "base", uint64(nvm.Apollo4P.Base), "Address the image is mapped at.")
	fs.Int64Var(&f.size, "size", nvm.Apollo4P.Size, "Image size (bytes).")
	fs.Int64Var(&f.writeBlock, "write-block", nvm.Apollo4P.WriteBlockSize, "Write block size (bytes).")
	fs.Int64Var(&f.eraseBlock, "erase-block", nvm.Apollo4P.EraseBlockSize, "Erase block (page) size (bytes).")
	fs.BoolVar(&f.verbose, "v", false, "Log driver and service lines to stderr.")
	fs.StringVar(&f.spiPort, "spi", "", "Operate an external SPI MRAM on this periph.io port instead of the image file.")
	fs.StringVar(&f.spiCS, "spi-cs", "", "GPIO used as chip select with -spi (default: the port's own).")
}

// name is the image path, or the SPI port with -spi.
func (f *imageFlags) name() string {
	if f.spiPort != "" {
		return "spi:" + f.spiPort
	}
	return f.path
}

type array interface {
	hal.Array
	io.Closer
}

func (f *imageFlags) open() (array, error) {
	if f.spiPort != "" {
		return hal.OpenPeriphMRAM(f.spiPort, f.spiCS, uintptr(f.base), f.size, 10*physic.MegaHertz)
	}
	return hal.OpenHostMRAM(f.path, uintptr(f.base), f.size)
}

// session is a booted app.System over an image file with its storage
// service running.
type session struct {
	mem    array
	sys    *app.System
	client *storage.Client
	cancel context.CancelFunc
	wait   func() error
}

type writerLogger struct {
	w io.Writer
}

func (l writerLogger) WriteLineString(s string) { fmt.Fprintln(l.w, s) }

func (l writerLogger) WriteLineBytes(b []byte) { fmt.Fprintln(l.w, string(b)) }

func openSession(e *env, f *imageFlags) (*session, error) {
	mem, err := f.open()
	if err != nil {
		return nil, err
	}

	var out io.Writer = io.Discard
	if f.verbose {
		out = e.stderr
	}
	h := hal.NewHostBlocks(writerLogger{w: out}, mem, f.writeBlock, f.eraseBlock)
	sys, err := app.New(h, app.Config{})
	if err != nil {
		_ = mem.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	wait := sys.Start(ctx)
	client, err := sys.Client()
	if err != nil {
		cancel()
		_ = wait()
		_ = mem.Close()
		return nil, err
	}
	return &session{mem: mem, sys: sys, client: client, cancel: cancel, wait: wait}, nil
}

func (s *session) Close() error {
	s.cancel()
	err := s.wait()
	if cerr := s.mem.Close(); err == nil {
		err = cerr
	}
	return err
}
