//go:build !tinygo

package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/mattn/go-tty"
	"golang.org/x/term"

	"nvflash/drivers/nvm"
	"nvflash/internal/buildinfo"
)

var errAborted = errors.New("aborted")

// confirm asks a yes/no question on the controlling terminal.
var confirm = ttyConfirm

func ttyConfirm(prompt string) (bool, error) {
	t, err := tty.Open()
	if err != nil {
		return false, fmt.Errorf("no terminal to confirm on (use -y): %w", err)
	}
	defer t.Close()

	fmt.Fprintf(t.Output(), "%s [y/N] ", prompt)
	ans, err := t.ReadString()
	if err != nil {
		return false, err
	}
	ans = strings.ToLower(strings.TrimSpace(ans))
	return ans == "y" || ans == "yes", nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runCreate(e *env, args []string) (err error) {
	fs := newFlagSet(e, "create")
	var f imageFlags
	f.register(fs)
	force := fs.Bool("force", false, "Overwrite an existing image.")
	if err := parse(fs, args); err != nil {
		return err
	}

	if _, err := os.Stat(f.path); err == nil && f.spiPort == "" {
		if !*force {
			return fmt.Errorf("%s exists; use -force to overwrite", f.path)
		}
		if err := os.Remove(f.path); err != nil {
			return err
		}
	}

	s, err := openSession(e, &f)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.Close()) }()

	ctx := context.Background()
	info, err := s.client.Info(ctx)
	if err != nil {
		return err
	}
	if err := s.client.Erase(ctx, 0, info.Size); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "created %s: %d bytes, %d pages of %d bytes\n", f.name(), info.Size, info.PageCount, info.EraseBlockSize)
	return nil
}

func runInfo(e *env, args []string) (err error) {
	fs := newFlagSet(e, "info")
	var f imageFlags
	f.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}

	s, err := openSession(e, &f)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.Close()) }()

	ctx := context.Background()
	info, err := s.client.Info(ctx)
	if err != nil {
		return err
	}
	blank, err := blankPages(ctx, s.sys.Device(), runtime.NumCPU())
	if err != nil {
		return err
	}
	var nblank int
	for _, b := range blank {
		if b {
			nblank++
		}
	}

	fmt.Fprintf(e.stdout, "image:        %s\n", f.name())
	fmt.Fprintf(e.stdout, "base:         0x%08x\n", f.base)
	fmt.Fprintf(e.stdout, "size:         %d bytes\n", info.Size)
	fmt.Fprintf(e.stdout, "write block:  %d\n", info.WriteBlockSize)
	fmt.Fprintf(e.stdout, "erase block:  %d\n", info.EraseBlockSize)
	fmt.Fprintf(e.stdout, "erase value:  0x%02x\n", info.EraseValue)
	fmt.Fprintf(e.stdout, "pages:        %d (%d blank)\n", info.PageCount, nblank)
	return nil
}

func runRead(e *env, args []string) (err error) {
	fs := newFlagSet(e, "read")
	var f imageFlags
	f.register(fs)
	off := fs.Int64("off", 0, "Offset to read from.")
	n := fs.Int64("len", -1, "Bytes to read (default: to the end).")
	out := fs.String("o", "", "Write to file instead of stdout.")
	hexOut := fs.Bool("hex", false, "Hex dump even when stdout is not a terminal.")
	if err := parse(fs, args); err != nil {
		return err
	}

	s, err := openSession(e, &f)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.Close()) }()

	ctx := context.Background()
	info, err := s.client.Info(ctx)
	if err != nil {
		return err
	}
	if *n < 0 {
		*n = info.Size - *off
	}
	if *n < 0 || *off < 0 {
		return &nvm.RangeError{Op: "read", Off: *off, Len: *n, Size: info.Size}
	}
	buf := make([]byte, *n)
	if err := s.client.ReadAt(ctx, buf, *off); err != nil {
		return err
	}

	switch {
	case *out != "":
		return os.WriteFile(*out, buf, 0o644)
	case *hexOut || isTerminal(e.stdout):
		fmt.Fprintf(e.stdout, "offset 0x%x, %d bytes\n", *off, len(buf))
		d := hex.Dumper(e.stdout)
		if _, err := d.Write(buf); err != nil {
			return err
		}
		return d.Close()
	default:
		_, err := e.stdout.Write(buf)
		return err
	}
}

func runWrite(e *env, args []string) (err error) {
	fs := newFlagSet(e, "write")
	var f imageFlags
	f.register(fs)
	off := fs.Int64("off", 0, "Offset to write at (multiple of 4).")
	in := fs.String("in", "-", "Input file, - for stdin.")
	eraseFirst := fs.Bool("erase", false, "Erase the pages covering the range first.")
	if err := parse(fs, args); err != nil {
		return err
	}

	var data []byte
	if *in == "-" {
		data, err = io.ReadAll(e.stdin)
	} else {
		data, err = os.ReadFile(*in)
	}
	if err != nil {
		return err
	}

	s, err := openSession(e, &f)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.Close()) }()

	ctx := context.Background()
	info, err := s.client.Info(ctx)
	if err != nil {
		return err
	}
	for len(data)%nvm.WordSize != 0 {
		data = append(data, info.EraseValue)
	}

	if *eraseFirst && len(data) > 0 {
		page := info.EraseBlockSize
		start := *off / page * page
		end := (*off + int64(len(data)) + page - 1) / page * page
		if err := s.client.Erase(ctx, start, end-start); err != nil {
			return err
		}
	}
	if err := s.client.Write(ctx, *off, data); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "wrote %d bytes at 0x%x\n", len(data), *off)
	return nil
}

func runErase(e *env, args []string) (err error) {
	fs := newFlagSet(e, "erase")
	var f imageFlags
	f.register(fs)
	off := fs.Int64("off", 0, "Offset to erase from (multiple of 4).")
	n := fs.Int64("len", -1, "Bytes to erase (multiple of 4).")
	all := fs.Bool("all", false, "Erase the whole image.")
	yes := fs.Bool("y", false, "Do not ask for confirmation.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if !*all && *n < 0 {
		return fmt.Errorf("%w: -len or -all is required", errUsage)
	}

	s, err := openSession(e, &f)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.Close()) }()

	ctx := context.Background()
	if *all {
		info, err := s.client.Info(ctx)
		if err != nil {
			return err
		}
		if !*yes {
			ok, err := confirm(fmt.Sprintf("erase all %d bytes of %s?", info.Size, f.name()))
			if err != nil {
				return err
			}
			if !ok {
				return errAborted
			}
		}
		*off, *n = 0, info.Size
	}
	if err := s.client.Erase(ctx, *off, *n); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "erased %d bytes at 0x%x\n", *n, *off)
	return nil
}

func runVerify(e *env, args []string) (err error) {
	fs := newFlagSet(e, "verify")
	var f imageFlags
	f.register(fs)
	in := fs.String("in", "", "Compare against this file instead of blank-checking.")
	off := fs.Int64("off", 0, "Offset the -in file is expected at.")
	blank := fs.Bool("blank", false, "Fail unless every page is blank.")
	jobs := fs.Int("j", runtime.NumCPU(), "Pages checked concurrently.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *jobs < 1 {
		return fmt.Errorf("%w: -j must be at least 1", errUsage)
	}

	s, err := openSession(e, &f)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.Close()) }()

	ctx := context.Background()
	dev := s.sys.Device()

	if *in != "" {
		want, err := os.ReadFile(*in)
		if err != nil {
			return err
		}
		if err := compareImage(ctx, dev, *off, want, *jobs); err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "%s matches %d bytes at 0x%x\n", *in, len(want), *off)
		return nil
	}

	pages, err := blankPages(ctx, dev, *jobs)
	if err != nil {
		return err
	}
	var programmed int
	for i, b := range pages {
		if !b {
			programmed++
			fmt.Fprintf(e.stdout, "page %d: programmed\n", i)
		}
	}
	fmt.Fprintf(e.stdout, "%d of %d pages blank\n", len(pages)-programmed, len(pages))
	if *blank && programmed > 0 {
		return fmt.Errorf("%d pages not blank", programmed)
	}
	return nil
}

func runVersion(e *env, args []string) error {
	fs := newFlagSet(e, "version")
	if err := parse(fs, args); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "nvmtool %s\n", buildinfo.String())
	return nil
}
