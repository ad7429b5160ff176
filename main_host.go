//go:build !tinygo

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"nvflash/app"
	"nvflash/hal"
)

// The host build boots the firmware against an image file and serves the
// storage endpoint until interrupted.
func main() {
	var cfg app.Config
	flag.BoolVar(&cfg.MaskIRQOnErase, "mask-irq-on-erase", false, "Mask interrupts around erases as well as writes.")
	flag.BoolVar(&cfg.SerializeReads, "serialize-reads", false, "Make reads wait for in-flight writes and erases.")
	flag.Parse()

	sys, err := app.New(hal.New(), cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := sys.Start(ctx)(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
