//go:build !tinygo

// Command nvmtool creates and edits host MRAM images through the same driver
// and storage service the firmware runs.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
)

var errUsage = errors.New("usage")

type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	usage string
	run   func(e *env, args []string) error
}

var commands = map[string]command{
	"create":  {"create [-force] [image flags]", runCreate},
	"info":    {"info [image flags]", runInfo},
	"read":    {"read [-off N] [-len N] [-o file] [-hex] [image flags]", runRead},
	"write":   {"write [-off N] [-in file|-] [-erase] [image flags]", runWrite},
	"erase":   {"erase (-off N -len N | -all [-y]) [image flags]", runErase},
	"verify":  {"verify [-in file -off N] [-blank] [-j N] [image flags]", runVerify},
	"mkfs":    {"mkfs -src dir [image flags]", runMkfs},
	"version": {"version", runVersion},
}

func main() {
	os.Exit(run(os.Args[1:], &env{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}))
}

func run(args []string, e *env) int {
	if len(args) == 0 {
		usage(e.stderr)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(e.stderr, "error: unknown command %q\n", args[0])
		usage(e.stderr)
		return 2
	}

	err := cmd.run(e, args[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(e.stderr, "error: %v\nusage: nvmtool %s\n", err, cmd.usage)
		return 2
	default:
		fmt.Fprintln(e.stderr, "error:", err)
		return 1
	}
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "usage: nvmtool <command> [flags]")
	fmt.Fprintln(w, "commands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

func newFlagSet(e *env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("%w: unexpected argument %q", errUsage, fs.Arg(0))
	}
	return nil
}
