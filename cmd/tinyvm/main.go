// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/ezrec/tinyvm/cpu"
	"github.com/ezrec/tinyvm/emulator"
)

var (
	ErrArgsUnknown   = errors.New(f("unknown arguments"))
	ErrArgsExclusive = errors.New(f("-c and -b are exclusive"))
)

func main() {
	err := run(os.Args[1:], os.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}
}

// run executes the command line, writing the final machine state to
// stdout. The error of a faulted program is returned after the state
// is written.
func run(args []string, stdout io.Writer) (err error) {
	var compile string
	var binary string
	var output string
	var steps uint64
	var depth int
	var verbose bool

	flags := flag.NewFlagSet("tinyvm", flag.ContinueOnError)
	flags.StringVar(&compile, "c", "", ".asm file to assemble")
	flags.StringVar(&binary, "b", "", ".bin program image to load")
	flags.StringVar(&output, "o", "", "Save program image to file, do not execute")
	flags.Uint64Var(&steps, "n", emulator.STEP_LIMIT, "Step limit, 0 for unlimited")
	flags.IntVar(&depth, "stack", cpu.STACK_LIMIT, "Maximum stack depth")
	flags.BoolVar(&verbose, "v", false, "Verbose mode")

	err = flags.Parse(args)
	if err != nil {
		return
	}

	if flags.NArg() != 0 {
		err = fmt.Errorf("%w: %v", ErrArgsUnknown, flags.Args())
		return
	}

	if len(compile) != 0 && len(binary) != 0 {
		err = ErrArgsExclusive
		return
	}

	logger, err := newLogger(verbose)
	if err != nil {
		return
	}
	defer logger.Sync()

	emu := emulator.NewEmulator(logger,
		cpu.WithStackLimit(depth),
		cpu.WithStepLimit(steps),
	)

	switch {
	case len(compile) != 0:
		err = assemble(emu, compile)
	case len(binary) != 0:
		err = load(emu, binary)
	}
	if err != nil {
		return
	}

	if len(output) != 0 {
		err = save(emu, output)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err = emu.Run(ctx)
	fmt.Fprint(stdout, emu.Machine.String())
	for n, value := range emu.Stack() {
		fmt.Fprintf(stdout, "% 5d: %04X\n", n, value)
	}

	return
}

// assemble loads the program from an assembly source file.
func assemble(emu *emulator.Emulator, path string) (err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	err = emu.Assemble(inf)
	if err != nil {
		err = fmt.Errorf("%v: %w", path, err)
	}

	return
}

// load loads the program from a binary image file.
func load(emu *emulator.Emulator, path string) (err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	bins, err := ReadImage(inf)
	if err == nil {
		err = emu.Load(bins)
	}
	if err != nil {
		err = fmt.Errorf("%v: %w", path, err)
	}

	return
}

// save writes the program as a binary image file.
func save(emu *emulator.Emulator, path string) (err error) {
	ouf, err := os.Create(path)
	if err != nil {
		return
	}

	err = WriteImage(ouf, emu.Program.Binary())
	if err == nil {
		err = ouf.Close()
	} else {
		ouf.Close()
	}
	if err != nil {
		err = fmt.Errorf("%v: %w", path, err)
	}

	return
}

// newLogger creates the command logger. Verbose mode traces every
// instruction.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return config.Build()
}
