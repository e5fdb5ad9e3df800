// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"

	"go.uber.org/zap"

	"github.com/ezrec/tinyvm/cpu"
	"github.com/ezrec/tinyvm/internal"
)

const (
	STEP_LIMIT = 1 << 20 // Default step budget of a single Run.
)

// Emulator state. Machine + Program.
type Emulator struct {
	*cpu.Machine              // Reference to the machine.
	Program      *cpu.Program // Reference to the currently loaded program listing.

	logger *zap.Logger
	insts  []cpu.Instruction
}

// NewEmulator creates a new emulator, with an empty program.
func NewEmulator(logger *zap.Logger, opts ...cpu.Option) (emu *Emulator) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts = append([]cpu.Option{
		cpu.WithLogger(logger.Named("cpu")),
		cpu.WithStepLimit(STEP_LIMIT),
	}, opts...)

	emu = &Emulator{
		Machine: cpu.NewMachine(opts...),
		Program: &cpu.Program{},
		logger:  logger,
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	defines := map[string]string{
		"STEP_LIMIT": fmt.Sprintf("%v", emu.Machine.StepLimit()),
	}
	return internal.IterSeq2Concat(maps.All(defines),
		emu.Machine.Defines(),
	)
}

// Assemble replaces the program with assembly source, and resets.
// The emulator defines are available to the source as equates.
func (emu *Emulator) Assemble(input io.Reader) (err error) {
	asm := &cpu.Assembler{Logger: emu.logger.Named("asm")}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err := asm.Parse(input)
	if err != nil {
		return
	}

	emu.logger.Info("assembled", zap.Int("instructions", len(prog.Lines)))
	emu.Program = prog
	emu.Reset()

	return
}

// Load replaces the program with a binary program image, and resets.
func (emu *Emulator) Load(bins []uint16) (err error) {
	prog, err := cpu.Disassemble(bins)
	if err != nil {
		return
	}

	emu.logger.Info("loaded", zap.Int("words", len(bins)), zap.Int("instructions", len(prog.Lines)))
	emu.Program = prog
	emu.Reset()

	return
}

// Reset the machine, and prepare the program for execution.
func (emu *Emulator) Reset() {
	emu.Machine.Reset()
	emu.insts = emu.Program.Instructions()
}

// lineOf returns the source line number for a program counter.
func (emu *Emulator) lineOf(pc int) int {
	line := emu.Program.Debug(pc)
	if line == nil {
		return 0
	}

	return line.LineNo
}

// LineNo returns the current line number for the executing instruction.
func (emu *Emulator) LineNo() int {
	return emu.lineOf(emu.Machine.Pc())
}

// wrap reports machine faults at their source line.
func (emu *Emulator) wrap(err error) error {
	var fault *cpu.ErrFault
	if errors.As(err, &fault) {
		return &ErrRuntime{LineNo: emu.lineOf(fault.Pc), Err: err}
	}

	return err
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	done, err = emu.Machine.Tick(emu.insts)
	err = emu.wrap(err)

	return
}

// Run the program until it halts, the step limit is reached, or
// ctx is cancelled.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	err = emu.Machine.Run(ctx, emu.insts)

	return emu.wrap(err)
}
