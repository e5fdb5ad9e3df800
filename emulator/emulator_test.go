package emulator

import (
	"context"
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ezrec/tinyvm/cpu"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(nil)

	assert.NotNil(emu.Machine)
	assert.NotNil(emu.Program)
	assert.Equal(cpu.STATE_READY, emu.State())
	assert.Equal(0, emu.LineNo())
}

func doRunSingle(emu *Emulator, program []string, t *testing.T) {
	assert := assert.New(t)

	err := emu.Assemble(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	for n, line := range emu.Program.Lines {
		assert.Equal(line.LineNo, emu.LineNo())
		assert.Equal(n, emu.Pc())
		here := program[line.LineNo-1]
		done, err := emu.Tick()
		if err != nil {
			t.Log(emu.Machine.String())
			t.Fatalf("%v", err)
		}
		assert.Equal(n == len(emu.Program.Lines)-1, done, here)
	}

	assert.Equal(cpu.STATE_HALTED, emu.State())
}

func TestEmulatorRegisters(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(zaptest.NewLogger(t))
	program := []string{
		"push 0x10",
		"pop r0",
		"push 0x20",
		"pop r1",
		"push 0x30",
		"push 0x40",
		"pop r3",
		"pop r2",
		"push 0x1234",
	}

	doRunSingle(emu, program, t)

	assert.Equal([cpu.REGISTER_COUNT]uint16{0x10, 0x20, 0x30, 0x40}, emu.Registers())
	assert.Equal([]uint16{0x1234}, emu.Stack())
}

func TestEmulatorArith(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(nil)
	program := []string{
		"push 2",
		"push 6",
		"add",
		"pop r0",    // r0 = 8
		"mov r1 r0", // r1 = 8
		"add r1 r0", // r1 = 16
		"push -1",
		"pop r2",    // r2 = 0xffff
		"add r2 r1", // r2 = 15
		"mov r3 r2",
		"add r3 r3", // r3 = 30
	}

	doRunSingle(emu, program, t)

	assert.Equal([cpu.REGISTER_COUNT]uint16{8, 16, 15, 30}, emu.Registers())
	assert.Empty(emu.Stack())
}

func TestEmulatorMacro(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(nil)
	program := []string{
		".macro SETADD rn a b",
		"push a",
		"push b",
		"add",
		"pop rn",
		".endm",
		"SETADD r0 8 8",
		".equ CONST_10 0x10",
		"SETADD r1 CONST_10 CONST_10",
		"SETADD r2 $(CONST_10 + CONST_10) 0x10",
		"SETADD r3 $(STACK_LIMIT - 0x100) 0x40",
	}

	err := emu.Assemble(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	assert.NoError(emu.Run(context.Background()))

	assert.Equal([cpu.REGISTER_COUNT]uint16{0x10, 0x20, 0x30, 0x40}, emu.Registers())
}

func TestEmulatorDefines(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(nil, cpu.WithStackLimit(8))
	defines := maps.Collect(emu.Defines())

	assert.Equal("8", defines["STACK_LIMIT"])
	assert.Equal("4", defines["REGISTER_COUNT"])
	assert.Equal("1048576", defines["STEP_LIMIT"])

	err := emu.Assemble(strings.NewReader("push STACK_LIMIT\npush REGISTER_COUNT\n"))
	assert.NoError(err)
	assert.NoError(emu.Run(context.Background()))
	assert.Equal([]uint16{8, 4}, emu.Stack())

	// The configured step budget replaces the default.
	emu = NewEmulator(nil, cpu.WithStepLimit(100))
	assert.Equal(uint64(100), emu.StepLimit())
	defines = maps.Collect(emu.Defines())
	assert.Equal("100", defines["STEP_LIMIT"])

	err = emu.Assemble(strings.NewReader("push STEP_LIMIT\n"))
	assert.NoError(err)
	assert.NoError(emu.Run(context.Background()))
	assert.Equal([]uint16{100}, emu.Stack())
}

func TestEmulatorAssembleLogger(t *testing.T) {
	assert := assert.New(t)

	core, logs := observer.New(zap.DebugLevel)
	emu := NewEmulator(zap.New(core))

	err := emu.Assemble(strings.NewReader("push 1\npop r0\n"))
	assert.NoError(err)

	lines := logs.FilterLoggerName("asm").FilterMessage("line").All()
	if assert.Len(lines, 2) {
		assert.Equal("pop r0", lines[1].ContextMap()["text"])
	}
	assert.Equal(1, logs.FilterMessage("assembled").Len())
}

func TestEmulatorFault(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(zaptest.NewLogger(t))
	program := []string{
		"; drain the stack",
		"push 1",
		"pop r0",
		"",
		"pop r1",
		"nop",
	}

	err := emu.Assemble(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	err = emu.Run(context.Background())
	assert.ErrorIs(err, cpu.ErrStackUnderflow)

	var re *ErrRuntime
	assert.True(errors.As(err, &re))
	assert.Equal(5, re.LineNo)

	var fault *cpu.ErrFault
	assert.True(errors.As(err, &fault))
	assert.Equal(2, fault.Pc)
	assert.Equal(2, emu.Pc())
	assert.Equal(5, emu.LineNo())
	assert.Equal(cpu.STATE_FAULTED, emu.State())

	// Terminal until reset.
	_, err = emu.Tick()
	assert.ErrorIs(err, cpu.ErrHalted)

	emu.Reset()
	done, err := emu.Tick()
	assert.NoError(err)
	assert.False(done)
	assert.Equal(1, emu.Pc())
}

func TestEmulatorOverflow(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(nil, cpu.WithStackLimit(2))
	err := emu.Assemble(strings.NewReader("push 1\npush 2\npush 3\n"))
	assert.NoError(err)

	err = emu.Run(context.Background())
	assert.ErrorIs(err, cpu.ErrStackOverflow)
	var re *ErrRuntime
	assert.True(errors.As(err, &re))
	assert.Equal(3, re.LineNo)
	assert.Equal([]uint16{1, 2}, emu.Stack())
}

func TestEmulatorStepLimit(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(nil, cpu.WithStepLimit(1))
	err := emu.Assemble(strings.NewReader("push 1\npush 2\n"))
	assert.NoError(err)

	err = emu.Run(context.Background())
	assert.ErrorIs(err, cpu.ErrStepLimit)
	var re *ErrRuntime
	assert.False(errors.As(err, &re))
	assert.Equal(cpu.STATE_RUNNING, emu.State())

	assert.NoError(emu.Run(context.Background()))
	assert.Equal(cpu.STATE_HALTED, emu.State())
}

func TestEmulatorLoad(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(nil)
	err := emu.Load([]uint16{0x0501, 0x0006, 0x0100, 0x0003, 0x0202})
	assert.NoError(err)
	assert.NoError(emu.Run(context.Background()))

	assert.Equal(uint16(0x105), emu.Register(cpu.R2))
	assert.Equal(0, emu.LineNo())

	err = emu.Load([]uint16{0x0009})
	assert.ErrorIs(err, cpu.ErrOpcodeDecode)
}

func TestEmulatorAssembleError(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(nil)
	err := emu.Assemble(strings.NewReader("push 1\npop r9\n"))

	var se *cpu.ErrSyntax
	assert.True(errors.As(err, &se))
	assert.Equal(2, se.LineNo)
	assert.Empty(emu.Program.Lines)
}

func TestErrRuntime(t *testing.T) {
	assert := assert.New(t)

	err := &ErrRuntime{LineNo: 7, Err: cpu.ErrStackOverflow}
	assert.Equal("line 7 stack overflow", err.Error())
	assert.ErrorIs(err, cpu.ErrStackOverflow)
}
