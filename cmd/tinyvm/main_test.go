package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/tinyvm/cpu"
	"github.com/ezrec/tinyvm/emulator"
)

// writeSource writes an assembly source file into a test directory.
func writeSource(t *testing.T, text string) (path string) {
	path = filepath.Join(t.TempDir(), "prog.asm")
	err := os.WriteFile(path, []byte(text), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	return
}

func TestRunArgs(t *testing.T) {
	assert := assert.New(t)

	stdout := &bytes.Buffer{}

	err := run([]string{"-c", "a.asm", "-b", "a.bin"}, stdout)
	assert.ErrorIs(err, ErrArgsExclusive)

	err = run([]string{"extra"}, stdout)
	assert.ErrorIs(err, ErrArgsUnknown)

	err = run([]string{"-stack"}, stdout)
	assert.Error(err)

	err = run([]string{"-c", filepath.Join(t.TempDir(), "missing.asm")}, stdout)
	assert.ErrorIs(err, os.ErrNotExist)

	assert.Empty(stdout.String())
}

func TestRunAssemble(t *testing.T) {
	assert := assert.New(t)

	source := writeSource(t, "push 5\npush 10\nadd\npop r0\npush 0x1234\n")

	stdout := &bytes.Buffer{}
	err := run([]string{"-c", source}, stdout)
	assert.NoError(err)

	text := stdout.String()
	assert.Contains(text, "state: halted\n")
	assert.Contains(text, "   r0: 000F\n")
	assert.Contains(text, "    0: 1234\n")
}

func TestRunSaveLoad(t *testing.T) {
	assert := assert.New(t)

	source := writeSource(t, "push 5\npush 10\nadd\npop r0\n")
	image := filepath.Join(t.TempDir(), "prog.bin")

	// Saving does not execute.
	stdout := &bytes.Buffer{}
	err := run([]string{"-c", source, "-o", image}, stdout)
	assert.NoError(err)
	assert.Empty(stdout.String())

	inf, err := os.Open(image)
	if err != nil {
		t.Fatal(err)
	}
	defer inf.Close()
	bins, err := ReadImage(inf)
	assert.NoError(err)
	assert.Equal([]uint16{0x0501, 0x0a01, 0x0003, 0x0002}, bins)

	err = run([]string{"-b", image}, stdout)
	assert.NoError(err)
	assert.Contains(stdout.String(), "   r0: 000F\n")
}

func TestRunFault(t *testing.T) {
	assert := assert.New(t)

	source := writeSource(t, "push 1\npop r0\npop r1\n")

	stdout := &bytes.Buffer{}
	err := run([]string{"-c", source}, stdout)
	assert.ErrorIs(err, cpu.ErrStackUnderflow)

	var re *emulator.ErrRuntime
	if assert.True(errors.As(err, &re)) {
		assert.Equal(3, re.LineNo)
	}

	// The state is still reported.
	assert.Contains(stdout.String(), "state: faulted\n")
	assert.Contains(stdout.String(), "   r0: 0001\n")
}

func TestRunLimits(t *testing.T) {
	assert := assert.New(t)

	source := writeSource(t, "push 1\npush 2\npush 3\n")

	err := run([]string{"-n", "2", "-c", source}, &bytes.Buffer{})
	assert.ErrorIs(err, cpu.ErrStepLimit)

	err = run([]string{"-stack", "2", "-c", source}, &bytes.Buffer{})
	assert.ErrorIs(err, cpu.ErrStackOverflow)

	err = run([]string{"-stack", "3", "-n", "3", "-c", source}, &bytes.Buffer{})
	assert.NoError(err)
}

func TestRunSyntax(t *testing.T) {
	assert := assert.New(t)

	source := writeSource(t, ".macro loop\nloop\n.endm\nloop\n")

	err := run([]string{"-c", source}, &bytes.Buffer{})
	assert.ErrorIs(err, cpu.ErrMacroRecursion)

	var se *cpu.ErrSyntax
	if assert.True(errors.As(err, &se)) {
		assert.Equal(4, se.LineNo)
	}
}
