// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"iter"
)

// Line represents a line of assembled code with its source location.
type Line struct {
	LineNo      int         // Source line number, 0 if disassembled.
	Ip          int         // Program counter of the instruction.
	Words       []string    // Source words, after macro expansion.
	Instruction Instruction // Assembled instruction.
}

// Program is an ordered sequence of instructions.
type Program struct {
	Lines []Line
}

// Instructions returns the instruction sequence executed by a Machine.
func (prog *Program) Instructions() (insts []Instruction) {
	insts = make([]Instruction, 0, len(prog.Lines))
	for _, line := range prog.Lines {
		insts = append(insts, line.Instruction)
	}

	return
}

// Debug returns the line at a program counter, or nil if there is none.
func (prog *Program) Debug(pc int) *Line {
	for n, line := range prog.Lines {
		if line.Ip == pc {
			return &prog.Lines[n]
		}
	}

	return nil
}

// Codes iterates over the encoded instruction words of each line.
func (prog *Program) Codes() iter.Seq2[int, []uint16] {
	return func(yield func(pc int, words []uint16) bool) {
		for _, line := range prog.Lines {
			if !yield(line.Ip, Encode(line.Instruction)) {
				return
			}
		}
	}
}

// Binary returns the encoded program image.
func (prog *Program) Binary() (bins []uint16) {
	for _, words := range prog.Codes() {
		bins = append(bins, words...)
	}

	return
}

// Disassemble decodes a program image.
func Disassemble(bins []uint16) (prog *Program, err error) {
	prog = &Program{}

	for offset := 0; offset < len(bins); {
		var inst Instruction
		var size int
		inst, size, err = Decode(bins[offset:])
		if err != nil {
			prog = nil
			return
		}
		prog.Lines = append(prog.Lines, Line{
			Ip:          len(prog.Lines),
			Words:       []string{inst.String()},
			Instruction: inst,
		})
		offset += size
	}

	return
}
