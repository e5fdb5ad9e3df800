// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"errors"
	"fmt"
)

// Opcode is the tag of an instruction, and the low byte of its
// encoded instruction word.
type Opcode uint8

const (
	OP_NOP    = Opcode(0x00) // nop
	OP_PUSH8  = Opcode(0x01) // push
	OP_POP    = Opcode(0x02) // pop
	OP_ADDS   = Opcode(0x03) // add
	OP_ADDR   = Opcode(0x04) // add
	OP_MOV    = Opcode(0x05) // mov
	OP_PUSH16 = Opcode(0x06) // push
)

var _opcode_names = map[Opcode]string{
	OP_NOP:    "nop",
	OP_PUSH8:  "push",
	OP_POP:    "pop",
	OP_ADDS:   "add",
	OP_ADDR:   "add",
	OP_MOV:    "mov",
	OP_PUSH16: "push",
}

// String returns the assembly mnemonic of the opcode.
func (op Opcode) String() string {
	name, ok := _opcode_names[op]
	if !ok {
		return fmt.Sprintf("Opcode(0x%02x)", uint8(op))
	}
	return name
}

// Instruction is a single decoded machine instruction.
//
// The set of instructions is closed: Nop, Push, PopRegister, AddStack,
// AddRegister and Mov.
type Instruction interface {
	fmt.Stringer
	// Opcode returns the opcode of the shortest encoding.
	Opcode() Opcode
	isInstruction()
}

// Nop does nothing.
type Nop struct{}

// Push pushes Value onto the stack.
type Push struct {
	Value uint16
}

// PopRegister pops the top of the stack into Dest.
type PopRegister struct {
	Dest Register
}

// AddStack pops two values, and pushes their sum.
type AddStack struct{}

// AddRegister adds Src into Dest.
type AddRegister struct {
	Dest Register
	Src  Register
}

// Mov copies Src into Dest.
type Mov struct {
	Dest Register
	Src  Register
}

func (Nop) isInstruction()         {}
func (Push) isInstruction()        {}
func (PopRegister) isInstruction() {}
func (AddStack) isInstruction()    {}
func (AddRegister) isInstruction() {}
func (Mov) isInstruction()         {}

func (Nop) Opcode() Opcode { return OP_NOP }

func (inst Push) Opcode() Opcode {
	if inst.Value > 0xff {
		return OP_PUSH16
	}
	return OP_PUSH8
}

func (PopRegister) Opcode() Opcode { return OP_POP }
func (AddStack) Opcode() Opcode    { return OP_ADDS }
func (AddRegister) Opcode() Opcode { return OP_ADDR }
func (Mov) Opcode() Opcode         { return OP_MOV }

func (Nop) String() string { return "nop" }

func (inst Push) String() string {
	return fmt.Sprintf("push %#x", inst.Value)
}

func (inst PopRegister) String() string {
	return fmt.Sprintf("pop %v", inst.Dest)
}

func (AddStack) String() string { return "add" }

func (inst AddRegister) String() string {
	return fmt.Sprintf("add %v %v", inst.Dest, inst.Src)
}

func (inst Mov) String() string {
	return fmt.Sprintf("mov %v %v", inst.Dest, inst.Src)
}

// Encode returns the instruction words for an instruction.
//
// Word layout, LSB first:
//   - bits 0-7: opcode
//   - bits 8-15: push8 value
//   - bits 8-11: pop, add and mov destination register
//   - bits 12-15: add and mov source register
//
// push16 is followed by a single immediate word holding the value.
func Encode(inst Instruction) (words []uint16) {
	op := uint16(inst.Opcode())

	switch inst := inst.(type) {
	case Nop, AddStack:
		words = []uint16{op}
	case Push:
		if inst.Opcode() == OP_PUSH16 {
			words = []uint16{op, inst.Value}
		} else {
			words = []uint16{op | (inst.Value << 8)}
		}
	case PopRegister:
		words = []uint16{op | (uint16(inst.Dest.index) << 8)}
	case AddRegister:
		words = []uint16{op | (uint16(inst.Dest.index) << 8) | (uint16(inst.Src.index) << 12)}
	case Mov:
		words = []uint16{op | (uint16(inst.Dest.index) << 8) | (uint16(inst.Src.index) << 12)}
	default:
		panic("unknown instruction")
	}

	return
}

// Decode decodes the instruction at the start of words, returning the
// number of words consumed.
func Decode(words []uint16) (inst Instruction, size int, err error) {
	if len(words) == 0 {
		err = ErrOpcodeDecode
		return
	}

	word := words[0]
	defer func() {
		if err != nil {
			err = errors.Join(ErrWord(word), err)
		}
	}()

	size = 1
	op := Opcode(word & 0xff)

	switch op {
	case OP_NOP, OP_ADDS, OP_PUSH16:
		if (word >> 8) != 0 {
			err = ErrOpcodeDecode
			return
		}
	case OP_POP:
		if (word >> 12) != 0 {
			err = ErrOpcodeDecode
			return
		}
	}

	switch op {
	case OP_NOP:
		inst = Nop{}
	case OP_ADDS:
		inst = AddStack{}
	case OP_PUSH8:
		inst = Push{Value: word >> 8}
	case OP_PUSH16:
		if len(words) < 2 {
			err = ErrOpcodeImm
			return
		}
		size = 2
		inst = Push{Value: words[1]}
	case OP_POP:
		var dst Register
		dst, err = registerDecode((word >> 8) & 0xf)
		if err != nil {
			return
		}
		inst = PopRegister{Dest: dst}
	case OP_ADDR, OP_MOV:
		var dst, src Register
		dst, err = registerDecode((word >> 8) & 0xf)
		if err != nil {
			return
		}
		src, err = registerDecode((word >> 12) & 0xf)
		if err != nil {
			return
		}
		if op == OP_ADDR {
			inst = AddRegister{Dest: dst, Src: src}
		} else {
			inst = Mov{Dest: dst, Src: src}
		}
	default:
		err = ErrOpcodeDecode
		return
	}

	return
}
