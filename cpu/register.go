// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"iter"
)

const (
	REGISTER_COUNT = 4 // Number of general-purpose registers.
)

// Register identifies one of the general-purpose registers.
// The zero value is R0.
type Register struct {
	index uint8
}

var (
	R0 = Register{0} // r0
	R1 = Register{1} // r1
	R2 = Register{2} // r2
	R3 = Register{3} // r3
)

var _register_names = [REGISTER_COUNT]string{"r0", "r1", "r2", "r3"}

// Registers iterates over all registers in bank order.
func Registers() iter.Seq[Register] {
	return func(yield func(reg Register) bool) {
		for n := range REGISTER_COUNT {
			if !yield(Register{uint8(n)}) {
				return
			}
		}
	}
}

// RegisterOf returns the register for an assembly name.
func RegisterOf(name string) (reg Register, ok bool) {
	for reg = range Registers() {
		if reg.String() == name {
			ok = true
			return
		}
	}

	return Register{}, false
}

// String returns the assembly name of the register.
func (reg Register) String() string {
	return _register_names[reg.index]
}

// registerDecode decodes a 4-bit register field.
func registerDecode(field uint16) (reg Register, err error) {
	if field >= REGISTER_COUNT {
		err = ErrRegisterInvalid
		return
	}

	reg = Register{uint8(field)}
	return
}
