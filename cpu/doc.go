// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package cpu implements the tinyvm machine, its instruction set and assembler.
//
// The machine consists of a program counter (PC), four 16-bit general-purpose
// registers (r0-r3) and a bounded value stack. Values are unsigned 16-bit
// words; all arithmetic wraps modulo 2^16.
//
// Instructions are a closed set of types implementing Instruction. They
// can be encoded to, and decoded from, 16-bit instruction words.
//
// The assembler provides a small assembly language for the instruction set,
// supporting macros, equates, and compile-time expression evaluation.
package cpu
