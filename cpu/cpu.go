// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"slices"

	"go.uber.org/zap"
)

// State is the execution state of a Machine.
type State int

const (
	STATE_READY   = State(0) // ready
	STATE_RUNNING = State(1) // running
	STATE_HALTED  = State(2) // halted
	STATE_FAULTED = State(3) // faulted
)

var _state_names = [...]string{"ready", "running", "halted", "faulted"}

func (st State) String() string {
	if st < 0 || int(st) >= len(_state_names) {
		return fmt.Sprintf("State(%d)", int(st))
	}
	return _state_names[st]
}

// Halted returns true for the terminal states.
func (st State) Halted() bool {
	return st == STATE_HALTED || st == STATE_FAULTED
}

// Option configures a Machine.
type Option func(m *Machine)

// WithStackLimit sets the maximum stack depth.
func WithStackLimit(depth int) Option {
	return func(m *Machine) {
		m.stack.Limit = depth
	}
}

// WithStepLimit bounds the number of instructions a single Run may execute.
// Zero is unbounded.
func WithStepLimit(steps uint64) Option {
	return func(m *Machine) {
		m.stepLimit = steps
	}
}

// WithLogger sets the logger used for execution tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// Machine is the execution context of a single program run.
//
// A Machine is not safe for concurrent use.
type Machine struct {
	logger    *zap.Logger
	stepLimit uint64

	pc       int                    // Index of the next instruction.
	register [REGISTER_COUNT]uint16 // Register bank.
	stack    Stack                  // Value stack.
	state    State                  // Execution state.
	fault    *ErrFault              // Set when faulted.
	ticks    uint64                 // Instructions executed.
}

// NewMachine creates a new machine in the ready state.
func NewMachine(opts ...Option) (m *Machine) {
	m = &Machine{}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}

	return
}

// Reset the machine state back to ready.
// - Clears the registers and stack.
// - Sets the program counter to 0.
// - Zeros the tick counter.
func (m *Machine) Reset() {
	clear(m.register[:])
	m.stack.Reset()
	m.pc = 0
	m.state = STATE_READY
	m.fault = nil
	m.ticks = 0
}

// Pc returns the program counter.
func (m *Machine) Pc() int {
	return m.pc
}

// State returns the execution state.
func (m *Machine) State() State {
	return m.state
}

// Fault returns the fault that halted the machine, or nil.
func (m *Machine) Fault() *ErrFault {
	return m.fault
}

// Register returns the value of a register.
func (m *Machine) Register(reg Register) uint16 {
	return m.register[reg.index]
}

// Registers returns a copy of the register bank, indexed in bank order.
func (m *Machine) Registers() [REGISTER_COUNT]uint16 {
	return m.register
}

// Stack returns a copy of the stack, bottom first.
func (m *Machine) Stack() []uint16 {
	return slices.Clone(m.stack.Data)
}

// StackLimit returns the maximum stack depth.
func (m *Machine) StackLimit() int {
	return m.stack.limit()
}

// StepLimit returns the step budget of a single Run, or zero if unbounded.
func (m *Machine) StepLimit() uint64 {
	return m.stepLimit
}

// Defines for the machine
func (m *Machine) Defines() iter.Seq2[string, string] {
	defines := map[string]string{
		"REGISTER_COUNT": fmt.Sprintf("%v", REGISTER_COUNT),
		"STACK_LIMIT":    fmt.Sprintf("%v", m.StackLimit()),
	}
	return maps.All(defines)
}

// Ticks returns the number of instructions executed since reset.
func (m *Machine) Ticks() uint64 {
	return m.ticks
}

// String returns the current machine state as a string.
func (m *Machine) String() (text string) {
	text += fmt.Sprintf("% 5s: %04X\n", "pc", m.pc)
	text += fmt.Sprintf("% 5s: %v\n", "state", m.state)
	for reg := range Registers() {
		text += fmt.Sprintf("% 5s: %04X\n", reg, m.Register(reg))
	}
	strval := "----"
	if top, ok := m.stack.Peek(); ok {
		strval = fmt.Sprintf("%04X (depth %d)", top, m.stack.Len())
	}
	text += fmt.Sprintf("% 5s: %v\n", "stack", strval)
	if m.fault != nil {
		text += fmt.Sprintf("% 5s: %v\n", "fault", m.fault.Err)
	}

	return
}

// halt moves the machine into a terminal state.
func (m *Machine) halt(fault *ErrFault) {
	if fault != nil {
		m.state = STATE_FAULTED
		m.fault = fault
		m.logger.Info("fault",
			zap.Int("pc", m.pc),
			zap.Stringer("instruction", fault.Instruction),
			zap.Error(fault.Err))
		return
	}

	m.state = STATE_HALTED
	m.logger.Info("halt", zap.Int("pc", m.pc), zap.Uint64("ticks", m.ticks))
}

// Execute executes a single instruction at the current program counter.
//
// On success the program counter advances. On failure the machine
// faults, leaving the program counter at the faulting instruction, and
// the *ErrFault is returned.
func (m *Machine) Execute(inst Instruction) (err error) {
	if m.state.Halted() {
		return ErrHalted
	}
	m.state = STATE_RUNNING

	m.logger.Debug("execute", zap.Int("pc", m.pc), zap.Stringer("instruction", inst))

	next_pc, err := m.execute(inst)
	if err != nil {
		m.halt(&ErrFault{Pc: m.pc, Instruction: inst, Err: err})
		return m.fault
	}

	m.pc = next_pc
	m.ticks += 1

	return
}

// execute applies the effect of an instruction, returning the next
// program counter. State is untouched on failure.
func (m *Machine) execute(inst Instruction) (next_pc int, err error) {
	next_pc = m.pc + 1

	switch inst := inst.(type) {
	case Nop:
		// pass
	case Push:
		err = m.stack.Push(inst.Value)
	case PopRegister:
		var value uint16
		value, err = m.stack.Pop()
		if err != nil {
			return
		}
		m.register[inst.Dest.index] = value
	case AddStack:
		if m.stack.Len() < 2 {
			err = ErrStackUnderflow
			return
		}
		a, _ := m.stack.Pop()
		b, _ := m.stack.Pop()
		err = m.stack.Push(a + b)
	case AddRegister:
		m.register[inst.Dest.index] += m.register[inst.Src.index]
	case Mov:
		m.register[inst.Dest.index] = m.register[inst.Src.index]
	default:
		panic("unknown instruction")
	}

	return
}

// Tick fetches and executes the instruction at the program counter.
// done is set once the program counter reaches the end of the program,
// which halts the machine.
func (m *Machine) Tick(prog []Instruction) (done bool, err error) {
	if m.state.Halted() {
		err = ErrHalted
		return
	}

	if m.pc < len(prog) {
		err = m.Execute(prog[m.pc])
		if err != nil {
			return
		}
	}

	if m.pc >= len(prog) {
		m.halt(nil)
		done = true
	}

	return
}

// Run executes the program from the current program counter until the
// machine halts.
//
// Run returns nil when the end of the program is reached, or the
// *ErrFault of a failed instruction. Cancellation of ctx, or exceeding
// the step limit, stops Run without halting the machine; a later Run
// resumes from the program counter.
func (m *Machine) Run(ctx context.Context, prog []Instruction) (err error) {
	var steps uint64
	for {
		if m.stepLimit > 0 && steps >= m.stepLimit {
			return ErrStepLimit
		}
		if err = ctx.Err(); err != nil {
			return
		}

		var done bool
		done, err = m.Tick(prog)
		if err != nil || done {
			return
		}
		steps++
	}
}
