package vm

import (
	"fmt"
	"strings"
)

// Word is a 16-bit LC-3 machine word.
type Word uint16

// Register selects a slot in the register file.
type Register uint8

// general purpose registers, then the program counter and condition flags
const (
	R0 Register = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	PC
	COND
	registerCount
)

// condition flags
const (
	FlagPos Word = 1 << 0
	FlagZro Word = 1 << 1
	FlagNeg Word = 1 << 2
)

var registerNames = [registerCount]string{"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7", "PC", "COND"}

func (r Register) String() string {
	if r < registerCount {
		return registerNames[r]
	}
	return fmt.Sprintf("Register(%d)", uint8(r))
}

// ParseRegister accepts register names in any case.
func ParseRegister(name string) (Register, error) {
	for r, n := range registerNames {
		if strings.EqualFold(n, name) {
			return Register(r), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrRegister, name)
}

// Registers is the register file: R0..R7, PC and COND.
type Registers [registerCount]Word

func (regs *Registers) Get(r Register) Word {
	return regs[r]
}

func (regs *Registers) Set(r Register, value Word) {
	regs[r] = value
}

// setCC sets COND from the sign of register r.
func (regs *Registers) setCC(r Register) {
	regs[COND] = condOf(regs[r])
}

func condOf(value Word) Word {
	switch {
	case value == 0:
		return FlagZro
	case value>>15 != 0:
		return FlagNeg
	default:
		return FlagPos
	}
}

// FlagString renders a condition mask as any of "n", "z", "p".
func FlagString(mask Word) string {
	var sb strings.Builder
	if mask&FlagNeg != 0 {
		sb.WriteByte('n')
	}
	if mask&FlagZro != 0 {
		sb.WriteByte('z')
	}
	if mask&FlagPos != 0 {
		sb.WriteByte('p')
	}
	return sb.String()
}
