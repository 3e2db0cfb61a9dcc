package vm

import "fmt"

type Opcode uint8

// opcodes
const (
	OpBR Opcode = iota
	OpADD
	OpLD
	OpST
	OpJSR
	OpAND
	OpLDR
	OpSTR
	OpRTI
	OpNOT
	OpLDI
	OpSTI
	OpJMP
	OpRES
	OpLEA
	OpTRAP
)

var opcodeNames = [16]string{
	"BR", "ADD", "LD", "ST", "JSR", "AND", "LDR", "STR",
	"RTI", "NOT", "LDI", "STI", "JMP", "RES", "LEA", "TRAP",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", uint8(op))
}

// Instruction is a decoded instruction word. Only the fields used by Op are
// set. Imm5 and Offset are already sign-extended.
type Instruction struct {
	Raw    Word
	Op     Opcode
	DR     Register // destination
	SR     Register // source of NOT, ST, STI and STR
	SR1    Register
	SR2    Register
	BaseR  Register
	Imm    bool // ADD/AND immediate form
	Imm5   Word
	Offset Word // PCoffset9, PCoffset11 or offset6
	NZP    Word // BR condition mask
	Long   bool // JSR (PC-relative) rather than JSRR
	Vector uint8
}

// SignExtend widens the low bits of x, read as two's complement, to 16 bits.
func SignExtend(x Word, bits uint) Word {
	x &= Word(1)<<bits - 1
	if (x>>(bits-1))&0b1 != 0 {
		x |= 0xFFFF << bits
	}
	return x
}

func field(raw Word, shift uint) Register {
	return Register((raw >> shift) & 0b111)
}

// Decode splits an instruction word into its fields.
func Decode(raw Word) Instruction {
	in := Instruction{Raw: raw, Op: Opcode(raw >> 12)}

	switch in.Op {
	case OpADD, OpAND:
		in.DR = field(raw, 9)
		in.SR1 = field(raw, 6)
		if (raw>>5)&0b1 == 1 {
			in.Imm = true
			in.Imm5 = SignExtend(raw, 5)
		} else {
			in.SR2 = field(raw, 0)
		}
	case OpNOT:
		in.DR = field(raw, 9)
		in.SR = field(raw, 6)
	case OpBR:
		in.NZP = (raw >> 9) & 0b111
		in.Offset = SignExtend(raw, 9)
	case OpJMP:
		in.BaseR = field(raw, 6)
	case OpJSR:
		if (raw>>11)&0b1 == 1 {
			in.Long = true
			in.Offset = SignExtend(raw, 11)
		} else {
			in.BaseR = field(raw, 6)
		}
	case OpLD, OpLDI, OpLEA:
		in.DR = field(raw, 9)
		in.Offset = SignExtend(raw, 9)
	case OpST, OpSTI:
		in.SR = field(raw, 9)
		in.Offset = SignExtend(raw, 9)
	case OpLDR:
		in.DR = field(raw, 9)
		in.BaseR = field(raw, 6)
		in.Offset = SignExtend(raw, 6)
	case OpSTR:
		in.SR = field(raw, 9)
		in.BaseR = field(raw, 6)
		in.Offset = SignExtend(raw, 6)
	case OpTRAP:
		in.Vector = uint8(raw & 0xFF)
	}
	return in
}

// DecodeCompat decodes the way the reference emulator does, defects
// included: BR and ST test their 3-bit field with a logical rather than a
// bitwise and, and STR takes its base register from bits 11-9 with an
// unextended offset.
func DecodeCompat(raw Word) Instruction {
	in := Decode(raw)

	switch in.Op {
	case OpBR:
		in.NZP = 0
		if raw>>9 != 0 {
			in.NZP = FlagPos
		}
	case OpST:
		// raw>>9 still carries the opcode bits, so this is always R1
		in.SR = R0
		if raw>>9 != 0 {
			in.SR = R1
		}
	case OpSTR:
		in.BaseR = in.SR
		in.Offset = raw & 0x3F
	}
	return in
}
