package vm

import "fmt"

func imm(v Word) string {
	return fmt.Sprintf("#%d", int16(v))
}

// String renders the instruction as LC-3 assembly with PC-relative offsets
// left as offsets.
func (in Instruction) String() string {
	switch in.Op {
	case OpADD, OpAND:
		if in.Imm {
			return fmt.Sprintf("%v %v, %v, %s", in.Op, in.DR, in.SR1, imm(in.Imm5))
		}
		return fmt.Sprintf("%v %v, %v, %v", in.Op, in.DR, in.SR1, in.SR2)
	case OpNOT:
		return fmt.Sprintf("NOT %v, %v", in.DR, in.SR)
	case OpBR:
		if in.NZP == 0 {
			return "NOP"
		}
		return fmt.Sprintf("BR%s %s", FlagString(in.NZP), imm(in.Offset))
	case OpJMP:
		if in.BaseR == R7 {
			return "RET"
		}
		return fmt.Sprintf("JMP %v", in.BaseR)
	case OpJSR:
		if in.Long {
			return fmt.Sprintf("JSR %s", imm(in.Offset))
		}
		return fmt.Sprintf("JSRR %v", in.BaseR)
	case OpLD, OpLDI, OpLEA:
		return fmt.Sprintf("%v %v, %s", in.Op, in.DR, imm(in.Offset))
	case OpST, OpSTI:
		return fmt.Sprintf("%v %v, %s", in.Op, in.SR, imm(in.Offset))
	case OpLDR:
		return fmt.Sprintf("LDR %v, %v, %s", in.DR, in.BaseR, imm(in.Offset))
	case OpSTR:
		return fmt.Sprintf("STR %v, %v, %s", in.SR, in.BaseR, imm(in.Offset))
	case OpTRAP:
		if name, ok := trapNames[in.Vector]; ok {
			return name
		}
		return fmt.Sprintf("TRAP x%02X", in.Vector)
	default:
		return in.Op.String()
	}
}

// Target returns the address a PC-relative instruction refers to, given the
// PC after it was fetched.
func (in Instruction) Target(pc Word) (Word, bool) {
	switch in.Op {
	case OpBR, OpLD, OpLDI, OpLEA, OpST, OpSTI:
		return pc + in.Offset, true
	case OpJSR:
		if in.Long {
			return pc + in.Offset, true
		}
	}
	return 0, false
}

// Disassemble renders the instruction fetched from addr, with the absolute
// target of PC-relative instructions as a trailing comment.
func (in Instruction) Disassemble(addr Word) string {
	text := in.String()
	if target, ok := in.Target(addr + 1); ok && !(in.Op == OpBR && in.NZP == 0) {
		text += fmt.Sprintf(" ; x%04X", target)
	}
	return text
}

// Listing renders the word at addr as "xADDR: WORD  text". Memory is read
// without triggering mapped devices.
func (m *Machine) Listing(addr Word) string {
	raw := m.Memory.Dump(addr, 1)[0]
	return fmt.Sprintf("x%04X: %04X  %s", addr, raw, m.decode(raw).Disassemble(addr))
}
