package vm

// executors holds one function per opcode. TRAP is dispatched by Step since
// trap routines do I/O and can fail.
var executors = [16]func(*Machine, Instruction){
	OpBR:  (*Machine).br,
	OpADD: (*Machine).add,
	OpLD:  (*Machine).ld,
	OpST:  (*Machine).st,
	OpJSR: (*Machine).jsr,
	OpAND: (*Machine).and,
	OpLDR: (*Machine).ldr,
	OpSTR: (*Machine).str,
	OpRTI: (*Machine).reserved,
	OpNOT: (*Machine).not,
	OpLDI: (*Machine).ldi,
	OpSTI: (*Machine).sti,
	OpJMP: (*Machine).jmp,
	OpRES: (*Machine).reserved,
	OpLEA: (*Machine).lea,
}

func (m *Machine) operand(in Instruction) Word {
	if in.Imm {
		return in.Imm5
	}
	return m.Reg[in.SR2]
}

func (m *Machine) add(in Instruction) {
	m.Reg[in.DR] = m.Reg[in.SR1] + m.operand(in)
	m.Reg.setCC(in.DR)
}

func (m *Machine) and(in Instruction) {
	m.Reg[in.DR] = m.Reg[in.SR1] & m.operand(in)
	m.Reg.setCC(in.DR)
}

func (m *Machine) not(in Instruction) {
	m.Reg[in.DR] = ^m.Reg[in.SR]
	m.Reg.setCC(in.DR)
}

func (m *Machine) br(in Instruction) {
	if in.NZP&m.Reg[COND] != 0 {
		m.Reg[PC] += in.Offset
	}
}

func (m *Machine) jmp(in Instruction) {
	m.Reg[PC] = m.Reg[in.BaseR]
}

func (m *Machine) jsr(in Instruction) {
	target := m.Reg[in.BaseR]
	m.Reg[R7] = m.Reg[PC]
	if in.Long {
		m.Reg[PC] += in.Offset
	} else {
		m.Reg[PC] = target
	}
}

func (m *Machine) ld(in Instruction) {
	m.Reg[in.DR] = m.Memory.Read(m.Reg[PC] + in.Offset)
	m.Reg.setCC(in.DR)
}

func (m *Machine) ldi(in Instruction) {
	m.Reg[in.DR] = m.Memory.Read(m.Memory.Read(m.Reg[PC] + in.Offset))
	m.Reg.setCC(in.DR)
}

func (m *Machine) ldr(in Instruction) {
	m.Reg[in.DR] = m.Memory.Read(m.Reg[in.BaseR] + in.Offset)
	m.Reg.setCC(in.DR)
}

func (m *Machine) lea(in Instruction) {
	m.Reg[in.DR] = m.Reg[PC] + in.Offset
	m.Reg.setCC(in.DR)
}

func (m *Machine) st(in Instruction) {
	m.Memory.Write(m.Reg[PC]+in.Offset, m.Reg[in.SR])
}

func (m *Machine) sti(in Instruction) {
	m.Memory.Write(m.Memory.Read(m.Reg[PC]+in.Offset), m.Reg[in.SR])
}

func (m *Machine) str(in Instruction) {
	m.Memory.Write(m.Reg[in.BaseR]+in.Offset, m.Reg[in.SR])
}

// RTI and the reserved opcode do nothing.
func (m *Machine) reserved(Instruction) {}
