package vm

const MemorySize = 1 << 16

// memory map regions
const (
	UserSpaceStart             Word = 0x3000
	MemoryMappedRegistersStart Word = 0xFE00
)

// MappedDevice is a device exposed through a memory address. Observe is
// called on every read of a mapped address, before the stored value at addr
// is returned, so the device can refresh the cells it owns.
type MappedDevice interface {
	Observe(mem *Memory, addr Word)
}

// Memory is the full 64K word address space. Addresses are 16 bits wide, so
// every address is valid.
type Memory struct {
	cells   [MemorySize]Word
	devices map[Word]MappedDevice
}

func NewMemory() *Memory {
	return &Memory{devices: make(map[Word]MappedDevice)}
}

// Map registers dev to observe reads of addr.
func (mem *Memory) Map(addr Word, dev MappedDevice) {
	if mem.devices == nil {
		mem.devices = make(map[Word]MappedDevice)
	}
	mem.devices[addr] = dev
}

func (mem *Memory) Read(addr Word) Word {
	if dev, ok := mem.devices[addr]; ok {
		dev.Observe(mem, addr)
	}
	return mem.cells[addr]
}

// Peek returns the stored word at addr without notifying its device.
func (mem *Memory) Peek(addr Word) Word {
	return mem.cells[addr]
}

func (mem *Memory) Write(addr, value Word) {
	mem.cells[addr] = value
}

// Dump copies n words starting at start, wrapping at the top of memory.
// Mapped devices are not observed.
func (mem *Memory) Dump(start Word, n int) []Word {
	out := make([]Word, n)
	for i := range out {
		out[i] = mem.cells[start+Word(i)]
	}
	return out
}

// Reset clears every word. Device mappings are kept.
func (mem *Memory) Reset() {
	mem.cells = [MemorySize]Word{}
}
