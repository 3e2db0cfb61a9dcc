package debugger

import (
	"fmt"
	"os"
	"slices"

	"github.com/aryanA101a/lulu/vm"
	"gopkg.in/yaml.v3"
)

type snapshot struct {
	Registers   map[string]string `yaml:"registers"`
	Flags       string            `yaml:"flags"`
	Steps       uint64            `yaml:"steps"`
	Running     bool              `yaml:"running"`
	Breakpoints []string          `yaml:"breakpoints,omitempty"`
	Memory      []segment         `yaml:"memory,omitempty"`
}

// segment is a run of non-zero memory.
type segment struct {
	Origin string   `yaml:"origin"`
	Words  []string `yaml:"words,flow"`
}

func hex(w vm.Word) string { return fmt.Sprintf("x%04X", w) }

func (d *Debugger) snapshot() snapshot {
	s := snapshot{
		Registers: make(map[string]string),
		Flags:     vm.FlagString(d.m.Reg.Get(vm.COND)),
		Steps:     d.m.Steps(),
		Running:   d.m.Running(),
	}
	for r := vm.R0; r <= vm.COND; r++ {
		s.Registers[r.String()] = hex(d.m.Reg.Get(r))
	}
	for _, addr := range d.breakpoints() {
		s.Breakpoints = append(s.Breakpoints, hex(addr))
	}

	words := d.m.Memory.Dump(0, vm.MemorySize)
	var cur *segment
	for i, w := range words {
		if w == 0 {
			cur = nil
			continue
		}
		if cur == nil {
			s.Memory = append(s.Memory, segment{Origin: hex(vm.Word(i))})
			cur = &s.Memory[len(s.Memory)-1]
		}
		cur.Words = append(cur.Words, fmt.Sprintf("%04X", w))
	}
	return s
}

// dumpFile writes the machine state to path as YAML.
func (d *Debugger) dumpFile(path string) error {
	data, err := yaml.Marshal(d.snapshot())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("dump: %w", err)
	}
	return nil
}

func (d *Debugger) breakpoints() []vm.Word {
	addrs := make([]vm.Word, 0, len(d.breaks))
	for addr := range d.breaks {
		addrs = append(addrs, addr)
	}
	slices.Sort(addrs)
	return addrs
}
