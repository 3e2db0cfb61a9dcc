// Package debugger is an interactive monitor for a vm.Machine: single
// stepping, breakpoints and inspection of registers and memory.
package debugger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/aryanA101a/lulu/vm"
	"github.com/hashicorp/go-hclog"
	"github.com/k0kubun/pp/v3"
)

const (
	defaultListing = 10
	defaultDump    = 64
	wordsPerLine   = 8
)

// RawMode switches the console the machine reads from in and out of raw
// mode around execution.
type RawMode interface {
	EnableRawMode() error
	Restore() error
}

type Options struct {
	Out    io.Writer
	Raw    RawMode
	Reload func() error // reloads program images for "reset"
	Logger hclog.Logger
}

type Debugger struct {
	m      *vm.Machine
	out    io.Writer
	raw    RawMode
	reload func() error
	log    hclog.Logger
	pp     *pp.PrettyPrinter

	breaks map[vm.Word]bool
	quit   bool
}

func New(m *vm.Machine, opts Options) *Debugger {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	printer := pp.New()
	printer.SetColoringEnabled(false)
	printer.SetOutput(opts.Out)

	return &Debugger{
		m:      m,
		out:    opts.Out,
		raw:    opts.Raw,
		reload: opts.Reload,
		log:    opts.Logger,
		pp:     printer,
		breaks: make(map[vm.Word]bool),
	}
}

// Quit reports whether the quit command has run.
func (d *Debugger) Quit() bool { return d.quit }

type command struct {
	name  string
	alias string
	args  string
	help  string
	min   int
	max   int
	run   func(d *Debugger, ctx context.Context, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"step", "s", "[n]", "execute n instructions (default 1)", 0, 1, (*Debugger).step},
		{"continue", "c", "", "run until a breakpoint, HALT or Ctrl-C", 0, 0, (*Debugger).cont},
		{"break", "b", "<addr>", "set a breakpoint", 1, 1, (*Debugger).setBreak},
		{"delete", "d", "<addr>", "remove a breakpoint", 1, 1, (*Debugger).deleteBreak},
		{"breaks", "", "", "list breakpoints", 0, 0, (*Debugger).listBreaks},
		{"regs", "r", "", "show registers", 0, 0, (*Debugger).regs},
		{"mem", "m", "<addr> [count]", "show memory words", 1, 2, (*Debugger).mem},
		{"disasm", "l", "[addr] [count]", "disassemble (default at PC)", 0, 2, (*Debugger).disasm},
		{"decode", "", "<addr>", "show the decoded instruction at addr", 1, 1, (*Debugger).decode},
		{"set", "", "<reg> <value>", "set a register", 2, 2, (*Debugger).set},
		{"poke", "", "<addr> <value>", "write a memory word", 2, 2, (*Debugger).poke},
		{"reset", "", "", "reload images and reset registers", 0, 0, (*Debugger).reset},
		{"dump", "", "<file>", "write machine state as YAML", 1, 1, (*Debugger).dump},
		{"help", "h", "", "list commands", 0, 0, (*Debugger).help},
		{"quit", "q", "", "leave the debugger", 0, 0, (*Debugger).exit},
	}
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name || (c.alias != "" && c.alias == name) {
			return c, true
		}
	}
	return command{}, false
}

// Execute runs one command line. Blank lines do nothing.
func (d *Debugger) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	c, ok := lookup(fields[0])
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownCommand, fields[0])
	}
	args := fields[1:]
	if len(args) < c.min || len(args) > c.max {
		return fmt.Errorf("%w: %s %s", ErrUsage, c.name, c.args)
	}
	return c.run(d, ctx, args)
}

func (d *Debugger) printf(format string, args ...any) {
	fmt.Fprintf(d.out, format, args...)
}

// where prints the next instruction.
func (d *Debugger) where() {
	if !d.m.Running() {
		d.printf("halted after %d steps\n", d.m.Steps())
		return
	}
	d.printf("%s\n", d.m.Listing(d.m.Reg.Get(vm.PC)))
}

// withRawMode runs fn with the console in raw mode, if there is one.
func (d *Debugger) withRawMode(fn func() error) error {
	if d.raw == nil {
		return fn()
	}
	if err := d.raw.EnableRawMode(); err != nil {
		return err
	}
	err := fn()
	if rerr := d.raw.Restore(); err == nil {
		err = rerr
	}
	return err
}

func (d *Debugger) count(args []string, i, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: count %q", ErrUsage, args[i])
	}
	return n, nil
}

func (d *Debugger) step(ctx context.Context, args []string) error {
	n, err := d.count(args, 0, 1)
	if err != nil {
		return err
	}
	err = d.withRawMode(func() error {
		for i := 0; i < n && d.m.Running(); i++ {
			if err := d.m.Step(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	d.where()
	return nil
}

// cont runs until a breakpoint, HALT, an error or an interrupt. The
// instruction at PC always executes, so continuing from a breakpoint moves on.
func (d *Debugger) cont(ctx context.Context, _ []string) error {
	if !d.m.Running() {
		d.where()
		return nil
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	err := d.withRawMode(func() error {
		for first := true; d.m.Running(); first = false {
			pc := d.m.Reg.Get(vm.PC)
			if !first && d.breaks[pc] {
				d.log.Debug("breakpoint", "pc", hex(pc))
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := d.m.Step(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	switch {
	case errors.Is(err, context.Canceled):
		d.printf("\ninterrupted\n")
	case err != nil:
		return err
	}
	if d.m.Running() && d.breaks[d.m.Reg.Get(vm.PC)] {
		d.printf("breakpoint ")
	}
	d.where()
	return nil
}

func (d *Debugger) setBreak(_ context.Context, args []string) error {
	addr, err := d.eval(args[0])
	if err != nil {
		return err
	}
	d.breaks[addr] = true
	d.printf("breakpoint at %s\n", hex(addr))
	return nil
}

func (d *Debugger) deleteBreak(_ context.Context, args []string) error {
	addr, err := d.eval(args[0])
	if err != nil {
		return err
	}
	if !d.breaks[addr] {
		return fmt.Errorf("no breakpoint at %s", hex(addr))
	}
	delete(d.breaks, addr)
	return nil
}

func (d *Debugger) listBreaks(context.Context, []string) error {
	for _, addr := range d.breakpoints() {
		d.printf("%s\n", d.m.Listing(addr))
	}
	return nil
}

func (d *Debugger) regs(context.Context, []string) error {
	for r := vm.R0; r <= vm.R7; r++ {
		sep := "  "
		if r%4 == 3 {
			sep = "\n"
		}
		d.printf("%v %s%s", r, hex(d.m.Reg.Get(r)), sep)
	}
	d.printf("PC %s  COND %s  steps %d\n",
		hex(d.m.Reg.Get(vm.PC)), vm.FlagString(d.m.Reg.Get(vm.COND)), d.m.Steps())
	return nil
}

func (d *Debugger) mem(_ context.Context, args []string) error {
	addr, err := d.eval(args[0])
	if err != nil {
		return err
	}
	n, err := d.count(args, 1, defaultDump)
	if err != nil {
		return err
	}
	words := d.m.Memory.Dump(addr, n)
	for i := 0; i < len(words); i += wordsPerLine {
		line := words[i:min(i+wordsPerLine, len(words))]
		cells := make([]string, len(line))
		for j, w := range line {
			cells[j] = fmt.Sprintf("%04X", w)
		}
		d.printf("%s: %s\n", hex(addr+vm.Word(i)), strings.Join(cells, " "))
	}
	return nil
}

func (d *Debugger) disasm(_ context.Context, args []string) error {
	addr := d.m.Reg.Get(vm.PC)
	if len(args) > 0 {
		var err error
		if addr, err = d.eval(args[0]); err != nil {
			return err
		}
	}
	n, err := d.count(args, 1, defaultListing)
	if err != nil {
		return err
	}
	pc := d.m.Reg.Get(vm.PC)
	for i := 0; i < n; i++ {
		a := addr + vm.Word(i)
		mark := ' '
		switch {
		case a == pc:
			mark = '>'
		case d.breaks[a]:
			mark = '*'
		}
		d.printf("%c %s\n", mark, d.m.Listing(a))
	}
	return nil
}

func (d *Debugger) decode(_ context.Context, args []string) error {
	addr, err := d.eval(args[0])
	if err != nil {
		return err
	}
	_, err = d.pp.Println(d.m.Decode(d.m.Memory.Dump(addr, 1)[0]))
	return err
}

func (d *Debugger) set(_ context.Context, args []string) error {
	r, err := vm.ParseRegister(args[0])
	if err != nil {
		return err
	}
	v, err := d.eval(args[1])
	if err != nil {
		return err
	}
	d.m.Reg.Set(r, v)
	return nil
}

func (d *Debugger) poke(_ context.Context, args []string) error {
	addr, err := d.eval(args[0])
	if err != nil {
		return err
	}
	v, err := d.eval(args[1])
	if err != nil {
		return err
	}
	d.m.Memory.Write(addr, v)
	return nil
}

func (d *Debugger) reset(context.Context, []string) error {
	if d.reload != nil {
		if err := d.reload(); err != nil {
			return err
		}
	}
	d.m.Reset()
	d.where()
	return nil
}

func (d *Debugger) dump(_ context.Context, args []string) error {
	if err := d.dumpFile(args[0]); err != nil {
		return err
	}
	d.printf("wrote %s\n", args[0])
	return nil
}

func (d *Debugger) help(context.Context, []string) error {
	for _, c := range commands {
		name := c.name
		if c.alias != "" {
			name += ", " + c.alias
		}
		d.printf("  %-14s %-16s %s\n", name, c.args, c.help)
	}
	d.printf("Addresses and values are Starlark expressions over R0-R7, PC, COND\nand mem(addr), written without spaces; x3000 is read as hex.\n")
	return nil
}

func (d *Debugger) exit(context.Context, []string) error {
	d.quit = true
	return nil
}
