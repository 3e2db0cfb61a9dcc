package debugger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aryanA101a/lulu/vm"
	"github.com/c-bata/go-prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type fakeTerminal struct {
	out bytes.Buffer
}

func (*fakeTerminal) KeyAvailable(time.Duration) bool            { return false }
func (*fakeTerminal) ReadChar(context.Context) (byte, error)     { return 0, io.EOF }
func (*fakeTerminal) ReadCharEcho(context.Context) (byte, error) { return 0, io.EOF }
func (ft *fakeTerminal) WriteChar(c byte) error                  { return ft.out.WriteByte(c) }
func (*fakeTerminal) Flush() error                               { return nil }

type fakeRaw struct {
	enabled, restored int
}

func (r *fakeRaw) EnableRawMode() error { r.enabled++; return nil }
func (r *fakeRaw) Restore() error       { r.restored++; return nil }

// program at x3000: three increments of R0, print "OK", halt
var program = []vm.Word{
	0x1021, // ADD R0, R0, #1
	0x1021,
	0x1021,
	0xE002, // LEA R0, #2
	0xF022, // PUTS
	0xF025, // HALT
	'O', 'K', 0,
}

type fixture struct {
	d       *Debugger
	m       *vm.Machine
	term    *fakeTerminal
	raw     *fakeRaw
	out     *bytes.Buffer
	reloads int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{term: &fakeTerminal{}, raw: &fakeRaw{}, out: &bytes.Buffer{}}
	fx.m = vm.New(fx.term, vm.Config{PollTimeout: time.Millisecond})
	load := func() error {
		fx.m.Memory.Reset()
		for i, w := range program {
			fx.m.Memory.Write(vm.UserSpaceStart+vm.Word(i), w)
		}
		return nil
	}
	require.NoError(t, load())
	fx.d = New(fx.m, Options{
		Out: fx.out,
		Raw: fx.raw,
		Reload: func() error {
			fx.reloads++
			return load()
		},
	})
	return fx
}

func (fx *fixture) exec(t *testing.T, line string) string {
	t.Helper()
	fx.out.Reset()
	require.NoError(t, fx.d.Execute(context.Background(), line), line)
	return fx.out.String()
}

func TestStep(t *testing.T) {
	assert := assert.New(t)
	fx := newFixture(t)

	assert.Equal("x3001: 1021  ADD R0, R0, #1\n", fx.exec(t, "step"))
	assert.Equal("x3003: E002  LEA R0, #2 ; x3006\n", fx.exec(t, "s 2"))
	assert.Equal(vm.Word(3), fx.m.Reg.Get(vm.R0))
	assert.Equal(2, fx.raw.enabled)
	assert.Equal(2, fx.raw.restored)

	assert.Equal("halted after 6 steps\n", fx.exec(t, "step 10"))
	assert.Equal("OK", fx.term.out.String())
	assert.Equal("halted after 6 steps\n", fx.exec(t, "step"))
}

func TestContinueToBreakpoint(t *testing.T) {
	assert := assert.New(t)
	fx := newFixture(t)

	assert.Equal("breakpoint at x3002\n", fx.exec(t, "break x3000+2"))
	assert.Equal("breakpoint x3002: 1021  ADD R0, R0, #1\n", fx.exec(t, "continue"))
	assert.Equal(vm.Word(2), fx.m.Reg.Get(vm.R0))

	// continuing from a breakpoint executes it
	assert.Equal("halted after 6 steps\n", fx.exec(t, "c"))
	assert.Equal("OK", fx.term.out.String())
	assert.Equal("halted after 6 steps\n", fx.exec(t, "c"))
}

func TestContinueReportsMachineErrors(t *testing.T) {
	fx := newFixture(t)
	fx.m.Memory.Write(0x3000, 0xF020) // GETC with no input left

	err := fx.d.Execute(context.Background(), "continue")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, fx.raw.enabled, fx.raw.restored)
}

func TestContinueCancelled(t *testing.T) {
	fx := newFixture(t)
	fx.m.Memory.Write(0x3000, 0x0FFF) // BRnzp #-1

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, fx.d.Execute(ctx, "continue"))
	assert.Contains(t, fx.out.String(), "interrupted")
	assert.True(t, fx.m.Running())
}

func TestBreakpoints(t *testing.T) {
	assert := assert.New(t)
	fx := newFixture(t)

	fx.exec(t, "b x3005")
	fx.exec(t, "b 0x3001")
	assert.Equal("x3001: 1021  ADD R0, R0, #1\nx3005: F025  HALT\n", fx.exec(t, "breaks"))

	fx.exec(t, "delete x3001")
	assert.Equal("x3005: F025  HALT\n", fx.exec(t, "breaks"))
	assert.Error(fx.d.Execute(context.Background(), "delete x3001"))

	out := fx.exec(t, "disasm x3004 2")
	assert.Equal("  x3004: F022  PUTS\n* x3005: F025  HALT\n", out)
	assert.Contains(fx.exec(t, "l"), "> x3000: 1021  ADD R0, R0, #1\n")
}

func TestInspect(t *testing.T) {
	assert := assert.New(t)
	fx := newFixture(t)

	fx.exec(t, "set r1 0x8000")
	fx.exec(t, "set PC x3001")
	assert.Equal(
		"R0 x0000  R1 x8000  R2 x0000  R3 x0000\n"+
			"R4 x0000  R5 x0000  R6 x0000  R7 x0000\n"+
			"PC x3001  COND z  steps 0\n",
		fx.exec(t, "regs"))

	fx.exec(t, "poke x4000 mem(x3005)+1")
	assert.Equal(vm.Word(0xF026), fx.m.Memory.Read(0x4000))

	assert.Equal(
		"x3000: 1021 1021 1021 E002 F022 F025 004F 004B\nx3008: 0000\n",
		fx.exec(t, "mem x3000 9"))

	assert.Contains(fx.exec(t, "decode x3005"), "Vector")
}

func TestEval(t *testing.T) {
	assert := assert.New(t)
	fx := newFixture(t)
	fx.m.Reg.Set(vm.R1, 3)

	for expr, want := range map[string]vm.Word{
		"x3000":          0x3000,
		"X30 + 1":        0x31,
		"0x3000 + 2":     0x3002,
		"R1 * 2":         6,
		"PC":             0x3000,
		"-1":             0xFFFF,
		"mem(x3000)":     0x1021,
		"mem(PC+5) >> 8": 0xF0,
		"0x12345":        0x2345,
	} {
		got, err := fx.d.eval(expr)
		if assert.NoError(err, expr) {
			assert.Equal(want, got, expr)
		}
	}

	for _, expr := range []string{"'a'", "nope", "1 +", "mem()", "1 << 80"} {
		_, err := fx.d.eval(expr)
		assert.ErrorIs(err, ErrExpression, expr)
	}
}

func TestResetReloads(t *testing.T) {
	assert := assert.New(t)
	fx := newFixture(t)

	fx.exec(t, "poke x3000 0")
	fx.exec(t, "step 3")
	assert.Equal("x3000: 1021  ADD R0, R0, #1\n", fx.exec(t, "reset"))
	assert.Equal(1, fx.reloads)
	assert.Equal(vm.Word(0), fx.m.Reg.Get(vm.R0))
	assert.Equal(uint64(0), fx.m.Steps())
}

func TestDump(t *testing.T) {
	assert := assert.New(t)
	fx := newFixture(t)

	fx.exec(t, "b x3004")
	fx.exec(t, "step 2")
	path := filepath.Join(t.TempDir(), "state.yaml")
	assert.Equal("wrote "+path+"\n", fx.exec(t, "dump "+path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var s snapshot
	require.NoError(t, yaml.Unmarshal(data, &s))
	assert.Equal("x3002", s.Registers["PC"])
	assert.Equal("x0002", s.Registers["R0"])
	assert.Equal("p", s.Flags)
	assert.Equal(uint64(2), s.Steps)
	assert.True(s.Running)
	assert.Equal([]string{"x3004"}, s.Breakpoints)
	assert.Equal([]segment{{
		Origin: "x3000",
		Words:  []string{"1021", "1021", "1021", "E002", "F022", "F025", "004F", "004B"},
	}}, s.Memory)
}

func TestExecuteErrors(t *testing.T) {
	assert := assert.New(t)
	fx := newFixture(t)
	ctx := context.Background()

	assert.NoError(fx.d.Execute(ctx, "   "))
	assert.ErrorIs(fx.d.Execute(ctx, "jump"), ErrUnknownCommand)
	assert.ErrorIs(fx.d.Execute(ctx, "break"), ErrUsage)
	assert.ErrorIs(fx.d.Execute(ctx, "step 0"), ErrUsage)
	assert.ErrorIs(fx.d.Execute(ctx, "set R9 1"), vm.ErrRegister)
	assert.ErrorIs(fx.d.Execute(ctx, "mem ("), ErrExpression)

	fx.d.reload = func() error { return errors.New("gone") }
	assert.EqualError(fx.d.Execute(ctx, "reset"), "gone")
}

func TestHelpAndQuit(t *testing.T) {
	assert := assert.New(t)
	fx := newFixture(t)

	help := fx.exec(t, "help")
	for _, c := range commands {
		assert.Contains(help, c.name)
	}
	assert.False(fx.d.Quit())
	fx.exec(t, "q")
	assert.True(fx.d.Quit())
}

func TestComplete(t *testing.T) {
	assert := assert.New(t)
	fx := newFixture(t)

	complete := func(text string) []string {
		b := prompt.NewBuffer()
		b.InsertText(text, false, true)
		var names []string
		for _, s := range fx.d.Complete(*b.Document()) {
			names = append(names, s.Text)
		}
		return names
	}

	assert.Equal([]string{"break", "breaks"}, complete("br"))
	assert.Len(complete(""), len(commands))
	assert.Equal([]string{"PC"}, complete("set p"))
	assert.Len(complete("set "), 10)
	assert.Empty(complete("mem x3000 "))
}

type lines []string

func (l *lines) ReadLine() (string, error) {
	if len(*l) == 0 {
		return "", io.EOF
	}
	line := (*l)[0]
	*l = (*l)[1:]
	return line, nil
}

func TestRunLines(t *testing.T) {
	assert := assert.New(t)
	fx := newFixture(t)

	script := lines{"step", "bogus", "quit", "step"}
	assert.NoError(fx.d.RunLines(context.Background(), &script))
	assert.Equal([]string{"step"}, []string(script))
	assert.Equal(vm.Word(1), fx.m.Reg.Get(vm.R0))

	out := fx.out.String()
	assert.True(strings.HasPrefix(out, "lulu> step\nx3001: 1021  ADD R0, R0, #1\n"), out)
	assert.Contains(out, "error: unknown command \"bogus\"")

	// end of input without quit
	fx = newFixture(t)
	script = lines{"regs"}
	assert.NoError(fx.d.RunLines(context.Background(), &script))
	assert.False(fx.d.Quit())
}
