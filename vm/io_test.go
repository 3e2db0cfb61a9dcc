package vm

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyboardPending(t *testing.T) {
	assert := assert.New(t)

	term := &fakeTerminal{keys: []byte("ab")}
	m := newTestMachine(term)

	assert.Equal(keyReady, m.Memory.Read(KBSR))
	assert.Equal(Word('a'), m.Memory.Read(KBDR))
	assert.Equal(keyReady, m.Memory.Read(KBSR))
	assert.Equal(Word('b'), m.Memory.Read(KBDR))
	assert.Equal(Word(0), m.Memory.Read(KBSR))
	assert.Equal(3, term.polls)

	// KBDR keeps the last key and reading it polls nothing
	assert.Equal(Word('b'), m.Memory.Read(KBDR))
	assert.Equal(3, term.polls)
}

func TestKeyboardIdle(t *testing.T) {
	assert := assert.New(t)

	term := &fakeTerminal{}
	m := newTestMachine(term)
	m.Memory.Write(KBSR, keyReady)
	assert.Equal(Word(0), m.Memory.Read(KBSR))
	assert.Equal(Word(0), m.Memory.Read(KBDR))

	m = newTestMachine(nil)
	assert.Equal(Word(0), m.Memory.Read(KBSR))
}

func TestKeyboardPollLoop(t *testing.T) {
	assert := assert.New(t)

	// poll:  LDI R1, KBSR_PTR
	//        BRzp poll
	//        LDI R0, KBDR_PTR
	//        OUT
	//        HALT
	term := &fakeTerminal{keys: []byte("k")}
	m := newTestMachine(term,
		0xA205, // LDI R1, #5
		0x07FE, // BRzp #-2
		0xA004, // LDI R0, #4
		0xF021, // OUT
		0xF025, // HALT
		0x0000,
		Word(KBSR),
		Word(KBDR),
	)
	assert.NoError(m.Run(context.Background()))
	assert.Equal("k", term.out.String())
	assert.Equal(Word('k'), m.Reg.Get(R0))
}

type failingInput struct{}

func (failingInput) KeyAvailable(time.Duration) bool            { return true }
func (failingInput) ReadChar(context.Context) (byte, error)     { return 0, io.ErrUnexpectedEOF }
func (failingInput) ReadCharEcho(context.Context) (byte, error) { return 0, io.ErrUnexpectedEOF }

func TestResetClearsKeyboardError(t *testing.T) {
	m := newTestMachine(&fakeTerminal{}, 0x0000) // NOP
	m.keyboard.err = io.ErrUnexpectedEOF
	m.Reset()
	assert.NoError(t, m.Step(context.Background()))
}

func TestKeyboardSkipsPollWhenCancelled(t *testing.T) {
	assert := assert.New(t)

	term := &fakeTerminal{keys: []byte("k")}
	m := newTestMachine(term,
		0xA201, // LDI R1, #1
		0xF025, // HALT
		KBSR,
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(m.Step(ctx))
	assert.Equal(Word(0), m.Reg.Get(R1))
	assert.Zero(term.polls)

	// the cancelled context does not outlive the step
	assert.Equal(keyReady, m.Memory.Read(KBSR))
}

func TestKeyboardReadError(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory()
	kb := NewKeyboard(failingInput{}, 0)
	mem.Map(KBSR, kb)
	assert.Equal(Word(0), mem.Read(KBSR))
	assert.ErrorIs(kb.takeErr(), io.ErrUnexpectedEOF)
	assert.NoError(kb.takeErr())
}
