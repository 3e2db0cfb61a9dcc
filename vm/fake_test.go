package vm

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

// fakeTerminal feeds keys from a string and records everything written.
type fakeTerminal struct {
	keys     []byte
	out      bytes.Buffer
	flushed  int
	polls    int
	writeErr error
}

func (ft *fakeTerminal) KeyAvailable(time.Duration) bool {
	ft.polls++
	return len(ft.keys) > 0
}

func (ft *fakeTerminal) ReadChar(ctx context.Context) (byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(ft.keys) == 0 {
		return 0, io.EOF
	}
	c := ft.keys[0]
	ft.keys = ft.keys[1:]
	return c, nil
}

func (ft *fakeTerminal) ReadCharEcho(ctx context.Context) (byte, error) {
	c, err := ft.ReadChar(ctx)
	if err != nil {
		return 0, err
	}
	return c, ft.WriteChar(c)
}

func (ft *fakeTerminal) WriteChar(c byte) error {
	if ft.writeErr != nil {
		return ft.writeErr
	}
	return ft.out.WriteByte(c)
}

func (ft *fakeTerminal) Flush() error {
	ft.flushed++
	return nil
}

var errBroken = errors.New("broken terminal")

// image encodes origin and words as a big-endian program image.
func image(origin Word, words ...Word) []byte {
	data := make([]byte, 2+2*len(words))
	binary.BigEndian.PutUint16(data, uint16(origin))
	for i, w := range words {
		binary.BigEndian.PutUint16(data[2+2*i:], uint16(w))
	}
	return data
}

// newTestMachine returns a machine with program placed at UserSpaceStart.
func newTestMachine(term Terminal, program ...Word) *Machine {
	m := New(term, Config{PollTimeout: time.Millisecond})
	if _, err := m.Memory.Load(bytes.NewReader(image(UserSpaceStart, program...))); err != nil {
		panic(err)
	}
	return m
}
