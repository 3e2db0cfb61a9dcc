package vm

import (
	"errors"

	"github.com/aryanA101a/lulu/internal/translate"
)

var f = translate.From

var (
	ErrHalted   = errors.New(f("machine halted"))
	ErrRegister = errors.New(f("unknown register"))
	ErrNoInput  = errors.New(f("no input attached"))
	ErrNoOutput = errors.New(f("no output attached"))
)
