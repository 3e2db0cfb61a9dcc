package debugger

import (
	"errors"

	"github.com/aryanA101a/lulu/internal/translate"
)

var f = translate.From

var (
	ErrUnknownCommand = errors.New(f("unknown command"))
	ErrUsage          = errors.New(f("usage"))
	ErrExpression     = errors.New(f("bad expression"))
)
