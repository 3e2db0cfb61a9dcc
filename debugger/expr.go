package debugger

import (
	"fmt"
	"regexp"

	"github.com/aryanA101a/lulu/vm"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// LC-3 hex literals (x3000) become Starlark ones (0x3000).
var lc3Hex = regexp.MustCompile(`(^|[^0-9A-Za-z_])[xX]([0-9A-Fa-f]+)\b`)

// eval evaluates expr as a Starlark integer expression over the machine
// state and truncates the result to a word.
func (d *Debugger) eval(expr string) (vm.Word, error) {
	thread := starlark.Thread{Name: "expr"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{
		"mem": starlark.NewBuiltin("mem", d.memBuiltin),
	}
	for r := vm.R0; r <= vm.COND; r++ {
		pred[r.String()] = starlark.MakeInt(int(d.m.Reg.Get(r)))
	}

	prog := "rc=" + lc3Hex.ReplaceAllString(expr, "${1}0x$2") + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrExpression, expr, err)
	}
	rc, ok := dict["rc"].(starlark.Int)
	if !ok {
		return 0, fmt.Errorf("%w %q: not an integer", ErrExpression, expr)
	}
	v, ok := rc.Int64()
	if !ok {
		return 0, fmt.Errorf("%w %q: out of range", ErrExpression, expr)
	}
	return vm.Word(v), nil
}

func (d *Debugger) memBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &addr); err != nil {
		return nil, err
	}
	return starlark.MakeInt(int(d.m.Memory.Dump(vm.Word(addr), 1)[0])), nil
}
