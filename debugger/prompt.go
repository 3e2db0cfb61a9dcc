package debugger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aryanA101a/lulu/vm"
	"github.com/c-bata/go-prompt"
)

// Run reads commands from the terminal until quit or Ctrl-D.
func (d *Debugger) Run(ctx context.Context) {
	executor := func(in string) {
		if err := d.Execute(ctx, in); err != nil {
			d.printf("error: %v\n", err)
		}
	}

	p := prompt.New(
		executor,
		d.Complete,
		prompt.OptionPrefix("lulu> "),
		prompt.OptionTitle("lulu debugger"),
		prompt.OptionSetExitCheckerOnInput(func(string, bool) bool { return d.quit }),
	)

	d.where()
	d.printf("type 'help' for commands\n")
	p.Run()
}

// LineReader supplies debugger commands when there is no terminal to
// prompt on.
type LineReader interface {
	ReadLine() (string, error)
}

// RunLines executes commands from r until quit or end of input, echoing
// each one after the prompt.
func (d *Debugger) RunLines(ctx context.Context, r LineReader) error {
	for !d.quit {
		line, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		d.printf("lulu> %s\n", line)
		if err := d.Execute(ctx, line); err != nil {
			d.printf("error: %v\n", err)
		}
	}
	return nil
}

// Complete suggests command names for the first word and register names
// for the first argument of set.
func (d *Debugger) Complete(doc prompt.Document) []prompt.Suggest {
	args := strings.Fields(doc.TextBeforeCursor())
	word := doc.GetWordBeforeCursor()
	if len(args) == 0 || (len(args) == 1 && word != "") {
		suggests := make([]prompt.Suggest, 0, len(commands))
		for _, c := range commands {
			suggests = append(suggests, prompt.Suggest{
				Text:        c.name,
				Description: strings.TrimSpace(fmt.Sprintf("%s  %s", c.args, c.help)),
			})
		}
		return prompt.FilterHasPrefix(suggests, word, true)
	}

	if args[0] == "set" && (len(args) == 1 || (len(args) == 2 && word != "")) {
		var suggests []prompt.Suggest
		for r := vm.R0; r <= vm.COND; r++ {
			suggests = append(suggests, prompt.Suggest{
				Text:        r.String(),
				Description: hex(d.m.Reg.Get(r)),
			})
		}
		return prompt.FilterHasPrefix(suggests, word, true)
	}
	return []prompt.Suggest{}
}
