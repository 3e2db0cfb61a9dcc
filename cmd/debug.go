package cmd

import (
	"context"

	"github.com/aryanA101a/lulu/debugger"
	"github.com/aryanA101a/lulu/terminal"
	"github.com/spf13/cobra"
)

func (a *app) debugCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "debug [flags] image...",
		Short: "Step through images in an interactive debugger",
		Long: `debug loads the images and stops before the first instruction.
Type 'help' at the prompt for the commands. When stdin is not a terminal,
commands are read from it one per line.`,
		Args: imagesArg,
		RunE: a.debug,
	}
}

func (a *app) debug(cmd *cobra.Command, paths []string) (err error) {
	console := terminal.New(stdin(cmd), cmd.OutOrStdout())
	defer func() {
		if rerr := console.Restore(); err == nil {
			err = rerr
		}
	}()

	m := a.newMachine(console)
	load := func() error {
		m.Memory.Reset()
		return a.loadImages(m, paths)
	}
	if err := load(); err != nil {
		return err
	}

	d := debugger.New(m, debugger.Options{
		Out:    cmd.OutOrStdout(),
		Raw:    console,
		Reload: load,
		Logger: a.log.Named("debugger"),
	})
	// Ctrl-C stops "continue" rather than the debugger
	ctx := context.WithoutCancel(cmd.Context())
	if !console.IsTerminal() {
		return d.RunLines(ctx, console)
	}
	d.Run(ctx)
	return nil
}
