package cmd

import (
	"github.com/aryanA101a/lulu/terminal"
	"github.com/spf13/cobra"
)

func (a *app) runCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "run [flags] image...",
		Short: "Load images and run until HALT",
		Args:  imagesArg,
		RunE:  a.run,
	}
	addWatchFlag(c)
	return c
}

func addWatchFlag(c *cobra.Command) {
	c.Flags().Bool("watch", false, "reload the images and restart when one of them changes")
}

func (a *app) run(cmd *cobra.Command, paths []string) (err error) {
	console := terminal.New(stdin(cmd), cmd.OutOrStdout())
	if err := console.EnableRawMode(); err != nil {
		return err
	}
	defer func() {
		if rerr := console.Restore(); err == nil {
			err = rerr
		}
	}()

	m := a.newMachine(console)
	if err := a.loadImages(m, paths); err != nil {
		return err
	}
	if a.cfg.Watch {
		return a.runWatching(cmd.Context(), m, paths)
	}
	return m.Run(cmd.Context())
}
