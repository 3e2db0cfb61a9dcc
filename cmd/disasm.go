package cmd

import (
	"fmt"

	"github.com/aryanA101a/lulu/internal/config"
	"github.com/aryanA101a/lulu/vm"
	"github.com/spf13/cobra"
)

const defaultDisasmCount = 16

func (a *app) disasmCommand() *cobra.Command {
	var (
		from  string
		count int
	)
	c := &cobra.Command{
		Use:   "disasm [flags] image...",
		Short: "Print the instructions in images",
		Long: `disasm lists every word of each image as "address: word  instruction".
With --from it loads all images first and lists memory from that address.`,
		Args: imagesArg,
		RunE: func(cmd *cobra.Command, paths []string) error {
			if count < 0 {
				return usageError{fmt.Errorf("--count must not be negative, got %d", count)}
			}
			out := cmd.OutOrStdout()
			m := a.newMachine(nil)

			if from != "" {
				addr, err := config.ParseAddress(from)
				if err != nil {
					return usageError{fmt.Errorf("--from: %w", err)}
				}
				if err := a.loadImages(m, paths); err != nil {
					return err
				}
				if count == 0 {
					count = defaultDisasmCount
				}
				for i := 0; i < count; i++ {
					fmt.Fprintln(out, m.Listing(addr+vm.Word(i)))
				}
				return nil
			}

			for _, path := range paths {
				img, err := m.LoadFile(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "; %s\n", path)
				n := img.Words
				if count > 0 && count < n {
					n = count
				}
				for i := 0; i < n; i++ {
					fmt.Fprintln(out, m.Listing(img.Origin+vm.Word(i)))
				}
			}
			return nil
		},
	}
	c.Flags().StringVar(&from, "from", "", "list memory from this address instead of each image")
	c.Flags().IntVar(&count, "count", 0, fmt.Sprintf("words to list (default whole image, or %d with --from)", defaultDisasmCount))
	return c
}
