package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// optimizeCommand creates the optimize command, which canonicalizes one SVG
// document with the configured optimizer.
func (c *CLI) optimizeCommand() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "optimize <file.svg>",
		Short: "Optimize a single SVG document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := c.optimizer(cmd)
			if err != nil {
				return err
			}
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			out, err := opt.Optimize(src)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			c.Logger.Debug("optimized", "file", args[0], "before", len(src), "after", len(out))

			if outPath == "" {
				_, err := cmd.OutOrStdout().Write(out)
				return err
			}
			if err := os.WriteFile(outPath, out, 0644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			printSuccess("Optimized %s (%s)", args[0], sizeChange(len(src), len(out)))
			printFile(outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")

	return cmd
}

// sizeChange describes a size reduction, e.g. "1204 → 388 bytes, -67.8%".
func sizeChange(before, after int) string {
	if before == 0 {
		return fmt.Sprintf("%d %s %d bytes", before, iconArrow, after)
	}
	pct := float64(after-before) / float64(before) * 100
	return fmt.Sprintf("%d %s %d bytes, %+.1f%%", before, iconArrow, after, pct)
}
