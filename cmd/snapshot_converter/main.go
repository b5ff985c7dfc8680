package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chronoscope-go/internal/snapshot"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "snapshot_converter <input> <output>",
		Short: "Convert landmark snapshots between binary and JSON encodings",
		Long: `Convert landmark snapshots between binary and JSON encodings.
The input encoding is detected automatically.

Examples:
  # Inspect a binary snapshot
  snapshot_converter data/landmarks.lmks landmarks.json --format json

  # Convert an edited JSON snapshot back to binary
  snapshot_converter landmarks.json data/landmarks.lmks --format binary`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			encoder, err := snapshot.EncoderFactory(format)
			if err != nil {
				return err
			}
			catalog, err := snapshot.Load(args[0])
			if err != nil {
				return err
			}
			if err := snapshot.Save(args[1], catalog, encoder); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "converted %d entries (dim %d) from %s to %s (format: %s)\n",
				catalog.Len(), catalog.Dim(), args[0], args[1], encoder.Name())
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", snapshot.EncoderJSON, "output encoding: binary or json")
	return cmd
}
