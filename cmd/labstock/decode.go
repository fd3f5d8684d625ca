package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/labstock/internal/identity"
	"github.com/erazemk/labstock/internal/scan"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <photo>",
	Short: "Read the barcode from a label photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		payload, err := scan.DecodePhoto(f)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, payload)

		ref, err := identity.Decode(payload)
		if err != nil {
			return fmt.Errorf("barcode is not an item label: %w", err)
		}
		fmt.Fprintf(out, "item: %s\nnotify: %t\n", ref.ID, ref.Notify)
		return nil
	},
}
