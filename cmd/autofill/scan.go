package main

import (
	"fmt"

	"github.com/jonathan/form-autofill/internal/observability"
	"github.com/spf13/cobra"
)

var scanFlags pageFlags

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the fillable fields of a form",
	Long:  "Fetches or reads an application page and prints one descriptor per fillable control.",
	RunE:  runScan,
}

func init() {
	scanFlags.register(scanCmd, false)
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := scanPage(cmd.Context(), &scanFlags, a.cfg.UseBrowser, a.logger)
	if err != nil {
		return err
	}

	if scanFlags.json {
		return writeJSON(cmd, res)
	}

	out := cmd.OutOrStdout()
	for _, f := range res.Fields {
		_, _ = fmt.Fprintf(out, "#%-3d %-9s %s\n", f.Index, f.Kind, observability.FieldName(f))
	}
	_, _ = fmt.Fprintf(out, "%d fields\n", len(res.Fields))
	return nil
}
