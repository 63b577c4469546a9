package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/form-autofill/internal/fetch"
	"github.com/jonathan/form-autofill/internal/scanner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// pageFlags select where a command reads its form from.
type pageFlags struct {
	url    string
	file   string
	fields string
	json   bool
}

// register adds the source flags. acceptFields also allows a saved scan
// (the JSON printed by "scan --json") as input.
func (f *pageFlags) register(cmd *cobra.Command, acceptFields bool) {
	cmd.Flags().StringVarP(&f.url, "url", "u", "", "URL of the application page")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Path to a saved HTML page")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print JSON instead of a summary")

	sources := []string{"url", "file"}
	if acceptFields {
		cmd.Flags().StringVar(&f.fields, "fields", "", "Path to a saved scan (scan --json output)")
		sources = append(sources, "fields")
	}
	cmd.MarkFlagsMutuallyExclusive(sources...)
	cmd.MarkFlagsOneRequired(sources...)
}

// scanPage loads the form from a saved scan, a file or a URL.
func scanPage(ctx context.Context, f *pageFlags, useBrowser bool, logger *zap.Logger) (*scanner.Result, error) {
	switch {
	case f.fields != "":
		data, err := os.ReadFile(f.fields)
		if err != nil {
			return nil, fmt.Errorf("failed to read fields: %w", err)
		}
		var res scanner.Result
		if err := json.Unmarshal(data, &res); err != nil {
			return nil, fmt.Errorf("failed to parse fields: %w", err)
		}
		return &res, nil

	case f.file != "":
		file, err := os.Open(f.file)
		if err != nil {
			return nil, fmt.Errorf("failed to open page: %w", err)
		}
		defer func() { _ = file.Close() }()
		return scanner.ScanHTML(file, scanner.Options{URL: f.url})
	}

	var (
		page *fetch.Result
		err  error
	)
	if useBrowser {
		page, err = fetch.Page(ctx, f.url, nil, logger)
	} else {
		page, err = fetch.URL(ctx, f.url, nil)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("fetched page",
		zap.String("url", page.URL),
		zap.Int("status", page.StatusCode),
		zap.Bool("rendered", page.Rendered))
	return scanner.ScanString(page.HTML, scanner.Options{URL: page.URL})
}
