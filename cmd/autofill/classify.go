package main

import (
	"context"
	"encoding/json"

	"github.com/jonathan/form-autofill/internal/engine"
	"github.com/jonathan/form-autofill/internal/observability"
	"github.com/spf13/cobra"
)

var (
	classifyFlags pageFlags
	classifyName  string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify the fields of a form",
	Long:  "Runs the rule cascade and, when a backend is enabled, the batch classifier over every field of a form.",
	RunE:  runClassify,
}

var (
	planFlags pageFlags
	planName  string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan the values to fill into a form",
	Long:  "Classifies a form and resolves each field against the stored profile, splitting the result into automatic fills, suggestions and sensitive fields.",
	RunE:  runPlan,
}

func init() {
	classifyFlags.register(classifyCmd, true)
	classifyCmd.Flags().StringVar(&classifyName, "profile-name", "default", "Stored profile to resolve against")
	rootCmd.AddCommand(classifyCmd)

	planFlags.register(planCmd, true)
	planCmd.Flags().StringVar(&planName, "profile-name", "default", "Stored profile to resolve against")
	rootCmd.AddCommand(planCmd)
}

// runPass builds an engine, scans the page and runs one planning pass.
func runPass(ctx context.Context, a *app, flags *pageFlags, profileName string) (*engine.Pass, error) {
	st, err := a.store(ctx, profileName)
	if err != nil {
		return nil, err
	}
	transport, err := a.transport(ctx)
	if err != nil {
		return nil, err
	}

	eng := engine.New(st, transport,
		engine.WithLogger(a.logger),
		engine.WithCache(a.cache(ctx)))

	res, err := scanPage(ctx, flags, a.cfg.UseBrowser, a.logger)
	if err != nil {
		return nil, err
	}
	return eng.Plan(ctx, res.Fields, &res.Page)
}

func runClassify(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	pass, err := runPass(cmd.Context(), a, &classifyFlags, classifyName)
	if err != nil {
		return err
	}

	if classifyFlags.json {
		return writeJSON(cmd, pass.Classifications)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintClassifications(pass.Classifications)
	return nil
}

func runPlan(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	pass, err := runPass(cmd.Context(), a, &planFlags, planName)
	if err != nil {
		return err
	}

	if planFlags.json {
		return writeJSON(cmd, pass.Result)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintFillResult(pass.Result)
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
