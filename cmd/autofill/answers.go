package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jonathan/form-autofill/internal/experience"
	"github.com/jonathan/form-autofill/internal/types"
	"github.com/spf13/cobra"
)

var answersName string

var answersCmd = &cobra.Command{
	Use:   "answers",
	Short: "Manage stored answers",
}

var answersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored answers and experience entries",
	Args:  cobra.NoArgs,
	RunE:  runAnswersList,
}

var (
	addType  string
	addValue string
)

var answersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Store an answer",
	Args:  cobra.NoArgs,
	RunE:  runAnswersAdd,
}

var answersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored answer",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnswersDelete,
}

var importFile string

var answersImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Normalize a profile file and store its answers and experiences",
	Args:  cobra.NoArgs,
	RunE:  runAnswersImport,
}

func init() {
	answersCmd.PersistentFlags().StringVar(&answersName, "profile-name", "default", "Stored profile to manage")

	answersAddCmd.Flags().StringVarP(&addType, "type", "t", "", "Field kind, e.g. EMAIL (required)")
	answersAddCmd.Flags().StringVarP(&addValue, "value", "v", "", "Answer value (required)")
	if err := answersAddCmd.MarkFlagRequired("type"); err != nil {
		panic(fmt.Sprintf("failed to mark type flag as required: %v", err))
	}
	if err := answersAddCmd.MarkFlagRequired("value"); err != nil {
		panic(fmt.Sprintf("failed to mark value flag as required: %v", err))
	}

	answersImportCmd.Flags().StringVarP(&importFile, "in", "i", "", "Path to a profile JSON file (required)")
	if err := answersImportCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	answersCmd.AddCommand(answersListCmd, answersAddCmd, answersDeleteCmd, answersImportCmd)
	rootCmd.AddCommand(answersCmd)
}

// persistentApp is newApp for commands that write: they need a database.
func persistentApp() (*app, error) {
	a, err := newApp()
	if err != nil {
		return nil, err
	}
	if a.cfg.DatabaseURL == "" {
		a.Close()
		return nil, fmt.Errorf("database_url is required to modify stored answers")
	}
	return a, nil
}

func runAnswersList(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	st, err := a.store(ctx, answersName)
	if err != nil {
		return err
	}
	answers, err := st.ListAnswers(ctx)
	if err != nil {
		return err
	}
	entries, err := st.ListExperiences(ctx, "")
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTYPE\tVALUE\tAUTOFILL")
	for _, ans := range answers {
		value := ans.Display
		if ans.Sensitivity == types.SensitivitySensitive {
			value = "(sensitive)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", ans.ID, ans.Type, value, ans.AutofillAllowed)
	}
	if len(entries) > 0 {
		_, _ = fmt.Fprintln(w, "\nID\tGROUP\tPRIORITY\tDATES")
		for _, e := range entries {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s - %s\n", e.ID, e.GroupType, e.Priority, e.StartDate, e.EndDate)
		}
	}
	return w.Flush()
}

func runAnswersAdd(cmd *cobra.Command, _ []string) error {
	typ, ok := types.ParseTaxonomy(addType)
	if !ok || typ == types.Unknown {
		return fmt.Errorf("unknown field kind %q", addType)
	}

	a, err := persistentApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	st, err := a.store(ctx, answersName)
	if err != nil {
		return err
	}

	if existing, err := st.FindByValue(ctx, typ, addValue); err != nil {
		return err
	} else if existing != nil {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Already stored: %s\n", existing.ID)
		return nil
	}

	answer := types.NewAnswerValue(typ, addValue, time.Now().UTC())
	if err := st.SaveAnswer(ctx, &answer); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored %s answer %s\n", answer.Type, answer.ID)
	return nil
}

func runAnswersDelete(cmd *cobra.Command, args []string) error {
	a, err := persistentApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	st, err := a.store(ctx, answersName)
	if err != nil {
		return err
	}
	if err := st.DeleteAnswer(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to delete answer %s: %w", args[0], err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func runAnswersImport(cmd *cobra.Command, _ []string) error {
	profile, err := experience.LoadProfile(importFile)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	a, err := persistentApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	st, err := a.store(ctx, answersName)
	if err != nil {
		return err
	}
	if err := experience.Import(ctx, st, profile); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d answers and %d experience entries\n",
		len(profile.Answers), len(profile.Experiences))
	return nil
}
