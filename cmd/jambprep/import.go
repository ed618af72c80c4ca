package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jambprep/jamb-mastery/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a question bank from .xlsx or .csv",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bankID, _ := cmd.Flags().GetString("bank")

		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := importer.New(a.repos.questions, a.logger).ImportFile(cmd.Context(), args[0], bankID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "imported %d of %d rows into %q\n", len(res.Questions), res.Processed, bankID)
		for _, msg := range res.Errors {
			fmt.Fprintf(out, "  skipped: %s\n", msg)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().String("bank", "", "Question bank id to import into")
	_ = importCmd.MarkFlagRequired("bank")
}
