package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var dueCmd = &cobra.Command{
	Use:   "due <student-id>",
	Short: "Print a student's review queue, most overdue first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bankID, _ := cmd.Flags().GetString("bank")
		limit, _ := cmd.Flags().GetInt("limit")
		studentID := args[0]

		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		questions, err := a.mastery.GetDueQuestions(cmd.Context(), studentID, bankID, limit)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tQUESTION\tBANK\tNEXT REVIEW\tLEVEL")
		for i, q := range questions {
			record, err := a.mastery.GetRecord(cmd.Context(), studentID, q.ID)
			if err != nil {
				return err
			}

			next := record.NextReviewDate.Format(time.DateOnly)
			switch {
			case record.IsNew():
				next = "never seen"
			case record.IsDue(now):
				next += " (due)"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, q.ID, q.BankID, next, record.Level())
		}
		return w.Flush()
	},
}

func init() {
	dueCmd.Flags().String("bank", "", "Question bank id, empty for every bank")
	dueCmd.Flags().Int("limit", 0, "Queue size, 0 for the configured default")
}
