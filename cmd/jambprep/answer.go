package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var answerCmd = &cobra.Command{
	Use:   "answer <student-id> <question-id>",
	Short: "Record one answer and print the new schedule",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		correct, _ := cmd.Flags().GetBool("correct")
		seconds, _ := cmd.Flags().GetFloat64("seconds")

		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		record, err := a.mastery.RecordAnswer(cmd.Context(), args[0], args[1], correct, seconds)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"quality %d, streak %d, ease %.2f, next review in %d day(s) on %s (%s)\n",
			record.LastQuality,
			record.ConsecutiveCorrect,
			record.EaseFactor,
			record.IntervalDays,
			record.NextReviewDate.Format(time.DateOnly),
			record.Level(),
		)
		return nil
	},
}

func init() {
	answerCmd.Flags().Bool("correct", false, "Whether the answer was correct")
	answerCmd.Flags().Float64("seconds", 0, "Seconds spent on the question")
	_ = answerCmd.MarkFlagRequired("seconds")
}
