package telegram

import (
	"fmt"
	"strconv"
	"strings"
)

// Telegram rejects inline buttons whose callback data is longer than this.
const maxCallbackDataLen = 64

// Callback action constants.
const (
	actionAnswer    = "ans"
	actionBank      = "bank"
	actionReview    = "review"
	actionProgress  = "progress"
	actionReminders = "reminders"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// buildAnswerCallback builds callback data for choosing option of the question at
// position index in a review session.
func buildAnswerCallback(sessionID int64, index, option int) string {
	return callbackData{
		Action: actionAnswer,
		Params: []string{
			strconv.FormatInt(sessionID, 10),
			strconv.Itoa(index),
			strconv.Itoa(option),
		},
	}.encode()
}

type answerCallback struct {
	SessionID int64
	Index     int
	Option    int
}

func parseAnswerCallback(cd callbackData) (answerCallback, error) {
	if cd.Action != actionAnswer || len(cd.Params) != 3 {
		return answerCallback{}, fmt.Errorf("invalid answer callback %q", cd.Raw)
	}

	sessionID, err1 := strconv.ParseInt(cd.Params[0], 10, 64)
	index, err2 := strconv.Atoi(cd.Params[1])
	option, err3 := strconv.Atoi(cd.Params[2])
	if err1 != nil || err2 != nil || err3 != nil || index < 0 || option < 0 {
		return answerCallback{}, fmt.Errorf("invalid answer callback values %q", cd.Raw)
	}

	return answerCallback{SessionID: sessionID, Index: index, Option: option}, nil
}

// buildBankCallback builds callback data for selecting a bank. It reports false
// when the bank id does not fit into a button.
func buildBankCallback(bankID string) (string, bool) {
	data := callbackData{Action: actionBank, Params: []string{bankID}}.encode()
	return data, len(data) <= maxCallbackDataLen
}

// bankFromCallback restores the bank id, which may itself contain colons.
func bankFromCallback(cd callbackData) string {
	return strings.Join(cd.Params, ":")
}

func buildReviewCallback() string {
	return actionReview
}

func buildProgressCallback() string {
	return actionProgress
}

func buildRemindersCallback() string {
	return actionReminders
}
