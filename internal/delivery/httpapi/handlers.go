package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
	"github.com/jambprep/jamb-mastery/internal/service"
)

type handler struct {
	mastery MasteryService
	now     func() time.Time
}

type answerRequest struct {
	StudentID        string   `param:"studentID" json:"-" validate:"required"`
	QuestionID       string   `json:"question_id" validate:"required"`
	IsCorrect        *bool    `json:"is_correct" validate:"required"`
	TimeSpentSeconds *float64 `json:"time_spent_seconds" validate:"required,gte=0"`
}

type answerResponse struct {
	Success bool            `json:"success"`
	Mastery masteryResponse `json:"mastery"`
}

type dueRequest struct {
	StudentID string `param:"studentID" validate:"required"`
	BankID    string `query:"bank_id"`
	Limit     int    `query:"limit" validate:"gte=0"`
}

type listRequest struct {
	StudentID string `param:"studentID" validate:"required"`
	Limit     int    `query:"limit" validate:"gte=0"`
}

type masteryResponse struct {
	StudentID          string     `json:"student_id"`
	QuestionID         string     `json:"question_id"`
	ConsecutiveCorrect int        `json:"consecutive_correct"`
	EaseFactor         float64    `json:"ease_factor"`
	IntervalDays       int        `json:"interval_days"`
	NextReviewDate     time.Time  `json:"next_review_date"`
	ReviewCount        int        `json:"review_count"`
	LastQuality        int        `json:"last_quality"`
	LastReviewedAt     *time.Time `json:"last_reviewed_at"`
	Level              string     `json:"level"`
}

func newMasteryResponse(r *entities.MasteryRecord) masteryResponse {
	return masteryResponse{
		StudentID:          r.StudentID,
		QuestionID:         r.QuestionID,
		ConsecutiveCorrect: r.ConsecutiveCorrect,
		EaseFactor:         r.EaseFactor,
		IntervalDays:       r.IntervalDays,
		NextReviewDate:     r.NextReviewDate,
		ReviewCount:        r.ReviewCount,
		LastQuality:        int(r.LastQuality),
		LastReviewedAt:     r.LastReviewedAt,
		Level:              string(r.Level()),
	}
}

type questionResponse struct {
	ID              string   `json:"id"`
	BankID          string   `json:"bank_id"`
	Subject         string   `json:"subject"`
	Body            string   `json:"body"`
	Options         []string `json:"options"`
	AnswerIndex     int      `json:"answer_index"`
	ExpectedSeconds int      `json:"expected_seconds"`
}

type summaryResponse struct {
	StudentID   string         `json:"student_id"`
	Tracked     int            `json:"tracked"`
	ByLevel     map[string]int `json:"by_level"`
	DueNow      int            `json:"due_now"`
	Reviews     int            `json:"reviews"`
	AverageEase float64        `json:"average_ease"`
}

func newSummaryResponse(s *service.MasterySummary) summaryResponse {
	byLevel := make(map[string]int, len(s.ByLevel))
	for level, n := range s.ByLevel {
		byLevel[string(level)] = n
	}
	return summaryResponse{
		StudentID:   s.StudentID,
		Tracked:     s.Tracked,
		ByLevel:     byLevel,
		DueNow:      s.DueNow,
		Reviews:     s.Reviews,
		AverageEase: s.AverageEase,
	}
}

type reviewResponse struct {
	QuestionID       string    `json:"question_id"`
	IsCorrect        bool      `json:"is_correct"`
	TimeSpentSeconds float64   `json:"time_spent_seconds"`
	Quality          int       `json:"quality"`
	EaseFactor       float64   `json:"ease_factor"`
	IntervalDays     int       `json:"interval_days"`
	AnsweredAt       time.Time `json:"answered_at"`
}

// bind fills req from the path, query and body, then validates it.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}

// POST /v1/students/:studentID/answers
func (h *handler) recordAnswer(c echo.Context) error {
	var req answerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	record, err := h.mastery.RecordAnswer(c.Request().Context(), req.StudentID, req.QuestionID, *req.IsCorrect, *req.TimeSpentSeconds)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, answerResponse{Success: true, Mastery: newMasteryResponse(record)})
}

// GET /v1/students/:studentID/due?bank_id=&limit=
func (h *handler) dueQuestions(c echo.Context) error {
	var req dueRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	questions, err := h.mastery.GetDueQuestions(c.Request().Context(), req.StudentID, req.BankID, req.Limit)
	if err != nil {
		return err
	}

	resp := make([]questionResponse, 0, len(questions))
	for _, q := range questions {
		resp = append(resp, questionResponse{
			ID:              q.ID,
			BankID:          q.BankID,
			Subject:         q.Subject,
			Body:            q.Body,
			Options:         q.Options,
			AnswerIndex:     q.AnswerIndex,
			ExpectedSeconds: q.ExpectedSeconds,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"questions": resp})
}

// GET /v1/students/:studentID/mastery
func (h *handler) masterySummary(c echo.Context) error {
	summary, err := h.mastery.GetMasterySummary(c.Request().Context(), c.Param("studentID"), h.now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newSummaryResponse(summary))
}

// GET /v1/students/:studentID/mastery/:questionID
func (h *handler) masteryRecord(c echo.Context) error {
	record, err := h.mastery.GetRecord(c.Request().Context(), c.Param("studentID"), c.Param("questionID"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newMasteryResponse(record))
}

// GET /v1/students/:studentID/reviews?limit=
func (h *handler) reviews(c echo.Context) error {
	var req listRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	events, err := h.mastery.ListReviews(c.Request().Context(), req.StudentID, req.Limit)
	if err != nil {
		return err
	}

	resp := make([]reviewResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, reviewResponse{
			QuestionID:       e.QuestionID,
			IsCorrect:        e.IsCorrect,
			TimeSpentSeconds: e.TimeSpentSeconds,
			Quality:          int(e.Quality),
			EaseFactor:       e.EaseFactor,
			IntervalDays:     e.IntervalDays,
			AnsweredAt:       e.AnsweredAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"reviews": resp})
}
