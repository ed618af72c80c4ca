// Package httpapi exposes the mastery scheduler as a JSON API for the study portal.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/jambprep/jamb-mastery/internal/config"
	"github.com/jambprep/jamb-mastery/internal/domain/entities"
	"github.com/jambprep/jamb-mastery/internal/service"
)

const shutdownTimeout = 10 * time.Second

// MasteryService is the part of service.MasteryService the API calls.
type MasteryService interface {
	RecordAnswer(ctx context.Context, studentID, questionID string, isCorrect bool, timeSpentSeconds float64) (*entities.MasteryRecord, error)
	GetDueQuestions(ctx context.Context, studentID, bankID string, limit int) ([]*entities.Question, error)
	GetRecord(ctx context.Context, studentID, questionID string) (*entities.MasteryRecord, error)
	GetMasterySummary(ctx context.Context, studentID string, now time.Time) (*service.MasterySummary, error)
	ListReviews(ctx context.Context, studentID string, limit int) ([]*entities.ReviewEvent, error)
}

// Server is the echo application serving the API.
type Server struct {
	cfg     config.HTTP
	app     *echo.Echo
	handler *handler
	logger  *zap.Logger
}

// New builds the server and registers its routes.
func New(cfg config.HTTP, mastery MasteryService, logger *zap.Logger) (*Server, error) {
	v, err := newRequestValidator()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		app:     echo.New(),
		handler: &handler{mastery: mastery, now: func() time.Time { return time.Now().UTC() }},
		logger:  logger,
	}
	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.Validator = v
	s.app.HTTPErrorHandler = newHTTPErrorHandler(logger, v)

	s.setup()
	return s, nil
}

func (s *Server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestID())
	s.app.Use(s.requestLogger())
	s.app.Use(middleware.Recover())
	if s.cfg.RequestTimeout > 0 {
		s.app.Use(middleware.ContextTimeout(s.cfg.RequestTimeout))
	}

	s.app.GET("/healthz", healthz)

	v1 := s.app.Group("/v1")
	if s.cfg.RateLimit > 0 {
		v1.Use(newClientLimiter(s.cfg.RateLimit, s.cfg.RateBurst).middleware())
	}

	students := v1.Group("/students/:studentID")
	students.POST("/answers", s.handler.recordAnswer)
	students.GET("/due", s.handler.dueQuestions)
	students.GET("/mastery", s.handler.masterySummary)
	students.GET("/mastery/:questionID", s.handler.masteryRecord)
	students.GET("/reviews", s.handler.reviews)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				s.logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			s.logger.Debug("request", fields...)
			return nil
		},
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server started", zap.String("address", s.cfg.Address))
		if err := s.app.Start(s.cfg.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("http server stopping")
	return s.app.Shutdown(shutdownCtx)
}

// ServeHTTP lets tests drive the server without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

func healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
