// Package httpapi exposes the engine and action-item state machine over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/roach88/cadence/internal/actionitem"
	"github.com/roach88/cadence/internal/engine"
	"github.com/roach88/cadence/internal/logging"
	"github.com/roach88/cadence/internal/store"
)

// Items is the slice of the store the API reads and writes.
type Items interface {
	Ping(ctx context.Context) error
	GetActionItem(ctx context.Context, id string) (actionitem.ActionItem, error)
	ListChain(ctx context.Context, id string) ([]actionitem.ActionItem, error)
	ListAlerts(ctx context.Context, itemID string) ([]actionitem.Alert, error)
	TransitionStatus(ctx context.Context, id string, to actionitem.Status, now time.Time) (actionitem.ActionItem, error)
}

// Trigger runs the engine once under the run lock.
type Trigger interface {
	RunOnce(ctx context.Context) (engine.Report, error)
}

type server struct {
	items   Items
	trigger Trigger
	clock   engine.Clock
	log     zerolog.Logger
}

// Option configures the router.
type Option func(*server)

// WithClock sets the clock used to stamp completion dates.
func WithClock(c engine.Clock) Option {
	return func(s *server) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *server) {
		s.log = l
	}
}

// NewRouter builds the gin engine serving the cadence API.
func NewRouter(items Items, trigger Trigger, opts ...Option) *gin.Engine {
	s := &server{
		items:   items,
		trigger: trigger,
		clock:   engine.SystemClock{},
		log:     logging.Component("http"),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	r.GET("/healthz", s.health)

	v1 := r.Group("/v1")
	{
		v1.POST("/runs", s.run)
		v1.GET("/action-items/:id", s.getItem)
		v1.GET("/action-items/:id/chain", s.getChain)
		v1.GET("/action-items/:id/alerts", s.listAlerts)
		v1.POST("/action-items/:id/transition", s.transition)
	}
	return r
}

func (s *server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

func (s *server) health(c *gin.Context) {
	if err := s.items.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *server) run(c *gin.Context) {
	rep, err := s.trigger.RunOnce(c.Request.Context())
	switch {
	case errors.Is(err, store.ErrLockHeld):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "report": rep})
	case err != nil:
		s.fail(c, err)
	default:
		c.JSON(http.StatusOK, gin.H{"report": rep})
	}
}

func (s *server) getItem(c *gin.Context) {
	item, err := s.items.GetActionItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"action_item": item})
}

func (s *server) getChain(c *gin.Context) {
	chain, err := s.items.ListChain(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"action_items": chain})
}

func (s *server) listAlerts(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.items.GetActionItem(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	alerts, err := s.items.ListAlerts(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if alerts == nil {
		alerts = []actionitem.Alert{}
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

type transitionRequest struct {
	Status actionitem.Status `json:"status" binding:"required"`
}

func (s *server) transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := s.items.TransitionStatus(c.Request.Context(), c.Param("id"), req.Status, s.clock.Now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"action_item": item})
}

// fail maps domain errors onto status codes.
func (s *server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, actionitem.ErrInvalidStatus):
		status = http.StatusBadRequest
	case errors.Is(err, actionitem.ErrInvalidTransition):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
