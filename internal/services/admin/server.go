package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/notification"
)

// Trigger is the slice of the scheduler engine the admin API needs. The
// manual path shares the dispatch machinery with the timer path, so an
// administrative resend cannot diverge in behavior.
type Trigger interface {
	TriggerDaily(ctx context.Context, tenantID, userID *int64, force bool) notification.Summary
	TriggerWeekly(ctx context.Context, tenantID *int64, force bool) notification.Summary
}

type Config struct {
	Addr string `mapstructure:"addr"`
}

type Server struct {
	log     *zap.Logger
	trigger Trigger
	inapp   notification.Repo
	srv     *http.Server
}

func New(cfg Config, log *zap.Logger, trigger Trigger, inapp notification.Repo) *Server {
	s := &Server{
		log:     log.With(zap.String("component", "admin.http")),
		trigger: trigger,
		inapp:   inapp,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/v1")
	{
		triggers := v1.Group("/triggers")
		{
			triggers.POST("/daily", s.handleTriggerDaily)
			triggers.POST("/weekly", s.handleTriggerWeekly)
		}
		users := v1.Group("/tenants/:tenant_id/users/:user_id")
		{
			users.GET("/notifications", s.handleListNotifications)
			users.POST("/notifications/:id/read", s.handleMarkRead)
		}
	}
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "notifier"})
	})

	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
	return s
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler { return s.srv.Handler }

func (s *Server) Run() error {
	s.log.Info("admin api listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }

func optionalID(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, false
	}
	return &id, true
}

func (s *Server) handleTriggerDaily(c *gin.Context) {
	tenantID, ok := optionalID(c, "tenant_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant_id"})
		return
	}
	userID, ok := optionalID(c, "user_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}
	if userID != nil && tenantID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id requires tenant_id"})
		return
	}
	force := c.Query("force") == "true"

	sum := s.trigger.TriggerDaily(c.Request.Context(), tenantID, userID, force)
	s.log.Info("manual daily trigger",
		zap.Any("tenant_id", tenantID), zap.Any("user_id", userID), zap.Bool("force", force),
		zap.Int("processed", sum.Processed), zap.Int("sent", sum.Sent), zap.Int("failed", sum.Failed),
	)
	c.JSON(http.StatusOK, sum)
}

func (s *Server) handleTriggerWeekly(c *gin.Context) {
	tenantID, ok := optionalID(c, "tenant_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant_id"})
		return
	}
	force := c.Query("force") == "true"

	sum := s.trigger.TriggerWeekly(c.Request.Context(), tenantID, force)
	s.log.Info("manual weekly trigger",
		zap.Any("tenant_id", tenantID), zap.Bool("force", force),
		zap.Int("processed", sum.Processed), zap.Int("sent", sum.Sent), zap.Int("failed", sum.Failed),
	)
	c.JSON(http.StatusOK, sum)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleListNotifications(c *gin.Context) {
	tenantID, ok := pathID(c, "tenant_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant_id"})
		return
	}
	userID, ok := pathID(c, "user_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	rows, err := s.inapp.ListByUser(c.Request.Context(), tenantID, userID, limit)
	if err != nil {
		s.log.Error("list notifications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": rows})
}

func (s *Server) handleMarkRead(c *gin.Context) {
	tenantID, ok := pathID(c, "tenant_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant_id"})
		return
	}
	userID, ok := pathID(c, "user_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := s.inapp.MarkRead(c.Request.Context(), tenantID, userID, id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
