package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/domain"
)

// RouterConfig carries the router's collaborators.
type RouterConfig struct {
	Service   *app.BankService
	Tokens    *TokenIssuer
	Metrics   *Metrics
	Logger    *zap.Logger
	WS        *WSHandler
	RateLimit struct {
		Requests int
		Window   time.Duration
	}
}

// NewRouter builds the question bank API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(cfg.Logger))
	router.Use(cfg.Metrics.Middleware())

	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/metrics", cfg.Metrics.Handler())

	api := &bankAPI{service: cfg.Service, metrics: cfg.Metrics, logger: cfg.Logger}
	authed := router.Group("/")
	authed.Use(RateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	authed.Use(AuthMiddleware(cfg.Tokens))
	authed.GET("/questions", api.questions)
	authed.POST("/quiz", api.submit)
	authed.GET("/stats", api.stats)

	if cfg.WS != nil {
		router.GET("/ws", gin.WrapF(cfg.WS.ServeWS))
	}
	return router
}

type bankAPI struct {
	service *app.BankService
	metrics *Metrics
	logger  *zap.Logger
}

func (a *bankAPI) questions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	questions, err := a.service.Questions(c.Request.Context(), c.Query("category"), limit)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

func (a *bankAPI) submit(c *gin.Context) {
	var aggregate domain.Aggregate
	if err := c.ShouldBindJSON(&aggregate); err != nil {
		a.metrics.Submissions.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quiz payload"})
		return
	}
	receipt, err := a.service.SubmitResults(c.Request.Context(), c.GetString(usernameKey), aggregate)
	if errors.Is(err, domain.ErrStatsNotUpdated) {
		// Stored already; a failure status would invite a duplicate resend.
		a.logger.Warn("quiz stats not updated", zap.String("id", receipt.ID), zap.Error(err))
		err = nil
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSubmission) {
			a.metrics.Submissions.WithLabelValues("rejected").Inc()
		}
		a.fail(c, err)
		return
	}
	a.metrics.Submissions.WithLabelValues("accepted").Inc()
	a.metrics.Scores.Observe(float64(receipt.Score))
	a.logger.Info("quiz results stored",
		zap.String("id", receipt.ID),
		zap.String("username", receipt.Username),
		zap.String("category", receipt.Category),
		zap.Int("score", receipt.Score),
	)
	c.JSON(http.StatusCreated, receipt)
}

type statsResponse struct {
	Username     string                              `json:"username"`
	ByDifficulty map[domain.Difficulty]difficultyRow `json:"byDifficulty"`
}

type difficultyRow struct {
	Total    int `json:"total"`
	Correct  int `json:"correct"`
	Accuracy int `json:"accuracy"`
}

func (a *bankAPI) stats(c *gin.Context) {
	stats, err := a.service.Stats(c.Request.Context(), c.GetString(usernameKey))
	if err != nil {
		a.fail(c, err)
		return
	}
	resp := statsResponse{Username: stats.Username, ByDifficulty: make(map[domain.Difficulty]difficultyRow, len(stats.ByLevel))}
	for level, tally := range stats.ByLevel {
		resp.ByDifficulty[level] = difficultyRow{Total: tally.Total, Correct: tally.Correct, Accuracy: tally.Accuracy()}
	}
	c.JSON(http.StatusOK, resp)
}

func (a *bankAPI) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrCategoryRequired), errors.Is(err, domain.ErrInvalidSubmission):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	}
	_ = c.Error(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
