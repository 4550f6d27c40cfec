// Package handler exposes registered samplers over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hpn/hpn-sampler/internal/backoff"
	"github.com/hpn/hpn-sampler/internal/domain"
	"github.com/hpn/hpn-sampler/internal/sampler"
	"github.com/hpn/hpn-sampler/internal/ui"
)

// Context keys shared with LoggingMiddleware.
const (
	ctxKeySampler   = "sampler"
	ctxKeyRequestID = "request_id"
	ctxKeyUsage     = "usage"
)

// SampleRequest is the body of POST /v1/samplers/:name/sample.
type SampleRequest struct {
	Messages []domain.Message `json:"messages"`
}

// SampleResponse is returned for a finished sample, including a rejected one.
type SampleResponse struct {
	Sampler   string `json:"sampler"`
	Provider  string `json:"provider"`
	RequestID string `json:"request_id,omitempty"`
	domain.Result
	LatencyMS int64 `json:"latency_ms"`
}

// SampleHandler serves the sampler registry.
type SampleHandler struct {
	registry *sampler.Registry
	usage    *UsageTracker
	logger   *slog.Logger
	timeout  time.Duration
}

// SampleHandlerOption is a functional option for configuring SampleHandler.
type SampleHandlerOption func(*SampleHandler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) SampleHandlerOption {
	return func(h *SampleHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithUsageTracker shares a usage tracker with the handler.
func WithUsageTracker(u *UsageTracker) SampleHandlerOption {
	return func(h *SampleHandler) {
		if u != nil {
			h.usage = u
		}
	}
}

// WithSampleTimeout bounds each sample call, retries included.
// Zero leaves the request context as the only bound.
func WithSampleTimeout(d time.Duration) SampleHandlerOption {
	return func(h *SampleHandler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// NewSampleHandler creates a new SampleHandler.
func NewSampleHandler(registry *sampler.Registry, opts ...SampleHandlerOption) *SampleHandler {
	h := &SampleHandler{
		registry: registry,
		usage:    NewUsageTracker(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// RegisterRoutes mounts the handler's endpoints on r.
func (h *SampleHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/samplers/:name/sample", h.HandleSample)
	r.GET("/v1/samplers", h.HandleSamplers)
	r.GET("/v1/usage", h.HandleUsage)
	r.GET("/health", h.HandleHealth)
}

// HandleSample handles POST /v1/samplers/:name/sample.
func (h *SampleHandler) HandleSample(c *gin.Context) {
	name := c.Param("name")
	c.Set(ctxKeySampler, name)

	s, err := h.registry.Get(name)
	if err != nil {
		h.sendError(c, http.StatusNotFound, "not_found_error", err.Error())
		return
	}

	var req SampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid_request_error", "Invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.Sample(ctx, req.Messages)
	latency := time.Since(start)

	if err != nil {
		status, errType := classifyError(err)
		h.logger.Error("sample failed",
			slog.String("sampler", name),
			slog.String("request_id", c.GetString(ctxKeyRequestID)),
			slog.Int("status", status),
			slog.Duration("latency", latency),
			slog.String("error", err.Error()),
		)
		if status >= http.StatusInternalServerError {
			h.usage.RecordFailure(name)
		}
		h.sendError(c, status, errType, err.Error())
		return
	}

	h.usage.Record(name, result)
	c.Set(ctxKeyUsage, result)

	if !result.Rejected {
		ui.PrintSample(name, result.InputTokens, result.OutputTokens, latency)
	}

	c.JSON(http.StatusOK, SampleResponse{
		Sampler:   name,
		Provider:  s.Name(),
		RequestID: c.GetString(ctxKeyRequestID),
		Result:    result,
		LatencyMS: latency.Milliseconds(),
	})
}

// classifyError maps a sample error to an HTTP status and error type.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNoMessages), errors.Is(err, domain.ErrUnknownRole):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, "timeout_error"
	case errors.Is(err, backoff.ErrAttemptsExhausted):
		return http.StatusServiceUnavailable, "server_error"
	default:
		return http.StatusBadGateway, "upstream_error"
	}
}

// SamplerInfo describes one registered sampler.
type SamplerInfo struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	domain.SamplerConfig
}

// HandleSamplers handles GET /v1/samplers.
func (h *SampleHandler) HandleSamplers(c *gin.Context) {
	names := h.registry.Names()
	data := make([]SamplerInfo, 0, len(names))

	for _, name := range names {
		s, err := h.registry.Get(name)
		if err != nil {
			continue
		}
		data = append(data, SamplerInfo{
			Name:          name,
			Provider:      s.Name(),
			SamplerConfig: s.Config(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   data,
	})
}

// HandleUsage handles GET /v1/usage.
func (h *SampleHandler) HandleUsage(c *gin.Context) {
	snapshot := h.usage.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"samplers": snapshot,
		"total":    sumUsage(snapshot),
	})
}

// HandleHealth handles GET /health.
func (h *SampleHandler) HandleHealth(c *gin.Context) {
	count := h.registry.Len()

	status := "healthy"
	if count == 0 {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"samplers": count,
	})
}

// sendError sends an error response in a uniform envelope.
func (h *SampleHandler) sendError(c *gin.Context, status int, errType, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"message":    message,
			"type":       errType,
			"request_id": c.GetString(ctxKeyRequestID),
		},
	})
}
