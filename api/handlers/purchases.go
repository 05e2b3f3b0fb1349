package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/siteforge/domainops/interfaces"
	"github.com/siteforge/domainops/internal/enum"
	"github.com/siteforge/domainops/internal/logger"
	"github.com/siteforge/domainops/internal/tracing"
	"github.com/siteforge/domainops/internal/utils"
)

type StartPurchaseRequest struct {
	Quantity      int    `json:"quantity"`
	Language      string `json:"language"`
	Niche         string `json:"niche"`
	SessionID     string `json:"sessionId"`
	ManualDomain  string `json:"manualDomain"`
	TrafficSource string `json:"trafficSource"`
	Platform      string `json:"platform"`
	Unlimited     bool   `json:"unlimited"`
}

type PurchaseHandler struct {
	log             logger.Logger
	purchaseService interfaces.PurchaseService
}

func NewPurchaseHandler(log logger.Logger, purchaseService interfaces.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{
		log:             log,
		purchaseService: purchaseService,
	}
}

// Start kicks off a purchase session and returns immediately; callers poll
// the progress endpoint with the returned session id.
func (h *PurchaseHandler) Start() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "StartPurchase")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var req StartPurchaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if req.ManualDomain == "" && req.Niche == "" {
			message := "Either manualDomain or niche is required"
			tracing.TraceErr(span, errors.New(message))
			c.JSON(http.StatusBadRequest, gin.H{"error": message})
			return
		}

		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = utils.GenerateNanoIDWithPrefix("sess", 21)
		}
		tracing.TagSession(span, sessionID)

		request := interfaces.PurchaseRequest{
			Quantity:      req.Quantity,
			Language:      req.Language,
			Niche:         req.Niche,
			SessionID:     sessionID,
			ManualDomain:  req.ManualDomain,
			UserID:        utils.GetUserIdFromContext(ctx),
			TrafficSource: req.TrafficSource,
			Platform:      enum.DecodePlatform(req.Platform),
			Unlimited:     req.Unlimited,
		}

		// The workflow outlives the HTTP request; detach it from the
		// request context but keep the caller identity.
		workflowCtx := utils.WithCustomContext(context.Background(), utils.GetContext(ctx))
		go func() {
			result := h.purchaseService.Run(workflowCtx, request)
			h.log.Infof("session %s finished: success=%t registered=%d/%d",
				sessionID, result.Success, result.TotalRegistered, result.TotalRequested)
		}()

		c.JSON(http.StatusAccepted, gin.H{"sessionId": sessionID})
	}
}

// Cancel flags the session for cooperative cancellation.
func (h *PurchaseHandler) Cancel() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "CancelPurchase")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		sessionID := c.Param("id")
		tracing.TagSession(span, sessionID)

		known := h.purchaseService.Cancel(ctx, sessionID)
		if !known {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown or already finished session"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"sessionId": sessionID, "cancelled": true})
	}
}

// Progress returns the session's durable progress record.
func (h *PurchaseHandler) Progress() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "PurchaseProgress")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		sessionID := c.Param("id")
		tracing.TagSession(span, sessionID)

		progress, err := h.purchaseService.GetProgress(ctx, sessionID)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load progress"})
			return
		}
		if progress == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown session"})
			return
		}

		c.JSON(http.StatusOK, progress)
	}
}
