package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideshare/internal/domain"
	"rideshare/internal/middleware"
	"rideshare/internal/service"
)

// PushHandler manages Web Push subscriptions.
type PushHandler struct {
	notifier *service.NotificationService
}

// NewPushHandler creates a new PushHandler.
func NewPushHandler(notifier *service.NotificationService) *PushHandler {
	return &PushHandler{notifier: notifier}
}

// SubscriptionRequest mirrors the browser PushSubscription JSON.
type SubscriptionRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256DH string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// UnsubscribeRequest identifies the subscription to remove.
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// Subscribe handles PUT /v1/push/subscriptions
func (h *PushHandler) Subscribe(c *gin.Context) {
	var req SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	err := h.notifier.RegisterSubscription(c.Request.Context(), middleware.UserID(c), domain.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.Keys.P256DH,
		Auth:     req.Keys.Auth,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Unsubscribe handles DELETE /v1/push/subscriptions
func (h *PushHandler) Unsubscribe(c *gin.Context) {
	var req UnsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := h.notifier.RemoveSubscription(c.Request.Context(), middleware.UserID(c), req.Endpoint); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
