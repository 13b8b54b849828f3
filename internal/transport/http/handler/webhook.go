package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/post-scheduler/internal/domain"
	"github.com/ErlanBelekov/post-scheduler/internal/queue"
	"github.com/ErlanBelekov/post-scheduler/internal/usecase"
	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the queue's delivery signature.
const SignatureHeader = "Upstash-Signature"

const maxWebhookBody = 64 << 10

// WebhookHandler is the inbound edge for queue deliveries. It never leaks
// internal error detail to the queue, only status codes, which drive the
// queue's retry policy.
type WebhookHandler struct {
	verifier *queue.SignatureVerifier
	uc       *usecase.WebhookUsecase
	logger   *slog.Logger
}

func NewWebhookHandler(verifier *queue.SignatureVerifier, uc *usecase.WebhookUsecase, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		uc:       uc,
		logger:   logger.With("component", "webhook_handler"),
	}
}

func (h *WebhookHandler) Publish(ctx *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxWebhookBody))
	if err != nil {
		ctx.Status(http.StatusBadRequest)
		return
	}

	if err := h.verifier.Verify(ctx.GetHeader(SignatureHeader), body); err != nil {
		// Possible abuse: an unsigned or forged delivery hitting a public URL.
		h.logger.WarnContext(ctx.Request.Context(), "rejected webhook signature",
			"remote_addr", ctx.ClientIP(),
			"error", err,
		)
		ctx.Status(http.StatusForbidden)
		return
	}

	var payload usecase.CallbackPayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.ID == "" {
		ctx.Status(http.StatusBadRequest)
		return
	}

	result, err := h.uc.Execute(ctx.Request.Context(), payload.ID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPostNotFound):
			ctx.Status(http.StatusNotFound)
		case errors.Is(err, domain.ErrCredentialsInvalid):
			// Retrying will not repair credentials; tell the queue to stop.
			ctx.Status(http.StatusBadRequest)
		case errors.Is(err, domain.ErrUpstreamPublish):
			ctx.Status(http.StatusBadGateway)
		default:
			h.logger.ErrorContext(ctx.Request.Context(), "execute delivery", "post_id", payload.ID, "error", err)
			ctx.Status(http.StatusInternalServerError)
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":                payload.ID,
		"already_published": result.AlreadyPublished,
	})
}
