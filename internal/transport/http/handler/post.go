package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ErlanBelekov/post-scheduler/internal/domain"
	"github.com/ErlanBelekov/post-scheduler/internal/usecase"
	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	uc     *usecase.PostUsecase
	logger *slog.Logger
}

func NewPostHandler(uc *usecase.PostUsecase, logger *slog.Logger) *PostHandler {
	return &PostHandler{uc: uc, logger: logger.With("component", "post_handler")}
}

type schedulePostRequest struct {
	AccountID   string   `json:"account_id"   binding:"required"`
	Content     string   `json:"content"      binding:"required"`
	ScheduledAt int64    `json:"scheduled_at" binding:"required"` // unix seconds
	MediaRefs   []string `json:"media_refs"   binding:"omitempty,dive,required"`
}

type updatePostRequest struct {
	Content     string   `json:"content"      binding:"required"`
	ScheduledAt int64    `json:"scheduled_at" binding:"required"`
	MediaRefs   []string `json:"media_refs"   binding:"omitempty,dive,required"`
}

type postResponse struct {
	ID             string    `json:"id"`
	AccountID      string    `json:"account_id"`
	Content        string    `json:"content"`
	MediaRefs      []string  `json:"media_refs,omitempty"`
	ScheduledAt    int64     `json:"scheduled_at"`
	IsScheduled    bool      `json:"is_scheduled"`
	IsPublished    bool      `json:"is_published"`
	ExternalPostID *string   `json:"external_post_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toPostResponse(p *domain.Post) postResponse {
	return postResponse{
		ID:             p.ID,
		AccountID:      p.AccountID,
		Content:        p.Content,
		MediaRefs:      p.MediaRefs,
		ScheduledAt:    p.ScheduledAt.Unix(),
		IsScheduled:    p.IsScheduled,
		IsPublished:    p.IsPublished,
		ExternalPostID: p.ExternalPostID,
		CreatedAt:      p.CreatedAt,
	}
}

func (h *PostHandler) Create(ctx *gin.Context) {
	var req schedulePostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.uc.Schedule(ctx.Request.Context(), usecase.ScheduleInput{
		UserID:      ctx.GetString("userID"),
		AccountID:   req.AccountID,
		Content:     req.Content,
		ScheduledAt: time.Unix(req.ScheduledAt, 0),
		MediaRefs:   req.MediaRefs,
	})
	if err != nil {
		h.writePostError(ctx, "schedule post", "", err)
		return
	}

	ctx.JSON(http.StatusCreated, toPostResponse(p))
}

func (h *PostHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")

	var req updatePostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.uc.Update(ctx.Request.Context(), usecase.UpdateInput{
		UserID:      ctx.GetString("userID"),
		PostID:      id,
		Content:     req.Content,
		ScheduledAt: time.Unix(req.ScheduledAt, 0),
		MediaRefs:   req.MediaRefs,
	})
	if err != nil {
		h.writePostError(ctx, "update post", id, err)
		return
	}

	ctx.JSON(http.StatusOK, toPostResponse(p))
}

func (h *PostHandler) Cancel(ctx *gin.Context) {
	id := ctx.Param("id")

	if err := h.uc.Cancel(ctx.Request.Context(), id, ctx.GetString("userID")); err != nil {
		h.writePostError(ctx, "cancel post", id, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"id": id})
}

func (h *PostHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")

	p, err := h.uc.GetPost(ctx.Request.Context(), id, ctx.GetString("userID"))
	if err != nil {
		h.writePostError(ctx, "get post", id, err)
		return
	}

	ctx.JSON(http.StatusOK, toPostResponse(p))
}

func (h *PostHandler) List(ctx *gin.Context) {
	posts, err := h.uc.ListScheduled(ctx.Request.Context(), ctx.GetString("userID"))
	if err != nil {
		h.logger.Error("list posts", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	items := make([]postResponse, len(posts))
	for i, p := range posts {
		items[i] = toPostResponse(p)
	}
	ctx.JSON(http.StatusOK, gin.H{"posts": items})
}

type deliveryResponse struct {
	ID         int64     `json:"id"`
	Outcome    string    `json:"outcome"`
	Detail     *string   `json:"detail,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	ReceivedAt time.Time `json:"received_at"`
}

func (h *PostHandler) ListDeliveries(ctx *gin.Context) {
	id := ctx.Param("id")
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	deliveries, err := h.uc.ListDeliveries(ctx.Request.Context(), id, ctx.GetString("userID"), limit)
	if err != nil {
		h.writePostError(ctx, "list deliveries", id, err)
		return
	}

	items := make([]deliveryResponse, len(deliveries))
	for i, d := range deliveries {
		items[i] = deliveryResponse{
			ID:         d.ID,
			Outcome:    string(d.Outcome),
			Detail:     d.Detail,
			DurationMS: d.DurationMS,
			ReceivedAt: d.ReceivedAt,
		}
	}
	ctx.JSON(http.StatusOK, gin.H{"deliveries": items})
}

// writePostError maps domain errors to responses. Validation sentinel
// messages are user-facing and pass through as-is.
func (h *PostHandler) writePostError(ctx *gin.Context, op, postID string, err error) {
	switch {
	case errors.Is(err, domain.ErrContentInvalid),
		errors.Is(err, domain.ErrScheduleTooSoon),
		errors.Is(err, domain.ErrScheduleTooFar),
		errors.Is(err, domain.ErrTooManyMedia):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPostNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": errPostNotFound})
	case errors.Is(err, domain.ErrPostAlreadyPublished):
		ctx.JSON(http.StatusConflict, gin.H{"error": errPostPublished})
	case errors.Is(err, domain.ErrQueueUnavailable):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": errQueueUnavailable})
	case errors.Is(err, domain.ErrCancelFailed):
		ctx.JSON(http.StatusBadGateway, gin.H{"error": errCancelFailed})
	default:
		h.logger.Error(op, "post_id", postID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
