package call

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"residence/internal/domain/chat"
	"residence/internal/domain/directory"
	"residence/internal/pkg/response"
	"residence/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	calls := rg.Group("/calls")
	{
		calls.POST("", h.Initiate)
		calls.GET("", h.History)
		calls.POST("/:callId/answer", h.Answer)
		calls.POST("/:callId/reject", h.Reject)
		calls.POST("/:callId/end", h.End)
	}
}

func (h *Handler) Initiate(c *gin.Context) {
	var req InitiateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid call payload", fields)
		return
	}

	resp, err := h.service.Initiate(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.mapError(c, err, "Failed to initiate call")
		return
	}
	response.Success(c, http.StatusCreated, resp)
}

func (h *Handler) Answer(c *gin.Context) {
	h.transition(c, h.service.Answer, "Failed to answer call")
}

func (h *Handler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject, "Failed to reject call")
}

func (h *Handler) End(c *gin.Context) {
	h.transition(c, h.service.End, "Failed to end call")
}

func (h *Handler) History(c *gin.Context) {
	limit := 50
	if s := c.Query("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
			if limit > 200 {
				limit = 200
			}
		}
	}
	offset := 0
	if s := c.Query("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	list, err := h.service.History(c.Request.Context(), c.GetInt64("user_id"), limit, offset)
	if err != nil {
		h.mapError(c, err, "Failed to load call history")
		return
	}
	response.Success(c, http.StatusOK, list)
}

func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, residentID, callID int64) (*CallResponse, error), fallback string) {
	callID, err := strconv.ParseInt(c.Param("callId"), 10, 64)
	if err != nil || callID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid call ID")
		return
	}

	resp, err := fn(c.Request.Context(), c.GetInt64("user_id"), callID)
	if err != nil {
		h.mapError(c, err, fallback)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

func (h *Handler) mapError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrCallNotFound),
		errors.Is(err, directory.ErrBuildingNotFound),
		errors.Is(err, directory.ErrResidentNotFound),
		errors.Is(err, chat.ErrChannelNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrNotParticipant), errors.Is(err, ErrNotCallee),
		errors.Is(err, chat.ErrNotInBuilding):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		response.Error(c, http.StatusConflict, "INVALID_STATE", err.Error())
	case errors.Is(err, chat.ErrCannotChatSelf):
		response.Error(c, http.StatusBadRequest, "INVALID_PEER", "Cannot call yourself")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}
