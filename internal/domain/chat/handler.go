package chat

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

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
	chats := rg.Group("/chats")
	{
		chats.GET("", h.ListChannels)
		chats.POST("/direct", h.GetOrCreateDirect)
		chats.POST("/group", h.CreateGroup)
		chats.GET("/:channelId/messages", h.ListMessages)
		chats.POST("/:channelId/messages", h.SendMessage)
		chats.POST("/:channelId/read", h.MarkChannelRead)
	}
}

func (h *Handler) ListChannels(c *gin.Context) {
	list, err := h.service.ListChannels(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.mapError(c, err, "Failed to list channels")
		return
	}
	response.Success(c, http.StatusOK, list)
}

func (h *Handler) GetOrCreateDirect(c *gin.Context) {
	var req DirectChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid chat payload", fields)
		return
	}

	resp, err := h.service.GetOrCreateDirect(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.mapError(c, err, "Failed to open direct channel")
		return
	}
	response.Success(c, http.StatusOK, resp)
}

func (h *Handler) CreateGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid group payload", fields)
		return
	}

	resp, err := h.service.CreateGroup(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.mapError(c, err, "Failed to create group channel")
		return
	}
	response.Success(c, http.StatusCreated, resp)
}

func (h *Handler) ListMessages(c *gin.Context) {
	channelID, ok := channelParam(c)
	if !ok {
		return
	}

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

	list, err := h.service.ListMessages(c.Request.Context(), c.GetInt64("user_id"), channelID, limit, offset)
	if err != nil {
		h.mapError(c, err, "Failed to list messages")
		return
	}
	response.Success(c, http.StatusOK, list)
}

func (h *Handler) SendMessage(c *gin.Context) {
	channelID, ok := channelParam(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid message payload", fields)
		return
	}

	resp, err := h.service.SendMessage(c.Request.Context(), c.GetInt64("user_id"), channelID, req)
	if err != nil {
		h.mapError(c, err, "Failed to send message")
		return
	}
	response.Success(c, http.StatusCreated, resp)
}

func (h *Handler) MarkChannelRead(c *gin.Context) {
	channelID, ok := channelParam(c)
	if !ok {
		return
	}

	if err := h.service.MarkChannelRead(c.Request.Context(), c.GetInt64("user_id"), channelID); err != nil {
		h.mapError(c, err, "Failed to mark channel read")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Channel marked as read"})
}

func channelParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("channelId"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) mapError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrChannelNotFound):
		response.Error(c, http.StatusNotFound, "CHANNEL_NOT_FOUND", err.Error())
	case errors.Is(err, directory.ErrBuildingNotFound),
		errors.Is(err, directory.ErrResidentNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrNotMember), errors.Is(err, ErrNotInBuilding),
		errors.Is(err, directory.ErrNotBuildingAdmin):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, ErrCannotChatSelf):
		response.Error(c, http.StatusBadRequest, "INVALID_PEER", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}
