package notification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"residence/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/notifications")
	{
		group.GET("", h.GetNotifications)
		group.GET("/unread-count", h.GetUnreadCount)
		group.GET("/:id", h.GetNotification)
		group.PATCH("/:id/read", h.MarkAsRead)
		group.POST("/read-all", h.MarkAllAsRead)
	}
}

// GetNotifications returns the caller's notifications, newest first.
// Optional query params: building_id, limit, offset.
func (h *Handler) GetNotifications(c *gin.Context) {
	residentID := c.GetInt64("user_id")

	limit := 20
	if s := c.Query("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
			if limit > 100 {
				limit = 100
			}
		}
	}

	offset := 0
	if s := c.Query("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	buildingID, ok := optionalBuildingID(c)
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid building_id")
		return
	}

	list, unread, err := h.service.List(c.Request.Context(), residentID, buildingID, limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to get notifications")
		return
	}

	items := make([]*NotificationResponse, len(list))
	for i, n := range list {
		items[i] = NotificationResponseFromEntity(n)
	}

	response.Success(c, http.StatusOK, NotificationListResponse{
		Notifications: items,
		UnreadCount:   unread,
	})
}

func (h *Handler) GetNotification(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid notification ID")
		return
	}

	n, err := h.service.Get(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Notification not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to get notification")
		return
	}

	response.Success(c, http.StatusOK, NotificationResponseFromEntity(n))
}

func (h *Handler) GetUnreadCount(c *gin.Context) {
	buildingID, ok := optionalBuildingID(c)
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid building_id")
		return
	}

	unread, err := h.service.UnreadCount(c.Request.Context(), c.GetInt64("user_id"), buildingID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to get unread count")
		return
	}

	response.Success(c, http.StatusOK, UnreadCountResponse{UnreadCount: unread})
}

func (h *Handler) MarkAsRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid notification ID")
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), id, c.GetInt64("user_id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Notification not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to mark as read")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "read"})
}

func (h *Handler) MarkAllAsRead(c *gin.Context) {
	if err := h.service.MarkAllAsRead(c.Request.Context(), c.GetInt64("user_id")); err != nil {
		response.Error(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to mark as read")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "all_read"})
}

func optionalBuildingID(c *gin.Context) (*int64, bool) {
	s := c.Query("building_id")
	if s == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return nil, false
	}
	return &v, true
}
