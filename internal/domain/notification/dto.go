package notification

import "time"

// NotificationResponse for API responses
type NotificationResponse struct {
	ID         int64   `json:"id"`
	ResidentID int64   `json:"resident_id"`
	BuildingID int64   `json:"building_id"`
	Type       string  `json:"type"`
	Title      string  `json:"title"`
	Body       string  `json:"body,omitempty"`
	RelatedID  *int64  `json:"related_id,omitempty"`
	ChannelID  *int64  `json:"channel_id,omitempty"`
	IsRead     bool    `json:"is_read"`
	ReadAt     *string `json:"read_at,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// NotificationResponseFromEntity converts entity to response DTO
func NotificationResponseFromEntity(n *Notification) *NotificationResponse {
	resp := &NotificationResponse{
		ID:         n.ID,
		ResidentID: n.ResidentID,
		BuildingID: n.BuildingID,
		Type:       string(n.Type),
		Title:      n.Title,
		Body:       n.Body,
		IsRead:     n.IsRead,
		CreatedAt:  n.CreatedAt.Format(time.RFC3339),
	}

	if n.RelatedID.Valid {
		resp.RelatedID = &n.RelatedID.Int64
	}
	if n.ChannelID.Valid {
		resp.ChannelID = &n.ChannelID.Int64
	}
	if n.ReadAt.Valid {
		readAt := n.ReadAt.Time.Format(time.RFC3339)
		resp.ReadAt = &readAt
	}

	return resp
}

// NotificationListResponse for the list endpoint
type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	UnreadCount   int64                   `json:"unread_count"`
}

// UnreadCountResponse for the unread count endpoint
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}
