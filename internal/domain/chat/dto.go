package chat

import "time"

type DirectChannelRequest struct {
	BuildingID int64 `json:"building_id" validate:"required,gt=0"`
	ResidentID int64 `json:"resident_id" validate:"required,gt=0"`
}

type CreateGroupRequest struct {
	BuildingID int64   `json:"building_id" validate:"required,gt=0"`
	Name       string  `json:"name" validate:"required,min=1,max=100"`
	MemberIDs  []int64 `json:"member_ids" validate:"omitempty,dive,gt=0"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
}

type MemberResponse struct {
	ResidentID int64  `json:"resident_id"`
	Name       string `json:"name"`
}

type ChannelResponse struct {
	ID          int64            `json:"id"`
	BuildingID  int64            `json:"building_id"`
	Type        string           `json:"type"`
	Name        string           `json:"name,omitempty"`
	Members     []MemberResponse `json:"members"`
	UnreadCount int64            `json:"unread_count"`
	CreatedAt   time.Time        `json:"created_at"`
}

type MessageResponse struct {
	ID         int64     `json:"id"`
	ChannelID  int64     `json:"channel_id"`
	SenderID   int64     `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Kind       string    `json:"kind"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
