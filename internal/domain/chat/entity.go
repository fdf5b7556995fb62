package chat

import (
	"database/sql"
	"time"
)

// ChannelType distinguishes direct (1-on-1) from group channels
type ChannelType string

const (
	ChannelDirect ChannelType = "direct"
	ChannelGroup  ChannelType = "group"
)

// Channel is a conversation scoped to one building.
type Channel struct {
	ID         int64          `gorm:"column:id;primaryKey" json:"id"`
	BuildingID int64          `gorm:"column:building_id;index" json:"building_id"`
	Type       ChannelType    `gorm:"column:type" json:"type"`
	Name       sql.NullString `gorm:"column:name" json:"-"`
	CreatedBy  sql.NullInt64  `gorm:"column:created_by" json:"-"`
	CreatedAt  time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (Channel) TableName() string { return "channels" }

// ChannelMember is a participant in a channel
type ChannelMember struct {
	ChannelID  int64        `gorm:"column:channel_id;primaryKey" json:"channel_id"`
	ResidentID int64        `gorm:"column:resident_id;primaryKey" json:"resident_id"`
	LastReadAt sql.NullTime `gorm:"column:last_read_at" json:"last_read_at,omitempty"`
	JoinedAt   time.Time    `gorm:"column:joined_at" json:"joined_at"`
}

func (ChannelMember) TableName() string { return "channel_members" }

// MessageKind separates resident-typed text from system entries such as
// missed-call records.
type MessageKind string

const (
	MessageText MessageKind = "text"
	MessageCall MessageKind = "call"
)

// Message is a single chat message
type Message struct {
	ID        int64       `gorm:"column:id;primaryKey" json:"id"`
	ChannelID int64       `gorm:"column:channel_id;index" json:"channel_id"`
	SenderID  int64       `gorm:"column:sender_id" json:"sender_id"`
	Kind      MessageKind `gorm:"column:kind" json:"kind"`
	Content   string      `gorm:"column:content" json:"content"`
	CreatedAt time.Time   `gorm:"column:created_at" json:"created_at"`
}

func (Message) TableName() string { return "messages" }
