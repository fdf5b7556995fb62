package notification

import (
	"database/sql"
	"time"
)

// Type is the closed set of notification kinds. Every dispatch site
// switches over these exhaustively, so adding a kind is a compile-time
// checked change.
type Type string

const (
	TypeClaimNew          Type = "CLAIM_NEW"           // building admins: a claim was filed
	TypeClaimAffected     Type = "CLAIM_AFFECTED"      // occupants of an affected apartment
	TypeClaimStatusUpdate Type = "CLAIM_STATUS_UPDATE" // reporter: claim status changed
	TypeChatMessage       Type = "CHAT_MESSAGE"        // channel members: new message
	TypeCallMissed        Type = "CALL_MISSED"         // receiver: missed/rejected call
)

// Valid reports whether t is a known kind.
func (t Type) Valid() bool {
	switch t {
	case TypeClaimNew, TypeClaimAffected, TypeClaimStatusUpdate, TypeChatMessage, TypeCallMissed:
		return true
	}
	return false
}

// Notification is one event record addressed to one resident. The row is
// the delivery guarantee; the real-time push is opportunistic.
type Notification struct {
	ID         int64         `gorm:"column:id;primaryKey" json:"id"`
	ResidentID int64         `gorm:"column:resident_id;index:idx_notifications_resident_unread" json:"resident_id"`
	BuildingID int64         `gorm:"column:building_id;index" json:"building_id"`
	Type       Type          `gorm:"column:type" json:"type"`
	Title      string        `gorm:"column:title" json:"title"`
	Body       string        `gorm:"column:body" json:"body"`
	RelatedID  sql.NullInt64 `gorm:"column:related_id" json:"-"`
	ChannelID  sql.NullInt64 `gorm:"column:channel_id" json:"-"`
	IsRead     bool          `gorm:"column:is_read;index:idx_notifications_resident_unread" json:"is_read"`
	ReadAt     sql.NullTime  `gorm:"column:read_at" json:"-"`
	CreatedAt  time.Time     `gorm:"column:created_at" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
