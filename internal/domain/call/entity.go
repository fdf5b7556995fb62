package call

import (
	"database/sql"
	"time"
)

// Status tracks a call through its lifecycle. A call that is never
// answered ends up missed, whether the callee was offline, rejected it,
// or the caller hung up first.
type Status string

const (
	StatusInitiated Status = "INITIATED"
	StatusAnswered  Status = "ANSWERED"
	StatusRejected  Status = "REJECTED"
	StatusEnded     Status = "ENDED"
	StatusMissed    Status = "MISSED"
)

// Call is one audio/video call attempt between two residents. Media
// never touches the server: peers exchange SDP and ICE over the
// WebSocket signaling relay, this row only records the outcome.
type Call struct {
	ID              int64        `gorm:"column:id;primaryKey" json:"id"`
	ChannelID       int64        `gorm:"column:channel_id;index" json:"channel_id"`
	BuildingID      int64        `gorm:"column:building_id" json:"building_id"`
	CallerID        int64        `gorm:"column:caller_id;index" json:"caller_id"`
	CalleeID        int64        `gorm:"column:callee_id;index" json:"callee_id"`
	Status          Status       `gorm:"column:status" json:"status"`
	StartedAt       time.Time    `gorm:"column:started_at" json:"started_at"`
	AnsweredAt      sql.NullTime `gorm:"column:answered_at" json:"-"`
	EndedAt         sql.NullTime `gorm:"column:ended_at" json:"-"`
	DurationSeconds int64        `gorm:"column:duration_seconds" json:"duration_seconds"`
}

func (Call) TableName() string { return "calls" }

func (c *Call) IsParticipant(residentID int64) bool {
	return c.CallerID == residentID || c.CalleeID == residentID
}

func (c *Call) Peer(residentID int64) int64 {
	if c.CallerID == residentID {
		return c.CalleeID
	}
	return c.CallerID
}
