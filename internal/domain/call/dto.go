package call

import "time"

type InitiateCallRequest struct {
	BuildingID int64 `json:"building_id" validate:"required,gt=0"`
	CalleeID   int64 `json:"callee_id" validate:"required,gt=0"`
}

type CallResponse struct {
	ID              int64      `json:"id"`
	ChannelID       int64      `json:"channel_id"`
	BuildingID      int64      `json:"building_id"`
	CallerID        int64      `json:"caller_id"`
	CallerName      string     `json:"caller_name,omitempty"`
	CalleeID        int64      `json:"callee_id"`
	CalleeName      string     `json:"callee_name,omitempty"`
	Status          string     `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds int64      `json:"duration_seconds"`
}

// callEvent is the payload of realtime call events pushed to the peer.
type callEvent struct {
	Action    string `json:"action"` // incoming | answered | rejected | ended | missed
	CallID    int64  `json:"call_id"`
	ChannelID int64  `json:"channel_id"`
	PeerID    int64  `json:"peer_id"`
	PeerName  string `json:"peer_name,omitempty"`
}
