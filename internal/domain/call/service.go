package call

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"residence/internal/domain/chat"
	"residence/internal/domain/directory"
	"residence/internal/realtime"
)

// Channels is the slice of the chat service the call service needs: a
// direct channel to anchor the call to, and a way to drop call records
// into it. Satisfied by chat.Service.
type Channels interface {
	GetOrCreateDirect(ctx context.Context, residentID int64, req chat.DirectChannelRequest) (*chat.ChannelResponse, error)
	AppendCallRecord(ctx context.Context, channelID, senderID int64, content string) error
}

// Notifier records missed-call notifications. Satisfied by
// notification.Service.
type Notifier interface {
	CallMissed(ctx context.Context, residentID, buildingID, callID int64, callerName string) error
}

// Pusher delivers realtime call events. Satisfied by realtime.Hub.
type Pusher interface {
	PushToUser(residentID int64, event *realtime.Event) bool
}

// Directory resolves resident names for call events.
// Satisfied by directory.Repository.
type Directory interface {
	GetResident(ctx context.Context, id int64) (*directory.Resident, error)
}

type Service struct {
	repo   Repository
	chans  Channels
	dir    Directory
	notifs Notifier
	hub    Pusher
	log    *zap.Logger
}

func NewService(repo Repository, chans Channels, dir Directory, notifs Notifier, hub Pusher, log *zap.Logger) *Service {
	return &Service{repo: repo, chans: chans, dir: dir, notifs: notifs, hub: hub, log: log}
}

// Initiate starts a call to another resident of the same building. If
// the callee has no live connection the call is recorded as missed
// right away and the callee gets a notification instead of a ring.
func (s *Service) Initiate(ctx context.Context, callerID int64, req InitiateCallRequest) (*CallResponse, error) {
	ch, err := s.chans.GetOrCreateDirect(ctx, callerID, chat.DirectChannelRequest{
		BuildingID: req.BuildingID,
		ResidentID: req.CalleeID,
	})
	if err != nil {
		return nil, err
	}

	c := &Call{
		ChannelID:  ch.ID,
		BuildingID: req.BuildingID,
		CallerID:   callerID,
		CalleeID:   req.CalleeID,
		Status:     StatusInitiated,
		StartedAt:  time.Now(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	caller, err := s.dir.GetResident(ctx, callerID)
	if err != nil {
		return nil, err
	}

	delivered := s.hub.PushToUser(req.CalleeID, &realtime.Event{
		Type:      realtime.EventCall,
		ChannelID: ch.ID,
		From:      callerID,
		Payload: callEvent{
			Action:    "incoming",
			CallID:    c.ID,
			ChannelID: ch.ID,
			PeerID:    callerID,
			PeerName:  caller.FullName(),
		},
	})
	if !delivered {
		s.markMissed(ctx, c, caller.FullName())
	}

	return s.toResponse(ctx, c), nil
}

// Answer moves an initiated call to answered. Only the callee may
// answer.
func (s *Service) Answer(ctx context.Context, residentID, callID int64) (*CallResponse, error) {
	c, err := s.repo.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if !c.IsParticipant(residentID) {
		return nil, ErrNotParticipant
	}
	if c.CalleeID != residentID {
		return nil, ErrNotCallee
	}
	if c.Status != StatusInitiated {
		return nil, ErrInvalidTransition
	}

	c.Status = StatusAnswered
	c.AnsweredAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.pushToPeer(ctx, c, residentID, "answered")
	return s.toResponse(ctx, c), nil
}

// Reject declines an initiated call. The channel gets a call record so
// the caller sees the attempt in history.
func (s *Service) Reject(ctx context.Context, residentID, callID int64) (*CallResponse, error) {
	c, err := s.repo.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if !c.IsParticipant(residentID) {
		return nil, ErrNotParticipant
	}
	if c.CalleeID != residentID {
		return nil, ErrNotCallee
	}
	if c.Status != StatusInitiated {
		return nil, ErrInvalidTransition
	}

	c.Status = StatusRejected
	c.EndedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	if err := s.chans.AppendCallRecord(ctx, c.ChannelID, c.CallerID, "Call declined"); err != nil {
		s.log.Warn("call: record append failed", zap.Int64("call_id", c.ID), zap.Error(err))
	}
	s.pushToPeer(ctx, c, residentID, "rejected")
	return s.toResponse(ctx, c), nil
}

// End hangs up. An answered call becomes ended with its duration; a
// still-ringing call hung up by the caller becomes missed and the
// callee is notified.
func (s *Service) End(ctx context.Context, residentID, callID int64) (*CallResponse, error) {
	c, err := s.repo.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if !c.IsParticipant(residentID) {
		return nil, ErrNotParticipant
	}

	switch c.Status {
	case StatusAnswered:
		now := time.Now()
		c.Status = StatusEnded
		c.EndedAt = sql.NullTime{Time: now, Valid: true}
		if c.AnsweredAt.Valid {
			c.DurationSeconds = int64(now.Sub(c.AnsweredAt.Time).Seconds())
		}
		if err := s.repo.Update(ctx, c); err != nil {
			return nil, err
		}
		record := fmt.Sprintf("Call ended (%s)", formatDuration(c.DurationSeconds))
		if err := s.chans.AppendCallRecord(ctx, c.ChannelID, c.CallerID, record); err != nil {
			s.log.Warn("call: record append failed", zap.Int64("call_id", c.ID), zap.Error(err))
		}
	case StatusInitiated:
		if c.CallerID != residentID {
			return nil, ErrInvalidTransition
		}
		callerName := ""
		if caller, err := s.dir.GetResident(ctx, c.CallerID); err == nil {
			callerName = caller.FullName()
		}
		s.markMissed(ctx, c, callerName)
	default:
		return nil, ErrInvalidTransition
	}

	s.pushToPeer(ctx, c, residentID, "ended")
	return s.toResponse(ctx, c), nil
}

// History returns the caller's past calls, newest first.
func (s *Service) History(ctx context.Context, residentID int64, limit, offset int) ([]*CallResponse, error) {
	calls, err := s.repo.ListByResident(ctx, residentID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*CallResponse, 0, len(calls))
	for _, c := range calls {
		out = append(out, s.toResponse(ctx, c))
	}
	return out, nil
}

// markMissed finalizes an unanswered call: status, call record in the
// channel and a notification for the callee. Record and notification
// failures are logged, the status update is what matters.
func (s *Service) markMissed(ctx context.Context, c *Call, callerName string) {
	c.Status = StatusMissed
	c.EndedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := s.repo.Update(ctx, c); err != nil {
		s.log.Warn("call: missed update failed", zap.Int64("call_id", c.ID), zap.Error(err))
		return
	}

	if err := s.chans.AppendCallRecord(ctx, c.ChannelID, c.CallerID, "Missed call"); err != nil {
		s.log.Warn("call: record append failed", zap.Int64("call_id", c.ID), zap.Error(err))
	}
	if err := s.notifs.CallMissed(ctx, c.CalleeID, c.BuildingID, c.ID, callerName); err != nil {
		s.log.Warn("call: missed notification failed", zap.Int64("call_id", c.ID), zap.Error(err))
	}
}

func (s *Service) pushToPeer(ctx context.Context, c *Call, actorID int64, action string) {
	name := ""
	if r, err := s.dir.GetResident(ctx, actorID); err == nil {
		name = r.FullName()
	}
	s.hub.PushToUser(c.Peer(actorID), &realtime.Event{
		Type:      realtime.EventCall,
		ChannelID: c.ChannelID,
		From:      actorID,
		Payload: callEvent{
			Action:    action,
			CallID:    c.ID,
			ChannelID: c.ChannelID,
			PeerID:    actorID,
			PeerName:  name,
		},
	})
}

func (s *Service) toResponse(ctx context.Context, c *Call) *CallResponse {
	resp := &CallResponse{
		ID:              c.ID,
		ChannelID:       c.ChannelID,
		BuildingID:      c.BuildingID,
		CallerID:        c.CallerID,
		CalleeID:        c.CalleeID,
		Status:          string(c.Status),
		StartedAt:       c.StartedAt,
		DurationSeconds: c.DurationSeconds,
	}
	if c.EndedAt.Valid {
		t := c.EndedAt.Time
		resp.EndedAt = &t
	}
	if r, err := s.dir.GetResident(ctx, c.CallerID); err == nil {
		resp.CallerName = r.FullName()
	}
	if r, err := s.dir.GetResident(ctx, c.CalleeID); err == nil {
		resp.CalleeName = r.FullName()
	}
	return resp
}

func formatDuration(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
