package notification

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"residence/internal/pkg/metrics"
	"residence/internal/realtime"
)

// Pusher delivers a real-time event to one connected resident.
// Implemented by realtime.Hub. The push must not block: the hub queues
// into a bounded per-connection buffer and drops when full.
type Pusher interface {
	PushToUser(residentID int64, event *realtime.Event) bool
}

// Service is the notification dispatcher. Every send persists a row
// first (the delivery guarantee), then attempts a best-effort push to
// the addressed resident if currently connected. A failed push is
// logged and swallowed; the recipient catches up on the next list call.
type Service struct {
	repo   Repository
	pusher Pusher
	log    *zap.Logger
}

func NewService(repo Repository, pusher Pusher, log *zap.Logger) *Service {
	return &Service{repo: repo, pusher: pusher, log: log}
}

// Send persists the notification and attempts the live push.
func (s *Service) Send(ctx context.Context, n *Notification) error {
	if !n.Type.Valid() {
		return ErrUnknownType
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	metrics.NotificationsSentTotal.WithLabelValues(string(n.Type)).Inc()

	if s.pusher != nil {
		delivered := s.pusher.PushToUser(n.ResidentID, &realtime.Event{
			Type:    realtime.EventNotification,
			Payload: n,
		})
		metrics.NotificationsPushedTotal.WithLabelValues(strconv.FormatBool(delivered)).Inc()
		if !delivered {
			s.log.Debug("notification push skipped",
				zap.Int64("resident_id", n.ResidentID),
				zap.String("type", string(n.Type)))
		}
	}
	return nil
}

// List returns a resident's notifications, newest first, optionally
// scoped to one building, plus the unread count.
func (s *Service) List(ctx context.Context, residentID int64, buildingID *int64, limit, offset int) ([]*Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	list, err := s.repo.ListByResident(ctx, residentID, buildingID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	unread, err := s.repo.CountUnread(ctx, residentID, buildingID)
	if err != nil {
		return nil, 0, err
	}

	return list, unread, nil
}

// Get returns one notification. Residents only see their own; a foreign
// id reads as not found.
func (s *Service) Get(ctx context.Context, id, residentID int64) (*Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.ResidentID != residentID {
		return nil, ErrNotFound
	}
	return n, nil
}

func (s *Service) UnreadCount(ctx context.Context, residentID int64, buildingID *int64) (int64, error) {
	return s.repo.CountUnread(ctx, residentID, buildingID)
}

func (s *Service) MarkAsRead(ctx context.Context, id, residentID int64) error {
	return s.repo.MarkAsRead(ctx, id, residentID)
}

func (s *Service) MarkAllAsRead(ctx context.Context, residentID int64) error {
	return s.repo.MarkAllAsRead(ctx, residentID)
}

// ---- Typed senders, one per kind ----
//
// These are the only places notifications are composed; callers in other
// domains depend on the narrow interfaces they declare, not on this
// package's internals.

func (s *Service) ClaimFiled(ctx context.Context, residentID, buildingID, claimID int64, apartmentNumber string) error {
	return s.Send(ctx, &Notification{
		ResidentID: residentID,
		BuildingID: buildingID,
		Type:       TypeClaimNew,
		Title:      "New claim reported",
		Body:       fmt.Sprintf("A claim was reported for apartment %s", apartmentNumber),
		RelatedID:  sql.NullInt64{Int64: claimID, Valid: true},
	})
}

func (s *Service) ApartmentAffected(ctx context.Context, residentID, buildingID, claimID int64, apartmentNumber string) error {
	return s.Send(ctx, &Notification{
		ResidentID: residentID,
		BuildingID: buildingID,
		Type:       TypeClaimAffected,
		Title:      "Your apartment is affected by a claim",
		Body:       fmt.Sprintf("A claim reported for apartment %s affects your home", apartmentNumber),
		RelatedID:  sql.NullInt64{Int64: claimID, Valid: true},
	})
}

func (s *Service) ClaimStatusChanged(ctx context.Context, residentID, buildingID, claimID int64, status string) error {
	return s.Send(ctx, &Notification{
		ResidentID: residentID,
		BuildingID: buildingID,
		Type:       TypeClaimStatusUpdate,
		Title:      "Claim status updated",
		Body:       fmt.Sprintf("The status of your claim changed to %s", status),
		RelatedID:  sql.NullInt64{Int64: claimID, Valid: true},
	})
}

func (s *Service) ChatMessage(ctx context.Context, residentID, buildingID, channelID int64, senderName, preview string) error {
	return s.Send(ctx, &Notification{
		ResidentID: residentID,
		BuildingID: buildingID,
		Type:       TypeChatMessage,
		Title:      fmt.Sprintf("New message from %s", senderName),
		Body:       preview,
		ChannelID:  sql.NullInt64{Int64: channelID, Valid: true},
	})
}

func (s *Service) CallMissed(ctx context.Context, residentID, buildingID, callID int64, callerName string) error {
	return s.Send(ctx, &Notification{
		ResidentID: residentID,
		BuildingID: buildingID,
		Type:       TypeCallMissed,
		Title:      "Missed call",
		Body:       fmt.Sprintf("You missed a call from %s", callerName),
		RelatedID:  sql.NullInt64{Int64: callID, Valid: true},
	})
}
