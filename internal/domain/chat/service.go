package chat

import (
	"context"
	"database/sql"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"residence/internal/domain/directory"
	"residence/internal/realtime"
)

const previewLen = 80

// Directory is the slice of directory lookups the chat service needs.
// Satisfied by directory.Repository.
type Directory interface {
	GetResident(ctx context.Context, id int64) (*directory.Resident, error)
	GetBuilding(ctx context.Context, id int64) (*directory.Building, error)
	ActiveMemberships(ctx context.Context, residentID, buildingID int64) ([]*directory.Membership, error)
	HasRole(ctx context.Context, residentID, buildingID int64, roles ...directory.Role) (bool, error)
}

// Notifier records chat notifications for offline members.
// Satisfied by notification.Service.
type Notifier interface {
	ChatMessage(ctx context.Context, residentID, buildingID, channelID int64, senderName, preview string) error
}

// Broadcaster pushes real-time events to connected clients.
// Satisfied by realtime.Hub.
type Broadcaster interface {
	BroadcastToChannel(channelID int64, event *realtime.Event)
	IsConnected(residentID int64) bool
}

type Service struct {
	repo   Repository
	dir    Directory
	notifs Notifier
	hub    Broadcaster
	log    *zap.Logger
}

func NewService(repo Repository, dir Directory, notifs Notifier, hub Broadcaster, log *zap.Logger) *Service {
	return &Service{repo: repo, dir: dir, notifs: notifs, hub: hub, log: log}
}

// GetOrCreateDirect returns the 1-on-1 channel between the caller and
// another resident of the same building, creating it on first use.
func (s *Service) GetOrCreateDirect(ctx context.Context, residentID int64, req DirectChannelRequest) (*ChannelResponse, error) {
	if req.ResidentID == residentID {
		return nil, ErrCannotChatSelf
	}

	if _, err := s.dir.GetBuilding(ctx, req.BuildingID); err != nil {
		return nil, err
	}
	if _, err := s.dir.GetResident(ctx, req.ResidentID); err != nil {
		return nil, err
	}
	for _, id := range []int64{residentID, req.ResidentID} {
		ms, err := s.dir.ActiveMemberships(ctx, id, req.BuildingID)
		if err != nil {
			return nil, err
		}
		if len(ms) == 0 {
			return nil, ErrNotInBuilding
		}
	}

	ch, err := s.repo.GetDirectChannel(ctx, req.BuildingID, residentID, req.ResidentID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		ch = &Channel{
			BuildingID: req.BuildingID,
			Type:       ChannelDirect,
			CreatedBy:  sql.NullInt64{Int64: residentID, Valid: true},
			CreatedAt:  time.Now(),
		}
		if err := s.repo.CreateChannel(ctx, ch); err != nil {
			return nil, err
		}
		for _, id := range []int64{residentID, req.ResidentID} {
			m := &ChannelMember{ChannelID: ch.ID, ResidentID: id, JoinedAt: time.Now()}
			if err := s.repo.AddMember(ctx, m); err != nil {
				return nil, err
			}
		}
	}

	return s.toChannelResponse(ctx, ch, residentID)
}

// CreateGroup creates a group channel in a building. Only admins and
// managers of the building may create groups.
func (s *Service) CreateGroup(ctx context.Context, residentID int64, req CreateGroupRequest) (*ChannelResponse, error) {
	if _, err := s.dir.GetBuilding(ctx, req.BuildingID); err != nil {
		return nil, err
	}
	elevated, err := s.dir.HasRole(ctx, residentID, req.BuildingID, directory.RoleAdmin, directory.RoleManager)
	if err != nil {
		return nil, err
	}
	if !elevated {
		return nil, directory.ErrNotBuildingAdmin
	}

	ch := &Channel{
		BuildingID: req.BuildingID,
		Type:       ChannelGroup,
		Name:       sql.NullString{String: req.Name, Valid: true},
		CreatedBy:  sql.NullInt64{Int64: residentID, Valid: true},
		CreatedAt:  time.Now(),
	}
	if err := s.repo.CreateChannel(ctx, ch); err != nil {
		return nil, err
	}

	seen := map[int64]bool{residentID: true}
	members := []int64{residentID}
	for _, id := range req.MemberIDs {
		if !seen[id] {
			seen[id] = true
			members = append(members, id)
		}
	}
	for _, id := range members {
		if _, err := s.dir.GetResident(ctx, id); err != nil {
			return nil, err
		}
		m := &ChannelMember{ChannelID: ch.ID, ResidentID: id, JoinedAt: time.Now()}
		if err := s.repo.AddMember(ctx, m); err != nil {
			return nil, err
		}
	}

	return s.toChannelResponse(ctx, ch, residentID)
}

// ListChannels returns every channel the caller belongs to, with unread
// counts.
func (s *Service) ListChannels(ctx context.Context, residentID int64) ([]*ChannelResponse, error) {
	channels, err := s.repo.ChannelsByResident(ctx, residentID)
	if err != nil {
		return nil, err
	}

	out := make([]*ChannelResponse, 0, len(channels))
	for _, ch := range channels {
		resp, err := s.toChannelResponse(ctx, ch, residentID)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

// SendMessage persists a text message, broadcasts it to connected
// subscribers and notifies offline members.
func (s *Service) SendMessage(ctx context.Context, residentID, channelID int64, req SendMessageRequest) (*MessageResponse, error) {
	ch, err := s.repo.GetChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, channelID, residentID); err != nil {
		return nil, err
	}

	msg := &Message{
		ChannelID: channelID,
		SenderID:  residentID,
		Kind:      MessageText,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	sender, err := s.dir.GetResident(ctx, residentID)
	if err != nil {
		return nil, err
	}
	resp := toMessageResponse(msg, sender.FullName())

	s.hub.BroadcastToChannel(channelID, &realtime.Event{
		Type:      realtime.EventChatMessage,
		ChannelID: channelID,
		From:      residentID,
		Payload:   resp,
	})
	s.notifyOffline(ctx, ch, msg, sender.FullName())

	return resp, nil
}

// AppendCallRecord writes a system message into a channel, such as a
// missed-call entry. The caller must already have checked membership.
func (s *Service) AppendCallRecord(ctx context.Context, channelID, senderID int64, content string) error {
	msg := &Message{
		ChannelID: channelID,
		SenderID:  senderID,
		Kind:      MessageCall,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return err
	}

	sender, err := s.dir.GetResident(ctx, senderID)
	if err != nil {
		return err
	}
	s.hub.BroadcastToChannel(channelID, &realtime.Event{
		Type:      realtime.EventChatMessage,
		ChannelID: channelID,
		From:      senderID,
		Payload:   toMessageResponse(msg, sender.FullName()),
	})
	return nil
}

// ListMessages returns a page of channel messages, newest first.
func (s *Service) ListMessages(ctx context.Context, residentID, channelID int64, limit, offset int) ([]*MessageResponse, error) {
	if _, err := s.repo.GetChannel(ctx, channelID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, channelID, residentID); err != nil {
		return nil, err
	}

	msgs, err := s.repo.ListMessages(ctx, channelID, limit, offset)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string)
	out := make([]*MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		name, ok := names[m.SenderID]
		if !ok {
			r, err := s.dir.GetResident(ctx, m.SenderID)
			if err == nil {
				name = r.FullName()
			}
			names[m.SenderID] = name
		}
		out = append(out, toMessageResponse(m, name))
	}
	return out, nil
}

// MarkChannelRead records the caller's read position in a channel, which
// resets its unread count.
func (s *Service) MarkChannelRead(ctx context.Context, residentID, channelID int64) error {
	if _, err := s.repo.GetChannel(ctx, channelID); err != nil {
		return err
	}
	if err := s.requireMember(ctx, channelID, residentID); err != nil {
		return err
	}
	return s.repo.UpdateLastRead(ctx, channelID, residentID)
}

func (s *Service) requireMember(ctx context.Context, channelID, residentID int64) error {
	ok, err := s.repo.IsMember(ctx, channelID, residentID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}

// notifyOffline records a notification for every member without a live
// connection. Failures are logged and never surface to the sender.
func (s *Service) notifyOffline(ctx context.Context, ch *Channel, msg *Message, senderName string) {
	members, err := s.repo.GetMembers(ctx, ch.ID)
	if err != nil {
		s.log.Warn("chat: list members for notify failed",
			zap.Int64("channel_id", ch.ID), zap.Error(err))
		return
	}

	preview := msg.Content
	if utf8.RuneCountInString(preview) > previewLen {
		preview = string([]rune(preview)[:previewLen])
	}

	for _, m := range members {
		if m.ResidentID == msg.SenderID || s.hub.IsConnected(m.ResidentID) {
			continue
		}
		if err := s.notifs.ChatMessage(ctx, m.ResidentID, ch.BuildingID, ch.ID, senderName, preview); err != nil {
			s.log.Warn("chat: message notification failed",
				zap.Int64("resident_id", m.ResidentID),
				zap.Int64("channel_id", ch.ID),
				zap.Error(err))
		}
	}
}

func (s *Service) toChannelResponse(ctx context.Context, ch *Channel, viewerID int64) (*ChannelResponse, error) {
	members, err := s.repo.GetMembers(ctx, ch.ID)
	if err != nil {
		return nil, err
	}

	resp := &ChannelResponse{
		ID:         ch.ID,
		BuildingID: ch.BuildingID,
		Type:       string(ch.Type),
		CreatedAt:  ch.CreatedAt,
	}
	if ch.Name.Valid {
		resp.Name = ch.Name.String
	}

	for _, m := range members {
		mr := MemberResponse{ResidentID: m.ResidentID}
		if r, err := s.dir.GetResident(ctx, m.ResidentID); err == nil {
			mr.Name = r.FullName()
		}
		resp.Members = append(resp.Members, mr)
		// Direct channels are shown under the other party's name.
		if ch.Type == ChannelDirect && m.ResidentID != viewerID && resp.Name == "" {
			resp.Name = mr.Name
		}
	}

	unread, err := s.repo.CountUnread(ctx, ch.ID, viewerID)
	if err != nil {
		return nil, err
	}
	resp.UnreadCount = unread

	return resp, nil
}

func toMessageResponse(m *Message, senderName string) *MessageResponse {
	return &MessageResponse{
		ID:         m.ID,
		ChannelID:  m.ChannelID,
		SenderID:   m.SenderID,
		SenderName: senderName,
		Kind:       string(m.Kind),
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
}
