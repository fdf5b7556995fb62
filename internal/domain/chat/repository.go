package chat

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Repository handles all DB operations for the chat domain
type Repository interface {
	// Channels
	CreateChannel(ctx context.Context, ch *Channel) error
	GetChannel(ctx context.Context, id int64) (*Channel, error)
	GetDirectChannel(ctx context.Context, buildingID, residentA, residentB int64) (*Channel, error)
	ChannelsByResident(ctx context.Context, residentID int64) ([]*Channel, error)
	ChannelIDsByResident(ctx context.Context, residentID int64) ([]int64, error)

	// Members
	AddMember(ctx context.Context, m *ChannelMember) error
	GetMembers(ctx context.Context, channelID int64) ([]*ChannelMember, error)
	IsMember(ctx context.Context, channelID, residentID int64) (bool, error)
	UpdateLastRead(ctx context.Context, channelID, residentID int64) error

	// Messages
	CreateMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, channelID int64, limit, offset int) ([]*Message, error)
	CountUnread(ctx context.Context, channelID, residentID int64) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateChannel(ctx context.Context, ch *Channel) error {
	return r.db.WithContext(ctx).Create(ch).Error
}

func (r *repository) GetChannel(ctx context.Context, id int64) (*Channel, error) {
	var ch Channel
	err := r.db.WithContext(ctx).First(&ch, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChannelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *repository) GetDirectChannel(ctx context.Context, buildingID, residentA, residentB int64) (*Channel, error) {
	var ch Channel
	err := r.db.WithContext(ctx).
		Joins("JOIN channel_members ma ON ma.channel_id = channels.id AND ma.resident_id = ?", residentA).
		Joins("JOIN channel_members mb ON mb.channel_id = channels.id AND mb.resident_id = ?", residentB).
		Where("channels.building_id = ? AND channels.type = ?", buildingID, ChannelDirect).
		First(&ch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *repository) ChannelsByResident(ctx context.Context, residentID int64) ([]*Channel, error) {
	var out []*Channel
	err := r.db.WithContext(ctx).
		Joins("JOIN channel_members m ON m.channel_id = channels.id").
		Where("m.resident_id = ?", residentID).
		Order("channels.created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *repository) ChannelIDsByResident(ctx context.Context, residentID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&ChannelMember{}).
		Where("resident_id = ?", residentID).
		Pluck("channel_id", &ids).Error
	return ids, err
}

func (r *repository) AddMember(ctx context.Context, m *ChannelMember) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *repository) GetMembers(ctx context.Context, channelID int64) ([]*ChannelMember, error) {
	var out []*ChannelMember
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Find(&out).Error
	return out, err
}

func (r *repository) IsMember(ctx context.Context, channelID, residentID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ChannelMember{}).
		Where("channel_id = ? AND resident_id = ?", channelID, residentID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) UpdateLastRead(ctx context.Context, channelID, residentID int64) error {
	return r.db.WithContext(ctx).
		Model(&ChannelMember{}).
		Where("channel_id = ? AND resident_id = ?", channelID, residentID).
		Update("last_read_at", time.Now()).Error
}

func (r *repository) CreateMessage(ctx context.Context, msg *Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *repository) ListMessages(ctx context.Context, channelID int64, limit, offset int) ([]*Message, error) {
	q := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var out []*Message
	err := q.Find(&out).Error
	return out, err
}

func (r *repository) CountUnread(ctx context.Context, channelID, residentID int64) (int64, error) {
	var member ChannelMember
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND resident_id = ?", channelID, residentID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrMemberNotFound
	}
	if err != nil {
		return 0, err
	}

	q := r.db.WithContext(ctx).
		Model(&Message{}).
		Where("channel_id = ? AND sender_id <> ?", channelID, residentID)
	if member.LastReadAt.Valid {
		q = q.Where("created_at > ?", member.LastReadAt.Time)
	}

	var count int64
	err = q.Count(&count).Error
	return count, err
}
