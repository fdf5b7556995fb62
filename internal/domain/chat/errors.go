package chat

import "errors"

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrNotMember       = errors.New("you are not a member of this channel")
	ErrCannotChatSelf  = errors.New("cannot start chat with yourself")
	ErrNotInBuilding   = errors.New("resident has no active membership in this building")
	ErrMemberNotFound  = errors.New("member not found")
)
