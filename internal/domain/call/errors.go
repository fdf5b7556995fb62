package call

import "errors"

var (
	ErrCallNotFound      = errors.New("call not found")
	ErrNotParticipant    = errors.New("you are not a participant of this call")
	ErrNotCallee         = errors.New("only the callee can do this")
	ErrInvalidTransition = errors.New("call is not in a state that allows this")
)
