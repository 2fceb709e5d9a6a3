package edit

import (
	"errors"
)

var (
	// ErrNoStaff is reported if no owning staff could be determined.
	ErrNoStaff = errors.New("no staff found")
	// ErrAborted is reported if the user declined a confirmation or did
	// not choose, or if a decision is required in headless mode.
	ErrAborted        = errors.New("operation aborted")
	ErrNothingToUndo  = errors.New("nothing to undo")
	ErrNothingToRedo  = errors.New("nothing to redo")
	ErrUnavailable    = errors.New("capability unavailable")
	ErrClosed         = errors.New("controller closed")
	ErrInvalidRequest = errors.New("invalid request")
)
