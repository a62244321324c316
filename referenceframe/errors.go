package referenceframe

import "github.com/pkg/errors"

// NewWrongFrameError is returned when a pose is expressed in a frame other than the one required.
func NewWrongFrameError(want, got string) error {
	return errors.Errorf("pose must be expressed in the %q frame, got %q", want, got)
}

// RequireFrame returns an error unless pF is non-nil and expressed in frame.
func RequireFrame(pF *PoseInFrame, frame string) error {
	if pF == nil {
		return errors.New("pose is nil")
	}
	if pF.FrameName() != frame {
		return NewWrongFrameError(frame, pF.FrameName())
	}
	return nil
}
