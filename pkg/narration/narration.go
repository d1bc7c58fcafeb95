// Package narration provides the collaborators that read POI text aloud.
package narration

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupported means no narration is possible; no completion will follow.
var ErrUnsupported = errors.New("narration unsupported")

// Narrator reads text aloud and calls done once it has finished.
type Narrator interface {
	Speak(ctx context.Context, text string, done func()) error
	Cancel()
}

// Null never speaks.
type Null struct{}

func (Null) Speak(ctx context.Context, text string, done func()) error {
	return ErrUnsupported
}

func (Null) Cancel() {}

// New returns the narrator for an engine name.
func New(engine string, hub Broadcaster) (Narrator, error) {
	switch engine {
	case "none", "":
		return Null{}, nil
	case "remote":
		if hub == nil {
			return nil, fmt.Errorf("remote narration needs a broadcaster")
		}
		return NewRemote(hub), nil
	default:
		return nil, fmt.Errorf("unknown narration engine: %s", engine)
	}
}
