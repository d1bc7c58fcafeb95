package narration

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ringroad/pkg/model"
)

// Message types exchanged with renderers.
const (
	TypeNarrate       = "narrate"
	TypeNarrateCancel = "narrate_cancel"
	TypeNarrationDone = "narration_done"
)

// Message is the narration payload sent to renderers.
type Message struct {
	Type      string           `json:"type"`
	Narration *model.Narration `json:"narration,omitempty"`
}

// Broadcaster delivers messages to connected renderers.
type Broadcaster interface {
	Broadcast(v any)
	ClientCount() int
}

type pending struct {
	done func()
	stop func() bool // detaches the context watcher
}

// Remote delegates speech to connected renderers (browser speech synthesis)
// and completes when one of them reports the token back.
type Remote struct {
	hub    Broadcaster
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]pending
}

// NewRemote creates a remote narrator on top of hub.
func NewRemote(hub Broadcaster) *Remote {
	return &Remote{
		hub:     hub,
		logger:  slog.With("component", "narration"),
		pending: make(map[string]pending),
	}
}

// Speak broadcasts the text. With no renderer connected it returns ErrUnsupported.
func (r *Remote) Speak(ctx context.Context, text string, done func()) error {
	if r.hub.ClientCount() == 0 {
		return ErrUnsupported
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	n := &model.Narration{
		Token:     uuid.NewString(),
		Text:      text,
		CreatedAt: time.Now(),
	}

	stop := context.AfterFunc(ctx, func() { r.drop(n.Token) })
	r.mu.Lock()
	r.pending[n.Token] = pending{done: done, stop: stop}
	r.mu.Unlock()

	r.hub.Broadcast(Message{Type: TypeNarrate, Narration: n})
	r.logger.Debug("Narration sent", "token", n.Token, "chars", len(text))
	return nil
}

// Complete handles a renderer's completion report. Unknown or repeated tokens are ignored.
func (r *Remote) Complete(token string) bool {
	r.mu.Lock()
	p, ok := r.pending[token]
	delete(r.pending, token)
	r.mu.Unlock()
	if !ok {
		return false
	}

	p.stop()
	if p.done != nil {
		p.done()
	}
	return true
}

// Cancel drops pending completions and tells renderers to stop speaking.
func (r *Remote) Cancel() {
	r.mu.Lock()
	for token, p := range r.pending {
		p.stop()
		delete(r.pending, token)
	}
	r.mu.Unlock()

	r.hub.Broadcast(Message{Type: TypeNarrateCancel})
}

// Pending returns the number of narrations awaiting completion.
func (r *Remote) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Remote) drop(token string) {
	r.mu.Lock()
	delete(r.pending, token)
	r.mu.Unlock()
}
