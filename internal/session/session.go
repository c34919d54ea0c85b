package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/internal/services/events"
	"github.com/jwebster45206/scene-engine/pkg/engine"
	"github.com/jwebster45206/scene-engine/pkg/state"
)

// Op is one of the five reader inputs a session accepts.
type Op string

const (
	OpStart   Op = "start"
	OpAdvance Op = "advance"
	OpBack    Op = "back"
	OpChoice  Op = "choice"
	OpRestart Op = "restart"
)

func ParseOp(s string) (Op, error) {
	switch op := Op(strings.ToLower(s)); op {
	case OpStart, OpAdvance, OpBack, OpChoice, OpRestart:
		return op, nil
	default:
		return "", fmt.Errorf("unknown operation %q", s)
	}
}

const publishTimeout = 2 * time.Second

// Session is one reader's play-through. It serializes access to its engine,
// which is not safe for concurrent use.
type Session struct {
	ID           uuid.UUID
	ScenarioFile string
	CreatedAt    time.Time

	mu        sync.Mutex
	engine    *engine.Engine
	last      engine.RenderInstruction
	publisher events.Publisher
	logger    *slog.Logger
}

// View is what the API returns for a session.
type View struct {
	ID       uuid.UUID                `json:"id"`
	Scenario string                   `json:"scenario"`
	Render   engine.RenderInstruction `json:"render"`
	State    state.Snapshot           `json:"state"`
}

// Render records the latest instruction and forwards it to the publisher.
// The engine calls it while the session lock is held.
func (s *Session) Render(ri engine.RenderInstruction) {
	s.last = ri
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishRender(ctx, s.ID, ri); err != nil {
		s.logger.Warn("Failed to publish render", "error", err)
	}
}

// Do applies one reader input. arg is the choice target for OpChoice and
// ignored otherwise. A refused transition returns the error and leaves the
// session unchanged.
func (s *Session) Do(op Op, arg string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch op {
	case OpStart:
		err = s.engine.Start()
	case OpAdvance:
		err = s.engine.Advance()
	case OpBack:
		err = s.engine.Back()
	case OpChoice:
		if arg == "" {
			err = fmt.Errorf("choice requires a target scene")
		} else {
			err = s.engine.SelectChoice(arg)
		}
	case OpRestart:
		err = s.engine.Restart()
	default:
		err = fmt.Errorf("unknown operation %q", op)
	}
	if err != nil {
		s.logger.Warn("Session operation refused", "op", op, "arg", arg, "error", err)
	}
	return s.view(), err
}

// View returns the current render instruction and state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *Session) view() View {
	return View{
		ID:       s.ID,
		Scenario: s.ScenarioFile,
		Render:   s.last,
		State:    s.engine.Snapshot(),
	}
}
