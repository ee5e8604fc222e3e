// Package conversation collects a search condition from a user over several
// chat turns.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobguide/internal/condition"
	"github.com/spigell/jobguide/internal/logger"
)

type Stage string

const (
	StageCollecting Stage = "collecting"
	StageReady      Stage = "ready"
)

const DefaultMaxTurns = 3

const partialSearchIntro = "好的，我先用目前的條件為你搜尋，你可以稍後再調整：\n\n"

// State is the per-user conversation entry.
type State struct {
	Stage           Stage                     `json:"stage"`
	AccumulatedText string                    `json:"accumulated_text"`
	Condition       condition.SearchCondition `json:"condition"`
	TurnCount       int                       `json:"turn_count"`
	UpdatedAt       time.Time                 `json:"updated_at"`
}

// Parser turns text into a condition. *condition.Extractor satisfies it.
type Parser interface {
	Parse(text string) condition.SearchCondition
}

// Result is the outcome of one turn.
type Result struct {
	Stage     Stage
	Condition condition.SearchCondition
	TurnCount int
	// Partial is set when the turn ceiling forced the search with missing fields.
	Partial      bool
	Text         string
	QuickReplies []condition.QuickReply
}

// Ready reports whether the condition should be searched now.
func (r Result) Ready() bool {
	return r.Stage == StageReady
}

type Options struct {
	MaxTurns int
}

// Manager owns the conversation store. Turns from the same user are
// processed one at a time; different users proceed in parallel.
type Manager struct {
	parser   Parser
	store    Store
	maxTurns int
	locks    *keyedMutex
	logger   *zap.Logger
	now      func() time.Time
}

func NewManager(parser Parser, store Store, opts Options, log *zap.Logger) *Manager {
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}
	if store == nil {
		store = NewMemoryStore(0)
	}
	return &Manager{
		parser:   parser,
		store:    store,
		maxTurns: opts.MaxTurns,
		locks:    newKeyedMutex(),
		logger:   logger.WithFields(log),
		now:      time.Now,
	}
}

// Process applies one user turn. The accumulated text of all turns is parsed
// from scratch every time, so a later turn may override earlier fields. The
// conversation becomes ready when no required field is missing or after
// MaxTurns turns, whichever comes first. A ready conversation starts over on
// the next turn.
func (m *Manager) Process(ctx context.Context, userID, text string) (Result, error) {
	unlock := m.locks.Lock(userID)
	defer unlock()

	log := logger.WithUser(m.logger, userID, "")

	state, found, err := m.store.Get(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("load conversation: %w", err)
	}

	text = strings.TrimSpace(text)
	if !found || state.Stage == StageReady {
		state = State{Stage: StageCollecting, AccumulatedText: text}
	} else {
		state.AccumulatedText = strings.TrimSpace(state.AccumulatedText + " " + text)
	}

	state.TurnCount++
	state.Condition = m.parser.Parse(state.AccumulatedText)
	state.UpdatedAt = m.now().UTC()

	result := Result{Condition: state.Condition, TurnCount: state.TurnCount}
	switch {
	case state.Condition.IsComplete():
		state.Stage = StageReady
		result.Text = condition.Confirmation(state.Condition)
	case state.TurnCount >= m.maxTurns:
		state.Stage = StageReady
		result.Partial = true
		result.Text = partialSearchIntro + condition.Confirmation(state.Condition)
	default:
		state.Stage = StageCollecting
		result.Text = condition.Clarification(state.Condition)
		result.QuickReplies = condition.QuickReplies(state.Condition.MissingFields())
	}
	result.Stage = state.Stage

	if err := m.store.Put(ctx, userID, state); err != nil {
		return Result{}, fmt.Errorf("save conversation: %w", err)
	}

	log.Debug("conversation turn",
		zap.String(logger.FieldStage, string(state.Stage)),
		zap.Int("turn", state.TurnCount),
		zap.Strings("missing_fields", state.Condition.MissingFields()),
	)

	return result, nil
}

// Reset forgets the user's conversation.
func (m *Manager) Reset(ctx context.Context, userID string) error {
	unlock := m.locks.Lock(userID)
	defer unlock()

	if err := m.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("reset conversation: %w", err)
	}
	return nil
}

// State returns the stored conversation for userID, if any.
func (m *Manager) State(ctx context.Context, userID string) (State, bool, error) {
	unlock := m.locks.Lock(userID)
	defer unlock()

	return m.store.Get(ctx, userID)
}
