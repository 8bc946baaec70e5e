package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultThreshold = 6

var (
	ErrSummarize    = errors.New("summarize conversation")
	ErrEmptySummary = errors.New("summarizer returned an empty summary")
)

type Config struct {
	Threshold int `default:"6"`
}

func (c *Config) Validate() error {
	if c.Threshold < 1 {
		return fmt.Errorf("conversation threshold must be >= 1, got %d", c.Threshold)
	}
	return nil
}

// Summarizer condenses a conversation into a single piece of text.
type Summarizer interface {
	Summarize(ctx context.Context, history []Message) (string, error)
}

// RemoveMessage tells the history owner to drop the message with ID.
type RemoveMessage struct {
	ID string
}

// Compaction is the outcome of one successful compaction: the summary to upsert and
// the messages to drop.
type Compaction struct {
	Summary  Message
	Updated  bool
	Removals []RemoveMessage
}

type Manager struct {
	summarizer Summarizer
	threshold  int
	log        zerolog.Logger
}

func NewManager(summarizer Summarizer, cfg Config) (*Manager, error) {
	if summarizer == nil {
		return nil, errors.New("summarizer is required")
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		summarizer: summarizer,
		threshold:  cfg.Threshold,
		log:        log.Logger.With().Str("component", "conversation").Logger(),
	}, nil
}

func (m *Manager) ShouldCompact(msgs []Message) bool {
	return len(msgs) > m.threshold
}

// Compact summarizes the history and computes which messages to drop. It does not
// touch msgs; on error nothing should be removed.
func (m *Manager) Compact(ctx context.Context, msgs []Message) (Compaction, error) {
	keepUser := ""
	if i := LatestUser(msgs); i >= 0 {
		keepUser = msgs[i].ID
	}

	text, err := m.summarizer.Summarize(ctx, msgs)
	if err != nil {
		return Compaction{}, fmt.Errorf("%w: %v", ErrSummarize, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Compaction{}, ErrEmptySummary
	}

	out := Compaction{
		Summary: Message{ID: SummaryID, Role: RoleAssistant, Content: text},
	}
	for _, msg := range msgs {
		switch msg.ID {
		case SummaryID:
			out.Updated = true
		case CustomerMarkerID, keepUser:
		default:
			out.Removals = append(out.Removals, RemoveMessage{ID: msg.ID})
		}
	}
	return out, nil
}

// Process compacts msgs when the threshold is exceeded and returns the resulting
// history. Any failure is logged and msgs is returned unchanged, so the next turn
// tries again.
func (m *Manager) Process(ctx context.Context, msgs []Message) []Message {
	if !m.ShouldCompact(msgs) {
		return msgs
	}

	c, err := m.Compact(ctx, msgs)
	if err != nil {
		m.log.Warn().Err(err).Int("messages", len(msgs)).Msg("conversation compaction skipped")
		return msgs
	}

	out := Apply(msgs, c)
	m.log.Debug().
		Int("before", len(msgs)).
		Int("after", len(out)).
		Bool("summary_updated", c.Updated).
		Msg("conversation compacted")
	return out
}

// Apply upserts the summary and then drops every message named by a removal.
// The input slice is not modified.
func Apply(msgs []Message, c Compaction) []Message {
	drop := make(map[string]struct{}, len(c.Removals))
	for _, r := range c.Removals {
		drop[r.ID] = struct{}{}
	}

	out := make([]Message, 0, len(msgs)+1)
	replaced := false
	for _, msg := range msgs {
		if _, ok := drop[msg.ID]; ok {
			continue
		}
		if msg.ID == SummaryID {
			msg.Content = c.Summary.Content
			replaced = true
		}
		out = append(out, msg)
	}
	if !replaced && c.Summary.ID != "" {
		out = append(out, c.Summary)
	}
	return out
}
