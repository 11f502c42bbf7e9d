package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"finstress/internal/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	Greeting       = "Hello! I'm the FinStress AI assistant. How can I help you with your finances today?"
	genericFailure = "Sorry, something went wrong while processing your message. Please try again."
	greetingID     = "1"
)

var (
	ErrBusy         = errors.New("a message is already being answered")
	ErrEmptyMessage = errors.New("message is empty")
)

// Outcome labels reported to the Observer.
const (
	OutcomeOK     = "ok"
	OutcomeError  = "error"
	OutcomeConfig = "config"
)

// Observer is notified after every exchange.
type Observer func(outcome string, elapsed time.Duration)

// Conversation is the visible transcript plus a single-slot in-flight guard.
type Conversation struct {
	mu       sync.Mutex
	messages []models.ChatMessage
	inFlight bool
	// generation changes on every Reset.
	generation int

	completer Completer
	// configErr is shown instead of calling out when no client could be built.
	configErr error
	observe   Observer
	now       func() time.Time
}

// NewConversation creates a transcript seeded with the greeting. completer may
// be nil, in which case configErr explains why.
func NewConversation(completer Completer, configErr error, observe Observer) *Conversation {
	if completer == nil && configErr == nil {
		configErr = ErrMissingAPIKey
	}
	c := &Conversation{completer: completer, configErr: configErr, observe: observe, now: time.Now}
	c.messages = []models.ChatMessage{c.greeting()}
	return c
}

func (c *Conversation) greeting() models.ChatMessage {
	return models.ChatMessage{ID: greetingID, Content: Greeting, Role: models.RoleAssistant, Timestamp: c.now()}
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Busy reports whether a request is in flight.
func (c *Conversation) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Reset restores the transcript to the greeting.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.messages = []models.ChatMessage{c.greeting()}
}

// Send appends text to the transcript and asks for a reply primed with the
// given financial data. Failures become assistant messages; the returned error
// is only ErrEmptyMessage or ErrBusy, in which case nothing was appended.
// A reply arriving after Reset is returned but not appended.
func (c *Conversation) Send(ctx context.Context, text string, list []models.Expense, budget float64) (models.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return models.ChatMessage{}, ErrBusy
	}
	c.inFlight = true
	generation := c.generation
	history := make([]Message, 0, len(c.messages)+2)
	history = append(history, Message{Role: models.RoleSystem, Content: SystemPrompt(list, budget)})
	for _, m := range c.messages {
		history = append(history, Message{Role: m.Role, Content: m.Content})
	}
	history = append(history, Message{Role: models.RoleUser, Content: text})
	c.messages = append(c.messages, c.newMessage(models.RoleUser, text))
	c.mu.Unlock()

	start := c.now()
	reply, outcome := c.complete(ctx, history)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	msg := c.newMessage(models.RoleAssistant, reply)
	if c.generation == generation {
		c.messages = append(c.messages, msg)
	}
	if c.observe != nil {
		c.observe(outcome, c.now().Sub(start))
	}
	return msg, nil
}

func (c *Conversation) complete(ctx context.Context, history []Message) (string, string) {
	if c.completer == nil {
		return c.configErr.Error(), OutcomeConfig
	}
	reply, err := c.completer.Complete(ctx, history)
	if err != nil {
		log.WithError(err).Warn("Chat completion failed")
		if msg := err.Error(); msg != "" {
			return msg, OutcomeError
		}
		return genericFailure, OutcomeError
	}
	return reply, OutcomeOK
}

func (c *Conversation) newMessage(role models.Role, content string) models.ChatMessage {
	return models.ChatMessage{ID: uuid.NewString(), Content: content, Role: role, Timestamp: c.now()}
}
