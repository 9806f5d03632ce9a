// Package chat provides the assistant conversation: a flat append-only
// message log on disk and a service that talks to the same
// OpenAI-compatible endpoint the classifier uses.
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/photovault/internal/filex"
)

// Message is one entry of the conversation log. Thinking carries the
// model's reasoning text when the endpoint returns one.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	FromUser  bool      `json:"from_user"`
	Timestamp time.Time `json:"timestamp"`
	Thinking  string    `json:"thinking,omitempty"`
}

func NewMessage(content string, fromUser bool) Message {
	return Message{
		ID:        uuid.New(),
		Content:   content,
		FromUser:  fromUser,
		Timestamp: time.Now().UTC(),
	}
}

// History persists the whole conversation as one JSON document, published
// atomically on every append. Ordering is the only invariant.
type History struct {
	path string
}

func NewHistory(path string) *History {
	return &History{path: path}
}

// Load returns the stored conversation, empty when none exists yet.
func (h *History) Load() ([]Message, error) {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("read chat history: %w", err)
	}

	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("decode chat history: %w", err)
	}
	return messages, nil
}

// Append adds messages to the end of the log and persists the result.
func (h *History) Append(messages ...Message) error {
	existing, err := h.Load()
	if err != nil {
		return err
	}

	data, err := json.Marshal(append(existing, messages...))
	if err != nil {
		return fmt.Errorf("encode chat history: %w", err)
	}
	return filex.AtomicWrite(h.path, data)
}

// Clear deletes the log. Clearing an absent log succeeds.
func (h *History) Clear() error {
	return filex.RemoveIfExists(h.path)
}
