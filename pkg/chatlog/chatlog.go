// Package chatlog parses exported chat transcripts into ordered message
// records.
//
// Supported line formats:
//  1. [01/01/2024, 10:30:45] Name: text
//  2. 01/01/2024, 10:30 - Name: text
//  3. 01.01.2024, 10:30 - Name: text
//
// A line that matches no timestamp pattern is a continuation of the
// previous message; with no previous message the line is dropped.
// Service lines (encryption notices, group events, media placeholders)
// are filtered out after parsing.
package chatlog

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoMessages is returned when an export yields zero parseable
// messages. Ingestion must abort on it rather than continue with an
// empty chunk set.
var ErrNoMessages = errors.New("no messages found in chat export")

// Message is a single utterance. Immutable once parsed.
type Message struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// FormatLine renders a message the way chunk transcripts store it.
func (m Message) FormatLine() string {
	return fmt.Sprintf("[%s] %s: %s", m.Timestamp.Format("2006-01-02 15:04"), m.Sender, m.Content)
}
