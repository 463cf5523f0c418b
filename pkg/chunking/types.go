// Package chunking groups parsed messages into adaptively sized,
// time-bounded chunks.
//
// The window adapts to conversation density: dense conversations get
// short windows, sparse ones get long windows. A hard message cap
// bounds chunk text size independently of elapsed time. Pure
// time-windowing fails on very dense periods; pure count-windowing
// loses temporal locality on sparse conversations.
package chunking

import (
	"time"

	"github.com/sevgi-app/memoir/pkg/chatlog"
)

// Chunk is a contiguous, time-bounded run of messages. StartDate and
// EndDate are the first and last message timestamps (inclusive).
// RawText is the full formatted transcript; it is stored in blob
// storage separately from the chunk's index metadata.
type Chunk struct {
	ID        string            `json:"id"`
	StartDate time.Time         `json:"start_date"`
	EndDate   time.Time         `json:"end_date"`
	Messages  []chatlog.Message `json:"-"`
	Speakers  []string          `json:"speakers"`
	RawText   string            `json:"-"`
	DateRange string            `json:"date_range"`
}
