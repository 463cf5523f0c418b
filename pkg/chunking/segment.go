package chunking

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sevgi-app/memoir/pkg/chatlog"
	"github.com/sevgi-app/memoir/pkg/memconfig"
)

// WindowDays picks the chunk window for the given average messages/day.
func WindowDays(msgsPerDay float64, cfg *memconfig.Config) int {
	w := cfg.Chunking.Window
	switch {
	case msgsPerDay > w.DenseMsgsPerDay:
		return w.DenseDays
	case msgsPerDay > w.MediumMsgsPerDay:
		return w.MediumDays
	default:
		return w.SparseDays
	}
}

// Segment walks messages in chronological order and cuts a new chunk
// when the elapsed time since the chunk's first message exceeds the
// density-picked window, or when the chunk hits the hard message cap.
func Segment(messages []chatlog.Message, cfg *memconfig.Config) []Chunk {
	if len(messages) == 0 {
		return nil
	}

	sorted := make([]chatlog.Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	totalDays := sorted[len(sorted)-1].Timestamp.Sub(sorted[0].Timestamp).Hours() / 24
	if totalDays < 1 {
		totalDays = 1
	}
	windowDays := WindowDays(float64(len(sorted))/totalDays, cfg)
	window := time.Duration(windowDays) * 24 * time.Hour

	maxMessages := cfg.Chunking.MaxMessages
	if maxMessages <= 0 {
		maxMessages = 1000
	}

	var chunks []Chunk
	var current []chatlog.Message
	var chunkStart time.Time
	chunkNumber := 1

	for _, msg := range sorted {
		if len(current) == 0 {
			chunkStart = msg.Timestamp
		}

		if len(current) > 0 && (msg.Timestamp.Sub(chunkStart) >= window || len(current) >= maxMessages) {
			chunks = append(chunks, finalizeChunk(current, chunkNumber))
			chunkNumber++
			current = []chatlog.Message{msg}
			chunkStart = msg.Timestamp
		} else {
			current = append(current, msg)
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, finalizeChunk(current, chunkNumber))
	}

	return chunks
}

// finalizeChunk builds the chunk record from accumulated messages.
func finalizeChunk(messages []chatlog.Message, chunkNumber int) Chunk {
	lines := make([]string, len(messages))
	for i, msg := range messages {
		lines[i] = msg.FormatLine()
	}

	seen := make(map[string]struct{})
	var speakers []string
	for _, msg := range messages {
		if _, ok := seen[msg.Sender]; !ok {
			seen[msg.Sender] = struct{}{}
			speakers = append(speakers, msg.Sender)
		}
	}

	start := messages[0].Timestamp
	end := messages[len(messages)-1].Timestamp

	return Chunk{
		ID:        fmt.Sprintf("chunk_%03d", chunkNumber),
		StartDate: start,
		EndDate:   end,
		Messages:  messages,
		Speakers:  speakers,
		RawText:   strings.Join(lines, "\n"),
		DateRange: FormatDateRange(start, end),
	}
}

// FormatDateRange renders the display form used in index entries and
// user-facing context ("02.01.2024 - 15.01.2024").
func FormatDateRange(start, end time.Time) string {
	return start.Format("02.01.2006") + " - " + end.Format("02.01.2006")
}
