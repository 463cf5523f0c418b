package chunking

import (
	"testing"
	"time"

	"github.com/sevgi-app/memoir/pkg/chatlog"
	"github.com/sevgi-app/memoir/pkg/memconfig"
)

func makeMessages(count int, start time.Time, gap time.Duration) []chatlog.Message {
	messages := make([]chatlog.Message, count)
	for i := range messages {
		sender := "Ayşe"
		if i%2 == 1 {
			sender = "Mehmet"
		}
		messages[i] = chatlog.Message{
			Sender:    sender,
			Content:   "mesaj",
			Timestamp: start.Add(time.Duration(i) * gap),
		}
	}
	return messages
}

func TestWindowDaysByDensity(t *testing.T) {
	cfg := memconfig.Default()

	tests := []struct {
		msgsPerDay float64
		want       int
	}{
		{120, 7},
		{25, 14},
		{3, 30},
	}
	for _, tt := range tests {
		if got := WindowDays(tt.msgsPerDay, cfg); got != tt.want {
			t.Fatalf("WindowDays(%v) = %d, want %d", tt.msgsPerDay, got, tt.want)
		}
	}
}

func TestSegmentCoversAllMessages(t *testing.T) {
	cfg := memconfig.Default()
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)
	messages := makeMessages(500, start, 3*time.Hour)

	chunks := Segment(messages, cfg)
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}

	total := 0
	for i, c := range chunks {
		total += len(c.Messages)
		if c.EndDate.Before(c.StartDate) {
			t.Fatalf("chunk %d has end before start", i)
		}
		if i > 0 && c.StartDate.Before(chunks[i-1].EndDate) {
			t.Fatalf("chunk %d overlaps previous", i)
		}
	}
	if total != len(messages) {
		t.Fatalf("chunks cover %d messages, want %d", total, len(messages))
	}
}

func TestSegmentShortConversationIsOneChunk(t *testing.T) {
	cfg := memconfig.Default()
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)
	messages := makeMessages(30, start, 2*time.Hour) // fits in any window

	chunks := Segment(messages, cfg)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].ID != "chunk_001" {
		t.Fatalf("unexpected chunk id: %q", chunks[0].ID)
	}
	if len(chunks[0].Speakers) != 2 {
		t.Fatalf("expected 2 speakers, got %v", chunks[0].Speakers)
	}
}

func TestSegmentRespectsMessageCap(t *testing.T) {
	cfg := memconfig.Default()
	cfg.Chunking.MaxMessages = 10

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)
	messages := makeMessages(25, start, time.Minute)

	chunks := Segment(messages, cfg)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Messages) > 10 {
			t.Fatalf("chunk %d exceeds cap: %d messages", i, len(c.Messages))
		}
	}
}

func TestSegmentSortsUnorderedInput(t *testing.T) {
	cfg := memconfig.Default()
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)
	messages := makeMessages(10, start, time.Hour)
	// Swap to break chronological order
	messages[0], messages[9] = messages[9], messages[0]

	chunks := Segment(messages, cfg)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if !chunks[0].StartDate.Equal(start) {
		t.Fatalf("start date %v, want %v", chunks[0].StartDate, start)
	}
}

func TestFormatDateRange(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local)
	end := time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local)
	if got := FormatDateRange(start, end); got != "02.01.2024 - 15.01.2024" {
		t.Fatalf("unexpected date range: %q", got)
	}
}
