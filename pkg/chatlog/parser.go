package chatlog

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var timestampPatterns = []*regexp.Regexp{
	// [01/01/2024, 10:30:45] Name: text
	regexp.MustCompile(`^\[(\d{1,2}/\d{1,2}/\d{2,4}),?\s+(\d{1,2}:\d{2}(?::\d{2})?)\]\s+([^:]+):\s*(.*)$`),
	// 01/01/2024, 10:30 - Name: text
	regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2,4}),?\s+(\d{1,2}:\d{2}(?::\d{2})?)\s+-\s+([^:]+):\s*(.*)$`),
	// 01.01.2024, 10:30 - Name: text
	regexp.MustCompile(`^(\d{1,2}\.\d{1,2}\.\d{2,4}),?\s+(\d{1,2}:\d{2}(?::\d{2})?)\s+-\s+([^:]+):\s*(.*)$`),
}

var (
	datePartPattern = regexp.MustCompile(`(\d{1,2})[/.](\d{1,2})[/.](\d{2,4})`)
	timePartPattern = regexp.MustCompile(`(\d{1,2}):(\d{2})(?::(\d{2}))?`)
)

// Service lines emitted by the chat app itself, not by a participant.
// Matched as substrings after parsing.
var serviceMarkers = []string{
	"Messages and calls are end-to-end encrypted",
	"uçtan uca şifrelidir",
	"created group",
	"added you",
	"changed the subject",
	"<Media omitted>",
	"<Medya dahil edilmedi>",
}

// Parse turns a raw export into chronologically ordered messages.
// Returns ErrNoMessages when nothing parseable remains after filtering.
func Parse(text string) ([]Message, error) {
	return parseAt(text, time.Now())
}

// parseAt is Parse with an injectable clock; malformed timestamps fall
// back to now rather than failing the line.
func parseAt(text string, now time.Time) ([]Message, error) {
	var messages []Message
	var current *Message

	for _, line := range strings.Split(text, "\n") {
		matched := false

		for _, pattern := range timestampPatterns {
			m := pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}

			if current != nil {
				messages = append(messages, *current)
			}

			current = &Message{
				Sender:    strings.TrimSpace(m[3]),
				Content:   strings.TrimSpace(m[4]),
				Timestamp: parseTimestamp(m[1], m[2], now),
			}
			matched = true
			break
		}

		// Continuation of a multi-line message
		if !matched && current != nil && strings.TrimSpace(line) != "" {
			current.Content += "\n" + strings.TrimSpace(line)
		}
	}

	if current != nil {
		messages = append(messages, *current)
	}

	messages = filterServiceMessages(messages)
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	return messages, nil
}

// parseTimestamp builds an absolute instant from the date and time parts
// of a matched line. Two-digit years pivot at 50 (>50 means 1900s).
func parseTimestamp(datePart, timePart string, now time.Time) time.Time {
	dm := datePartPattern.FindStringSubmatch(datePart)
	tm := timePartPattern.FindStringSubmatch(timePart)
	if dm == nil || tm == nil {
		return now
	}

	day, _ := strconv.Atoi(dm[1])
	month, _ := strconv.Atoi(dm[2])
	year, _ := strconv.Atoi(dm[3])
	if len(dm[3]) == 2 {
		if year > 50 {
			year += 1900
		} else {
			year += 2000
		}
	}

	hour, _ := strconv.Atoi(tm[1])
	minute, _ := strconv.Atoi(tm[2])
	second := 0
	if tm[3] != "" {
		second, _ = strconv.Atoi(tm[3])
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return now
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local)
}

func filterServiceMessages(messages []Message) []Message {
	filtered := messages[:0]
	for _, msg := range messages {
		if msg.Content == "" || isServiceMessage(msg.Content) {
			continue
		}
		filtered = append(filtered, msg)
	}
	return filtered
}

func isServiceMessage(content string) bool {
	for _, marker := range serviceMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}
