package chatlog

import (
	"testing"
	"time"
)

func msgFrom(sender string) Message {
	return Message{Sender: sender, Content: "x", Timestamp: time.Now()}
}

func TestDetectSpeakersTopTwo(t *testing.T) {
	var messages []Message
	for i := 0; i < 10; i++ {
		messages = append(messages, msgFrom("Ayşe"))
	}
	for i := 0; i < 8; i++ {
		messages = append(messages, msgFrom("Mehmet"))
	}
	// Group chat noise
	messages = append(messages, msgFrom("Zeynep"))

	speakers := DetectSpeakers(messages)
	if len(speakers) != 2 {
		t.Fatalf("expected 2 speakers, got %d", len(speakers))
	}
	if speakers[0] != "Ayşe" || speakers[1] != "Mehmet" {
		t.Fatalf("unexpected speakers: %v", speakers)
	}
}

func TestDetectSpeakersTieBreaksAlphabetically(t *testing.T) {
	messages := []Message{msgFrom("Berk"), msgFrom("Aslı")}

	speakers := DetectSpeakers(messages)
	if speakers[0] != "Aslı" || speakers[1] != "Berk" {
		t.Fatalf("unexpected order: %v", speakers)
	}
}

func TestDetectSpeakersSingleSender(t *testing.T) {
	speakers := DetectSpeakers([]Message{msgFrom("Ayşe"), msgFrom("Ayşe")})
	if len(speakers) != 1 || speakers[0] != "Ayşe" {
		t.Fatalf("unexpected speakers: %v", speakers)
	}
}
