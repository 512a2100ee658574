package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
	if got := NormalizeLimit(-5); got != DefaultLimit {
		t.Fatalf("expected default limit for negative input, got %d", got)
	}
	if got := NormalizeLimit(MaxLimit + 50); got != MaxLimit {
		t.Fatalf("expected max limit cap, got %d", got)
	}
	if got := NormalizeLimit(10); got != 10 {
		t.Fatalf("expected passthrough, got %d", got)
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("expected buffer of one, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	id := uuid.New()
	deadline := time.Date(2025, 9, 1, 17, 0, 0, 0, time.UTC)

	encoded := EncodeCursor(Cursor{Deadline: deadline, ID: id})
	decoded, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded == nil {
		t.Fatalf("expected cursor")
	}
	if !decoded.Deadline.Equal(deadline) {
		t.Fatalf("deadline mismatch: %v", decoded.Deadline)
	}
	if decoded.ID != id {
		t.Fatalf("id mismatch: %v", decoded.ID)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	if _, err := ParseCursor("not-base64!!"); err == nil {
		t.Fatalf("expected decode error")
	}
	cursor, err := ParseCursor("   ")
	if err != nil || cursor != nil {
		t.Fatalf("blank cursor should be nil, got %v / %v", cursor, err)
	}
}
