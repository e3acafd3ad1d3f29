package records

import (
	"strings"
	"testing"
	"time"
)

func TestBuildTranscript(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	recs := []Record{
		{Chat: "family", Sender: "alice", Timestamp: base, Content: "morning"},
		{Chat: "family", Sender: "bob", Timestamp: base.Add(time.Minute), Content: "hey"},
		{Chat: "family", Sender: "alice", Timestamp: base.Add(2 * time.Minute), Content: "plans\nfor today?"},
	}

	tr := BuildTranscript(recs)

	if len(tr.Lines) != 5 {
		t.Fatalf("expected 5 lines, got %d: %v", len(tr.Lines), tr.Lines)
	}
	if tr.Lines[0] != "Conversation from 2026-03-01 10:00 to 2026-03-01 10:02" {
		t.Errorf("unexpected header: %q", tr.Lines[0])
	}
	if tr.Lines[1] != "Participants: A=alice, B=bob" {
		t.Errorf("unexpected legend line: %q", tr.Lines[1])
	}
	if tr.Lines[2] != "A: morning" || tr.Lines[3] != "B: hey" {
		t.Errorf("unexpected record lines: %q, %q", tr.Lines[2], tr.Lines[3])
	}
	// Newlines inside a record must not break the one-line-per-record shape.
	if tr.Lines[4] != "A: plans for today?" {
		t.Errorf("expected flattened content, got %q", tr.Lines[4])
	}

	if tr.Legend["A"] != "alice" || tr.Legend["B"] != "bob" {
		t.Errorf("unexpected legend: %v", tr.Legend)
	}
}

func TestBuildTranscriptLettersFollowFirstAppearance(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	recs := []Record{
		{Sender: "zoe", Timestamp: base, Content: "first"},
		{Sender: "alice", Timestamp: base.Add(time.Minute), Content: "second"},
		{Sender: "zoe", Timestamp: base.Add(2 * time.Minute), Content: "third"},
	}

	tr := BuildTranscript(recs)

	if tr.Legend["A"] != "zoe" || tr.Legend["B"] != "alice" {
		t.Errorf("letters should follow first appearance, got %v", tr.Legend)
	}
	if !strings.HasPrefix(tr.Lines[len(tr.Lines)-1], "A: ") {
		t.Errorf("repeat sender should reuse its letter: %q", tr.Lines[len(tr.Lines)-1])
	}
}

func TestBuildTranscriptEmpty(t *testing.T) {
	tr := BuildTranscript(nil)
	if len(tr.Lines) != 0 {
		t.Errorf("expected no lines for empty input, got %v", tr.Lines)
	}
}

func TestLetterFor(t *testing.T) {
	cases := []struct {
		index int
		want  string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
	}
	for _, tc := range cases {
		if got := letterFor(tc.index); got != tc.want {
			t.Errorf("letterFor(%d): expected %q, got %q", tc.index, tc.want, got)
		}
	}
}
