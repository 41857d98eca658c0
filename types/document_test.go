package types

import (
	"testing"
	"time"
)

func TestCountWords(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"one two three", 3},
		{"line one\n\nline two", 4},
	}
	for _, tc := range cases {
		if got := CountWords(tc.in); got != tc.want {
			t.Errorf("CountWords(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestSetBodiesRecomputeWordCounts(t *testing.T) {
	var d Document
	d.SetOriginalBody("alpha beta gamma")
	if d.WordCount.Original != 3 {
		t.Errorf("original word count = %d, want 3", d.WordCount.Original)
	}
	d.SetUpdatedBody("alpha beta gamma delta epsilon")
	if d.WordCount.Updated != 5 {
		t.Errorf("updated word count = %d, want 5", d.WordCount.Updated)
	}
	if d.OriginalBody != "alpha beta gamma" {
		t.Errorf("original body overwritten: %q", d.OriginalBody)
	}
}

func TestAppendLogPreservesOrder(t *testing.T) {
	var d Document
	d.AppendLog("discovery", PhaseStarted, "searching")
	d.AppendLog("discovery", PhaseCompleted, "found 3")
	d.AppendLog("generation", PhaseStarted, "rewriting")

	if len(d.ProcessingLog) != 3 {
		t.Fatalf("log length = %d, want 3", len(d.ProcessingLog))
	}
	if d.ProcessingLog[0].Stage != "discovery" || d.ProcessingLog[0].Phase != PhaseStarted {
		t.Errorf("first entry = %+v", d.ProcessingLog[0])
	}
	if d.ProcessingLog[2].Stage != "generation" {
		t.Errorf("entries reordered: %+v", d.ProcessingLog)
	}
	for i, e := range d.ProcessingLog {
		if e.Timestamp.IsZero() || e.Timestamp.After(time.Now()) {
			t.Errorf("entry %d has bad timestamp %v", i, e.Timestamp)
		}
	}
}

func TestGenerateIDStable(t *testing.T) {
	a := GenerateID("https://example.com/post")
	b := GenerateID("https://example.com/post")
	if a != b {
		t.Errorf("GenerateID not stable: %s != %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("id length = %d, want 16", len(a))
	}
	if a == GenerateID("https://example.com/other") {
		t.Error("distinct URLs produced identical ids")
	}
}
