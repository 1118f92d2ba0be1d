package transcriber

import (
	"strings"
	"testing"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

func TestParseSRT(t *testing.T) {
	input := "\ufeff1\n" +
		"00:00:00,000 --> 00:00:02,500\n" +
		"Loosen the lug nuts\n" +
		"before lifting the car.\n" +
		"\n" +
		"2\n" +
		"00:00:02,500 --> 00:01:05,04\n" +
		"Place the jack under the frame.\n" +
		"\n" +
		"3\n" +
		"01:00:00.100 --> 01:00:01.000\n" +
		"Done.\n"

	got, err := ParseSRT(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseSRT() error = %v", err)
	}

	want := []models.TranscriptSegment{
		{Start: 0, End: 2.5, Text: "Loosen the lug nuts before lifting the car."},
		{Start: 2.5, End: 65.04, Text: "Place the jack under the frame."},
		{Start: 3600.1, End: 3601, Text: "Done."},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d segments, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseSRTEmpty(t *testing.T) {
	got, err := ParseSRT(strings.NewReader("\n\n"))
	if err != nil {
		t.Fatalf("ParseSRT() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d segments, want 0", len(got))
	}
}

func TestNormalize(t *testing.T) {
	in := []models.TranscriptSegment{
		{Start: 10, End: 12, Text: " third "},
		{Start: 2, End: 1, Text: "first"},
		{Start: 5, End: 6, Text: "   "},
		{Start: 4, End: 5, Text: "second"},
		{Start: -1, End: 0.5, Text: "zeroth"},
	}

	got := Normalize(in)
	want := []models.TranscriptSegment{
		{Start: 0, End: 0.5, Text: "zeroth"},
		{Start: 2, End: 2, Text: "first"},
		{Start: 4, End: 5, Text: "second"},
		{Start: 10, End: 12, Text: "third"},
	}
	if len(got) != len(want) {
		t.Fatalf("Normalize() = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Start < got[i-1].Start {
			t.Errorf("starts not non-decreasing at %d", i)
		}
	}
}

func TestNormalizeStable(t *testing.T) {
	in := []models.TranscriptSegment{
		{Start: 1, End: 2, Text: "a"},
		{Start: 1, End: 3, Text: "b"},
	}
	got := Normalize(in)
	if got[0].Text != "a" || got[1].Text != "b" {
		t.Errorf("Normalize() reordered equal starts: %+v", got)
	}
}

func TestFormatTranscript(t *testing.T) {
	got := FormatTranscript([]models.TranscriptSegment{
		{Start: 0, End: 2.54, Text: "Remove the cover."},
		{Start: 12, End: 15.5, Text: "Check the seal."},
	})
	want := "[0.0s - 2.5s]: Remove the cover.\n[12.0s - 15.5s]: Check the seal."
	if got != want {
		t.Errorf("FormatTranscript() = %q, want %q", got, want)
	}
	if FormatTranscript(nil) != "" {
		t.Error("FormatTranscript(nil) should be empty")
	}
}
