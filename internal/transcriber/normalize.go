package transcriber

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

// Normalize trims text, drops empty segments, clamps End to be no earlier
// than Start and stable-sorts by Start.
func Normalize(segments []models.TranscriptSegment) []models.TranscriptSegment {
	out := make([]models.TranscriptSegment, 0, len(segments))
	for _, s := range segments {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" {
			continue
		}
		if s.Start < 0 {
			s.Start = 0
		}
		if s.End < s.Start {
			s.End = s.Start
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}

// FormatTranscript renders segments one per line as "[start - end]: text".
func FormatTranscript(segments []models.TranscriptSegment) string {
	var b strings.Builder
	for i, s := range segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%.1fs - %.1fs]: %s", s.Start, s.End, s.Text)
	}
	return b.String()
}
