package transcriber

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

var reSrtTiming = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})[,.](\d{1,3})\s*-->\s*(\d{1,2}):(\d{2}):(\d{2})[,.](\d{1,3})`)

// ParseSRT reads SubRip cues. Sequence numbers are ignored; text lines of a
// cue are joined with a space.
func ParseSRT(r io.Reader) ([]models.TranscriptSegment, error) {
	var (
		segments []models.TranscriptSegment
		cur      *models.TranscriptSegment
		lines    []string
	)

	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(lines, " ")
			segments = append(segments, *cur)
		}
		cur = nil
		lines = nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" {
			flush()
			continue
		}
		if m := reSrtTiming.FindStringSubmatch(line); m != nil {
			flush()
			cur = &models.TranscriptSegment{
				Start: srtSeconds(m[1], m[2], m[3], m[4]),
				End:   srtSeconds(m[5], m[6], m[7], m[8]),
			}
			continue
		}
		if cur == nil {
			// sequence number or stray text before a timing line
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	flush()

	return segments, nil
}

func srtSeconds(h, m, s, ms string) float64 {
	hh, _ := strconv.Atoi(h)
	mm, _ := strconv.Atoi(m)
	ss, _ := strconv.Atoi(s)
	for len(ms) < 3 {
		ms += "0"
	}
	mss, _ := strconv.Atoi(ms)
	return float64(hh*3600+mm*60+ss) + float64(mss)/1000
}
