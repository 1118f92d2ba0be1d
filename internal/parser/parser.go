package parser

import (
	"context"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

const previewLen = 200

func (p *implParser) Parse(raw string) (Result, error) {
	ctx := context.Background()

	text := stripFences(raw)
	if isObject(text) {
		return decode(gjson.Parse(text)), nil
	}

	span, ok := ExtractObject(text)
	if !ok {
		p.logger.Warn(ctx, "No JSON object in model output: %s", preview(raw))
		return Result{}, models.Errorf(models.ErrResponseParse, "no JSON object found in %d characters of output", len(raw))
	}

	p.logger.Debug(ctx, "Recovered JSON object of %d characters from surrounding text", len(span))
	return decode(gjson.Parse(span)), nil
}

// ExtractObject returns the first balanced {...} span of text that is a
// valid JSON object. Braces inside string literals are ignored. An opening
// brace that never closes ends the search, since every later brace is nested
// inside it.
func ExtractObject(text string) (string, bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		end, ok := matchBrace(text, start)
		if !ok {
			return "", false
		}
		if span := text[start : end+1]; isObject(span) {
			return span, true
		}
	}
	return "", false
}

// matchBrace returns the index of the brace closing the one at start.
func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func isObject(s string) bool {
	return gjson.Valid(s) && gjson.Parse(s).IsObject()
}

// stripFences removes a surrounding markdown code fence.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

func decode(doc gjson.Result) Result {
	res := Result{
		Title:       strings.TrimSpace(doc.Get("title").String()),
		Description: strings.TrimSpace(doc.Get("description").String()),
		SafetyNotes: []string{},
		Steps:       []models.DraftStep{},
	}

	notes := doc.Get("safety_notes")
	switch {
	case notes.IsArray():
		for _, n := range notes.Array() {
			if s := strings.TrimSpace(n.String()); s != "" {
				res.SafetyNotes = append(res.SafetyNotes, s)
			}
		}
	case notes.Type == gjson.String:
		if s := strings.TrimSpace(notes.String()); s != "" {
			res.SafetyNotes = append(res.SafetyNotes, s)
		}
	}

	for i, s := range doc.Get("steps").Array() {
		res.Steps = append(res.Steps, decodeStep(s, i))
	}
	return res
}

func decodeStep(s gjson.Result, i int) models.DraftStep {
	if s.Type == gjson.String {
		return models.DraftStep{OrderHint: i + 1, Instruction: strings.TrimSpace(s.String())}
	}

	step := models.DraftStep{
		OrderHint:   i + 1,
		Instruction: strings.TrimSpace(s.Get("instruction").String()),
		Reasoning:   optionalString(s.Get("reasoning")),
		SafetyNote:  optionalString(s.Get("safety_note")),
	}
	if n := s.Get("step_number"); n.Type == gjson.Number && n.Int() > 0 {
		step.OrderHint = int(n.Int())
	}

	ts := s.Get("timestamp_seconds")
	if !ts.Exists() {
		ts = s.Get("timestamp")
	}
	step.ApproxTimestamp = Timestamp(ts)
	return step
}

func optionalString(r gjson.Result) *string {
	if r.Type != gjson.String {
		return nil
	}
	s := strings.TrimSpace(r.String())
	if s == "" {
		return nil
	}
	return &s
}

// Timestamp reads seconds from a number, a numeric string or a clock string
// (mm:ss or hh:mm:ss). Anything else, including negative values, yields nil.
func Timestamp(r gjson.Result) *float64 {
	var v float64
	switch r.Type {
	case gjson.Number:
		v = r.Float()
	case gjson.String:
		parsed, ok := parseClock(strings.TrimSpace(r.String()))
		if !ok {
			return nil
		}
		v = parsed
	default:
		return nil
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parseClock(s string) (float64, bool) {
	s = strings.TrimSuffix(s, "s")
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, false
	}
	var total float64
	for _, part := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}

func preview(s string) string {
	if len(s) <= previewLen {
		return s
	}
	cut := previewLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
