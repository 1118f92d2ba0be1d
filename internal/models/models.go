package models

import "time"

// Mode selects which collaborators serve a run.
type Mode string

const (
	ModeLocal Mode = "LOCAL"
	ModeAPI   Mode = "API"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeLocal || m == ModeAPI
}

// Frame is a single sampled image from the source video.
// The JPEG lives at Path until the owning run releases its resources.
type Frame struct {
	Index     int
	Timestamp float64
	Path      string
	Width     int
	Height    int
}

// TranscriptSegment is a span of narration.
type TranscriptSegment struct {
	Start float64
	End   float64
	Text  string
}

// DraftStep is a procedure step as decoded from model output.
// ApproxTimestamp is a hint from the model and may be nil.
type DraftStep struct {
	OrderHint       int
	Instruction     string
	ApproxTimestamp *float64
	Reasoning       *string
	SafetyNote      *string
}

// BoundStep is a DraftStep matched to visual evidence. Frame is shared with
// other steps; when it is nil NoVisualEvidence must be set.
type BoundStep struct {
	DraftStep
	Number           int
	Frame            *Frame
	NoVisualEvidence bool
}

// HasEvidence reports whether the step carries a frame reference or the
// explicit no-evidence marker.
func (s BoundStep) HasEvidence() bool {
	return s.Frame != nil || s.NoVisualEvidence
}

// Metadata describes how a document was produced.
type Metadata struct {
	SourcePath      string
	SourceDuration  float64
	BackendUsed     Mode
	GeneratedAt     time.Time
	FrameCount      int
	SegmentCount    int
	AnalysisRetries int
}

// ProcedureDocument is the final product of a pipeline run.
type ProcedureDocument struct {
	Title             string
	Description       string
	Steps             []BoundStep
	GlobalSafetyNotes []string
	Metadata          Metadata
}

// Duration returns the time spanned by the frames, i.e. the last timestamp.
func Duration(frames []Frame) float64 {
	var max float64
	for _, f := range frames {
		if f.Timestamp > max {
			max = f.Timestamp
		}
	}
	return max
}
