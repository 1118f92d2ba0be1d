package backend

import (
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
	"github.com/nguyentantai21042004/procedure-flow/internal/transcriber"
)

const fallbackHint = "Manufacturing/assembly process"

const promptTemplate = `You are an expert Technical Writer specializing in Standard Operating Procedures (SOPs) for industrial and manufacturing processes.

Task Context: %s

You will receive a sequence of %d frames from a video showing a worker performing a task.

Frame Timestamps:
%s
%s
Your job is to:
1. Watch the sequence carefully
2. Use the audio transcript (if provided) for additional context
3. Identify distinct actions/steps being performed (including disassembly AND reassembly)
4. Write clear, actionable instructions for each step
5. Select the timestamp where each action is most clearly visible
6. Explain why each step matters

For repair or maintenance procedures:
- If the procedure involves disassembly, include the reassembly steps in reverse order
- Include torque specifications, alignment checks and final verification steps

Output Format (STRICT JSON):
{
  "title": "Descriptive Task Name",
  "description": "Brief overview of the entire process",
  "safety_notes": ["Safety consideration 1", "Safety consideration 2"],
  "steps": [
    {
      "step_number": 1,
      "instruction": "Clear, imperative instruction (e.g., 'Pick up the 5mm Allen wrench')",
      "timestamp_seconds": 12.5,
      "reasoning": "Why this step is important or what to watch for",
      "safety_note": "Step-specific hazard, or null"
    }
  ]
}

Guidelines:
- Each step must be atomic (one clear action)
- Use imperative voice ("Pick up", "Turn", "Connect")
- Be specific about tools, parts and measurements
- Choose the timestamp where the action is MOST VISIBLE
- Aim for 5-20 steps depending on complexity

Output ONLY valid JSON. Do not include any markdown formatting or code blocks.`

const transcriptTemplate = `
Audio Transcript (with timestamps):
%s

Use the transcript timestamps to match spoken words with the correct frames.
`

// BuildPrompt renders the analysis instructions for the given frames.
func BuildPrompt(frames []models.Frame, transcript []models.TranscriptSegment, hint string) string {
	if strings.TrimSpace(hint) == "" {
		hint = fallbackHint
	}

	timestamps := make([]string, len(frames))
	for i, f := range frames {
		timestamps[i] = fmt.Sprintf("Frame %d at %.2fs", i+1, f.Timestamp)
	}

	audio := ""
	if len(transcript) > 0 {
		audio = fmt.Sprintf(transcriptTemplate, transcriber.FormatTranscript(transcript))
	}

	return fmt.Sprintf(promptTemplate, hint, len(frames), strings.Join(timestamps, "\n"), audio)
}
