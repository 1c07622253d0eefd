// internal/analyzer/prompts.go
package analyzer

import (
	"fmt"
	"strings"

	"github.com/socialpulse/viralpipe/pkg/types"
)

// breakdownPrompt asks the model for a structured scene-by-scene breakdown of
// the video.
const breakdownPrompt = `Please give a detailed breakdown of the entire video,
include the relevant timestamps and output in JSON List format.
Also please include what the individual speaker(s) were saying, the tone, any
setting descriptions, key visual moments.
Finally, at the base structure, give a speaker description detailing their
appearance, gender, style, and personality.

Provide similar JSON structure in this format:
{
  "video_analysis": {
    "speaker_description": {
      "appearance": "...",
      "gender": "...",
      "style": "...",
      "personality": "..."
    },
    "timestamps": [
      {
        "time": "00:00-00:15",
        "dialogue": "...",
        "tone": "...",
        "setting_description": "...",
        "key_visual_moments": "...",
        "action_context": "..."
      }
    ]
  }
}`

// viralityPrompt combines the breakdown with the record's performance metrics
// and asks the model to explain the observed engagement.
func viralityPrompt(rec types.Record, breakdown string) string {
	views, _ := rec.GetFloat(types.FieldViews)
	likes, _ := rec.GetFloat(types.FieldLikes)
	comments, _ := rec.GetFloat(types.FieldComments)
	duration, _ := rec.GetFloat(types.FieldDuration)
	engagement, _ := rec.GetFloat(types.FieldEngagementScore)
	viral := rec.IsViral()

	outcome := "did not go viral"
	level := "low"
	angle := "performance"
	if viral {
		outcome = "went viral"
		level = "high"
		angle = "virality"
	}

	var b strings.Builder
	b.WriteString("This video has the following performance metrics:\n")
	fmt.Fprintf(&b, "- Is Viral: %t\n", viral)
	fmt.Fprintf(&b, "- Views: %.0f\n", views)
	fmt.Fprintf(&b, "- Likes: %.0f\n", likes)
	fmt.Fprintf(&b, "- Comments: %.0f\n", comments)
	fmt.Fprintf(&b, "- Duration: %.0f seconds\n", duration)
	fmt.Fprintf(&b, "- Caption: %q\n", rec.GetString(types.FieldCaption))
	fmt.Fprintf(&b, "- Engagement Rate: %.2f%%\n", engagement)
	fmt.Fprintf(&b, "- Date Posted: %s\n", rec.GetString(types.FieldPostedAt))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Based on the video analysis below and these performance metrics, explain why this video %s. ", outcome)
	fmt.Fprintf(&b, "What specific elements in the content, timing, format, or presentation contributed to its %s engagement?\n\n", level)
	fmt.Fprintf(&b, "Focus on what happened in the video, the implied comedy or other elements that contributed to its %s and why.\n\n", angle)
	fmt.Fprintf(&b, "The transcript and scenes of the video is: %s\n", breakdown)
	return b.String()
}
