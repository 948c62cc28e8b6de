package ai

import "fmt"

// buildPrompt renders the rewrite instruction for one message. The model is
// asked to answer with a single JSON object; parseResult tolerates extra
// prose around it.
func buildPrompt(message, region, defaultRegion string) string {
	return fmt.Sprintf(`You are a scam-awareness assistant. A user received the following suspicious text message:

"""
%s
"""

Regional context: %s

Rewrite the message the way a legitimate, official sender would have written it, then explain the differences.

Respond with exactly one JSON object, no markdown fences, using this shape:
{
  "original_message": "<the message verbatim>",
  "safe_version": "<the rewritten official version>",
  "differences": [
    {"aspect": "<what differs>", "scam": "<scam phrasing>", "official": "<official phrasing>", "status": "<fixed|flagged>"}
  ],
  "red_flags_fixed": <integer count of red flags you fixed>,
  "tone_comparison": {"scam": "<one sentence on the scam's tone>", "official": "<one sentence on the official tone>"},
  "key_learning": "<one sentence the user should remember>"
}`, message, regionContext(region, defaultRegion))
}
