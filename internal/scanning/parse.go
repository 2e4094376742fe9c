package scanning

import "strings"

// cleanTranscription strips the wrapping a vision model sometimes puts around
// a transcription (code fences, the no-text marker) and returns the bare text.
// Line structure inside the text is preserved.
func cleanTranscription(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		// Drop the opening fence along with any language tag on its line
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	text = strings.Join(lines, "\n")

	if strings.EqualFold(strings.Trim(text, " .\n"), noTextMarker) {
		return ""
	}
	return text
}
