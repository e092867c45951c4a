package flows

import "strings"

// Render methods turn validated results into the text shown to the user.
// They take value receivers and never modify the result.

func (r ChatReply) Render() string {
	return joinBlocks(r.MainText, r.SecondaryText)
}

func (r Reading) Render() string {
	return joinBlocks(r.Title, r.Prediction)
}

func (r AstronomerOutput) Render() string {
	return joinBlocks(r.AstronomerResponse, r.DarkHumorJoke)
}

func (r RoastOutput) Render() string {
	return strings.TrimSpace(r.Roast)
}

func joinBlocks(blocks ...string) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b = strings.TrimSpace(b); b != "" {
			parts = append(parts, b)
		}
	}
	return strings.Join(parts, "\n\n")
}
