package email

import (
	"bytes"

	"github.com/yuin/goldmark"
)

// RenderMarkdown converts a markdown body to the HTML fragment used in
// outgoing mail. Notice bodies are authored as markdown in the admin UI.
func RenderMarkdown(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
