package chat

import "strings"

// promptPreamble is fixed so identical retrievals produce byte-identical
// prompts.
const promptPreamble = "Use the following context to answer clearly and concisely."

// ComposePrompt builds the grounded prompt: the preamble, the chunk contents
// in retrieval order joined by one blank line (each trimmed), and the
// verbatim query under a Question section. Chunks are never truncated.
func ComposePrompt(query string, chunks []string) string {
	var b strings.Builder

	b.WriteString(promptPreamble)
	b.WriteString("\n\nContext:\n")
	for i, chunk := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimSpace(chunk))
	}
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(query)

	return b.String()
}
