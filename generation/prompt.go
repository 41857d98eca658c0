package generation

import (
	"fmt"
	"strings"

	"articleforge/config"
	"articleforge/types"
)

// BuildPrompt assembles the rewrite instruction for generation providers
// from the original document and its acquired references.
func BuildPrompt(title, body string, refs []types.AcquiredReference) string {
	var b strings.Builder

	b.WriteString("You are an expert content writer and editor. Rewrite the following article to improve its quality, structure, and readability.\n\n")

	b.WriteString("ORIGINAL ARTICLE:\n")
	fmt.Fprintf(&b, "Title: %s\n", title)
	fmt.Fprintf(&b, "Content: %s\n\n", truncate(body, config.MaxPromptBodyChars))

	if len(refs) > 0 {
		b.WriteString("REFERENCE ARTICLES:\n")
		for i, ref := range refs {
			fmt.Fprintf(&b, "Reference %d:\n", i+1)
			fmt.Fprintf(&b, "Title: %s\n", ref.Title)
			fmt.Fprintf(&b, "Source: %s\n", ref.Domain)
			fmt.Fprintf(&b, "Key Points: %s\n\n", truncate(ref.Body, config.MaxPromptReferenceChars))
		}
	}

	b.WriteString(`INSTRUCTIONS:
1. Create a compelling introduction and clear markdown headings (H2, H3).
2. Maintain the original core message; improve sentence structure and readability.
3. Keep paragraphs short and use bullet points where appropriate.
4. Add a "Key Takeaways" section near the end.
5. End with a "References" section citing the reference articles with links.
6. Do not include any meta-commentary about the rewriting process.

REWRITTEN ARTICLE:`)

	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
