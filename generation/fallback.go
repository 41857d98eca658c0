package generation

import (
	"fmt"
	"strings"

	"articleforge/types"
)

// Fallback rewrite thresholds.
const (
	// minSectionChars drops paragraph chunks shorter than this.
	minSectionChars = 20
	// keyPointsAtChars adds key-point bullets to chunks longer than this.
	keyPointsAtChars = 300
	// maxKeyPoints caps bullets extracted per chunk.
	maxKeyPoints = 3
	// minSentenceChars drops sentences too short to be a key point.
	minSentenceChars = 20
)

// FallbackRewrite is the deterministic, dependency-free rewrite used when
// every configured provider fails. It is pure and total: identical input
// yields byte-identical output, and it tolerates empty input by emitting
// a minimal skeletal document.
func FallbackRewrite(title, body string, refs []types.AcquiredReference) string {
	var b strings.Builder

	heading := strings.TrimSpace(title)
	if heading == "" {
		heading = "Untitled Document"
	}
	fmt.Fprintf(&b, "# %s\n\n", heading)

	b.WriteString("## Introduction\n\n")
	fmt.Fprintf(&b, "This article explores %s. Understanding this topic is essential in today's digital landscape.\n\n", strings.ToLower(heading))

	sections := splitSections(body)
	if len(sections) == 0 {
		b.WriteString("The original document contained no substantial content.\n\n")
	}
	for i, section := range sections {
		fmt.Fprintf(&b, "## Section %d\n\n", i+1)
		b.WriteString(section)
		b.WriteString("\n\n")

		if len(section) > keyPointsAtChars {
			points := keyPoints(section)
			if len(points) > 2 {
				b.WriteString("**Key Points:**\n\n")
				for _, p := range points[:min(maxKeyPoints, len(points))] {
					fmt.Fprintf(&b, "- %s\n", p)
				}
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("## Key Takeaways\n\n")
	fmt.Fprintf(&b, "- Understanding %s is crucial for success\n", strings.ToLower(heading))
	b.WriteString("- Implementation requires careful planning\n")
	b.WriteString("- Continuous learning and adaptation are essential\n\n")

	b.WriteString("## References\n")
	for _, ref := range refs {
		fmt.Fprintf(&b, "\n- %s — %s (%s)", ref.Title, ref.Domain, ref.URL)
	}
	b.WriteString("\n")

	return b.String()
}

// splitSections breaks the body into blank-line-separated chunks,
// discarding chunks below the minimum length.
func splitSections(body string) []string {
	var sections []string
	for _, chunk := range strings.Split(body, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if len(chunk) >= minSectionChars {
			sections = append(sections, chunk)
		}
	}
	return sections
}

// keyPoints extracts sentences usable as bullets from a chunk.
func keyPoints(section string) []string {
	var points []string
	for _, sentence := range strings.Split(section, ". ") {
		sentence = strings.TrimSpace(strings.TrimSuffix(sentence, "."))
		if len(sentence) >= minSentenceChars {
			points = append(points, sentence)
		}
	}
	return points
}
