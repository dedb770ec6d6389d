package rag

import (
	"fmt"
	"strings"

	"github.com/ternarybob/studeo/internal/interfaces"
)

const contextSeparator = "\n\n---\n\n"

// buildContext renders retrieved chunks as labeled blocks the generation
// model can cite from. Each block carries the source file, class, and any
// location hints ahead of the chunk text.
func buildContext(hits []interfaces.RAGSearchHit) string {
	blocks := make([]string, 0, len(hits))
	for i, hit := range hits {
		var b strings.Builder
		fmt.Fprintf(&b, "[Source %d] %s", i+1, hit.SourceFile)
		if hit.ClassName != "" {
			fmt.Fprintf(&b, " | class: %s", hit.ClassName)
		}
		if hit.Section != "" {
			fmt.Fprintf(&b, " | section: %s", hit.Section)
		}
		if hit.Page > 0 {
			fmt.Fprintf(&b, " | page: %d", hit.Page)
		}
		b.WriteString("\n")
		b.WriteString(hit.Text)
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, contextSeparator)
}
