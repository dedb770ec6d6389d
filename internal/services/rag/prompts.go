package rag

import (
	"fmt"
	"strings"
)

// InsufficientContextAnswer is returned verbatim when retrieval yields no
// chunks. It is a well-formed answer, not an error.
const InsufficientContextAnswer = "I don't have enough information in your study materials to answer that question. Try uploading more material or rephrasing the question."

// answerSystemInstruction constrains the model to the retrieved context.
const answerSystemInstruction = `You are a study assistant that answers questions about a student's own learning materials.

Rules:
- Answer using ONLY the provided context. Do not use outside knowledge.
- If the context does not contain enough information to answer, say so plainly instead of guessing.
- Keep the answer concise: 3-4 sentences, at most 120 words.
- Write in plain prose without markdown formatting.`

// buildUserPrompt composes the question and the retrieved context into a
// single generation prompt.
func buildUserPrompt(question, contextBlock string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", question)
	b.WriteString("Context from the student's materials:\n\n")
	b.WriteString(contextBlock)
	return b.String()
}
