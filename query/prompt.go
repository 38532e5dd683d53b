package query

import (
	"fmt"
	"strings"

	"github.com/poiesic/docquery/core"
)

// promptTemplate constrains the model to the retrieved context so it cannot
// answer from its general knowledge. When the context does not fully cover
// the question, the model is instructed to say what is missing instead of
// inventing an answer.
const promptTemplate = `You are an intelligent assistant that answers questions based on the provided context with high precision and accuracy.

Instructions:
1. Use ONLY the information provided in the context below
2. If the answer is not fully contained in the context, clearly state what information is missing
3. Provide detailed, accurate, and well-structured responses
4. Cite specific parts of the context when possible
5. If you're uncertain about any detail, express that uncertainty
6. Focus on being helpful while maintaining complete accuracy

Context:
%s

Question: %s

Answer: Let me analyze the provided context to give you a precise and accurate response.`

// buildPrompt assembles the grounded prompt from the retained matches.
// Chunks are joined in retrieval rank order, separated by blank lines.
func buildPrompt(question string, matches []*core.ChunkMatch) string {
	var sb strings.Builder
	for i, match := range matches {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(match.Chunk.Text)
	}

	return fmt.Sprintf(promptTemplate, sb.String(), question)
}
