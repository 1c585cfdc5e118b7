package chat

import (
	"fmt"
	"strings"

	"github.com/luminahr/knowledge/internal/models"
)

// systemPrompt frames every conversation. It instructs the model to
// stay grounded in retrieved document content and to cite it.
const systemPrompt = `You are an intelligent HR assistant with access to company knowledge documents.
Your role is to help HR administrators with questions about company policies, procedures, and employee-related matters.

CRITICAL INSTRUCTIONS:
1. You MUST base your answers primarily on the provided context from company documents
2. When context is provided, extract and cite specific information from it
3. If the context contains relevant information, summarize and explain it clearly
4. Only if the context truly doesn't contain relevant information, acknowledge this
5. Be specific - quote or paraphrase directly from the documents when possible
6. Always mention which document(s) you're referencing
7. Format your response clearly with bullet points when listing multiple items`

// buildUserMessage wraps the user's question in the grounding template.
// With no retrieved context the model is told so explicitly, so it never
// hallucinates document citations.
func buildUserMessage(question, context string) string {
	if context == "" {
		return fmt.Sprintf(`Question: %s

Note: No documents have been uploaded to the knowledge base yet, or no relevant documents were found. Please provide a general response and suggest uploading relevant policy documents for more specific answers.`, question)
	}

	return fmt.Sprintf(`I have retrieved the following relevant information from our company knowledge base:

=== DOCUMENT CONTENT START ===
%s
=== DOCUMENT CONTENT END ===

Based on the above document content, please answer this question: %s

Important: Your answer should be based on the document content provided above. Quote or reference specific parts of the documents.`, context, question)
}

// buildReasoning describes how the answer was grounded, for display
// alongside the response.
func buildReasoning(sources []models.Source) string {
	if len(sources) == 0 {
		return "No documents in knowledge base matched this query. Response is based on general AI knowledge. Consider uploading relevant policy documents for more specific answers."
	}

	names := make([]string, len(sources))
	var total float64
	for i, s := range sources {
		names[i] = s.Name
		total += s.Relevance
	}
	avg := total / float64(len(sources))

	return fmt.Sprintf("Answer derived from %d relevant document(s): %s. Average relevance score: %.1f%%",
		len(sources), strings.Join(names, ", "), avg)
}
