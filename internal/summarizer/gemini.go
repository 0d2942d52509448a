package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-1.5-flash"

// Gemini summarizes text with Google's Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini initializes the Gemini client. modelName falls back to
// DefaultModel when empty.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	return &Gemini{client: client, model: modelName}, nil
}

// Close releases the underlying client connection.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// Summarize asks the model for a summary of text between minWords and
// maxWords words.
func (g *Gemini) Summarize(ctx context.Context, text string, maxWords, minWords int) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(text, maxWords, minWords)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSummarization, err)
	}

	summary := extractText(resp)
	if summary == "" {
		return "", fmt.Errorf("%w: empty model response", ErrSummarization)
	}
	return summary, nil
}

const systemPrompt = `You are a summarization engine. Respond with the summary text only, no preamble or commentary.`

// buildPrompt frames the request so the model honors the word bounds.
func buildPrompt(text string, maxWords, minWords int) string {
	return fmt.Sprintf("Summarize the following text in %d to %d words:\n\n%s", minWords, maxWords, text)
}

// extractText concatenates the text parts of the first candidate.
// Returns "" when the response carries no text.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}
