package adapter

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// SearchResponse is the raw answer of the external search service.
// Content is unstructured text; the research pipeline is responsible
// for parsing and validating it.
type SearchResponse struct {
	Content string
	Sources []string
}

// Search is the external search service contract. Implementations may
// fail or time out; callers classify such failures as external service
// errors.
type Search interface {
	Search(ctx context.Context, prompt string) (*SearchResponse, error)
}

// geminiSearch answers search prompts with Gemini grounded by Google
// Search.
type geminiSearch struct {
	gemini Gemini
}

// NewGeminiSearch creates a Search backed by the Gemini adapter
func NewGeminiSearch(gemini Gemini) Search {
	return &geminiSearch{gemini: gemini}
}

func (s *geminiSearch) Search(ctx context.Context, prompt string) (*SearchResponse, error) {
	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := s.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "search request failed")
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, goerr.New("empty response from search backend")
	}

	candidate := resp.Candidates[0]

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}

	// Grounding chunks carry the web sources the answer was built from
	var sources []string
	if candidate.GroundingMetadata != nil {
		for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
			if chunk.Web != nil && chunk.Web.URI != "" {
				sources = append(sources, chunk.Web.URI)
			}
		}
	}

	return &SearchResponse{
		Content: text.String(),
		Sources: sources,
	}, nil
}
