package story

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/LAMpbrien/adventures-of/internal/models"
)

var ErrUnknownTheme = errors.New("unknown theme")

// FormatError reports generated output that does not satisfy the story
// contract.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid story output: %s: %v", e.Reason, e.Err)
	}
	return "invalid story output: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

type Page struct {
	PageNumber       int    `json:"page_number"`
	Text             string `json:"text"`
	ImageDescription string `json:"image_description"`
}

type Story struct {
	Title               string `json:"title"`
	CharacterAppearance string `json:"character_appearance"`
	Pages               []Page `json:"pages"`
}

type TextRequest struct {
	System    string
	Prompt    string
	MaxTokens int
}

// TextGenerator is a prompt-in, text-out language model.
type TextGenerator interface {
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}

type Generator struct {
	text      TextGenerator
	maxTokens int
}

func NewGenerator(text TextGenerator, maxTokens int) *Generator {
	return &Generator{text: text, maxTokens: maxTokens}
}

// Generate writes an 8-page story about child for theme. It never retries.
func (g *Generator) Generate(ctx context.Context, child models.Child, theme models.Theme, region models.Region) (*Story, error) {
	prompt, err := UserPrompt(child, theme)
	if err != nil {
		return nil, err
	}

	raw, err := g.text.GenerateText(ctx, TextRequest{
		System:    SystemPrompt(region),
		Prompt:    prompt,
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generate story: %w", err)
	}

	return Parse(raw)
}

var (
	fencePattern         = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// Parse extracts a story from raw model output. Fenced code blocks and
// trailing commas are tolerated.
func Parse(raw string) (*Story, error) {
	body := raw
	if m := fencePattern.FindStringSubmatch(body); m != nil {
		body = m[1]
	}
	body = trailingCommaPattern.ReplaceAllString(strings.TrimSpace(body), "$1")

	var s Story
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		return nil, &FormatError{Reason: "not valid JSON", Err: err}
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Story) validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return &FormatError{Reason: "missing title"}
	}
	if strings.TrimSpace(s.CharacterAppearance) == "" {
		return &FormatError{Reason: "missing character_appearance"}
	}
	if len(s.Pages) != models.StoryLength {
		return &FormatError{Reason: fmt.Sprintf("expected %d pages, got %d", models.StoryLength, len(s.Pages))}
	}

	sort.SliceStable(s.Pages, func(i, j int) bool { return s.Pages[i].PageNumber < s.Pages[j].PageNumber })
	for i, p := range s.Pages {
		if p.PageNumber != i+1 {
			return &FormatError{Reason: fmt.Sprintf("page numbers must run 1..%d", models.StoryLength)}
		}
		if strings.TrimSpace(p.Text) == "" || strings.TrimSpace(p.ImageDescription) == "" {
			return &FormatError{Reason: fmt.Sprintf("page %d is missing text or image_description", p.PageNumber)}
		}
	}
	return nil
}
