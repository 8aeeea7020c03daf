package illustration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LAMpbrien/adventures-of/internal/media/encode"
	"github.com/LAMpbrien/adventures-of/internal/models"
)

type fakeProvider struct {
	url      string
	err      error
	requests []ProviderRequest
}

func (f *fakeProvider) GenerateImage(_ context.Context, req ProviderRequest) (string, error) {
	f.requests = append(f.requests, req)
	return f.url, f.err
}

func baseRequest() Request {
	return Request{
		ReferenceImageURL:   "https://photos.example/mira.jpg",
		ChildName:           "Mira",
		ChildAge:            6,
		SceneDescription:    "Mira waves at a baby triceratops beside a misty river.",
		Quality:             models.ImageQualityFast,
		Style:               models.StyleCartoon,
		CharacterAppearance: "Curly black hair, a yellow raincoat.",
	}
}

func TestBuildPromptOrderAndDirectives(t *testing.T) {
	req := baseRequest()
	prompt := BuildPrompt(req)

	assert.Contains(t, prompt, stylePrefixes[models.StyleCartoon])
	assert.Contains(t, prompt, "top-left corner and the bottom-right corner")
	assert.Contains(t, prompt, "Do not render any text")
	assert.Contains(t, prompt, "Ignore the clothing in the photo.")
	assert.NotContains(t, prompt, "Maintain the exact same character design")
	assert.True(t, strings.HasSuffix(prompt, "Scene: "+req.SceneDescription))

	appearanceAt := strings.Index(prompt, "Character appearance: Curly black hair")
	sceneAt := strings.Index(prompt, "Scene: ")
	require.Positive(t, appearanceAt)
	assert.Less(t, appearanceAt, sceneAt)

	req.Chained = true
	chained := BuildPrompt(req)
	assert.Contains(t, chained, "Maintain the exact same character design")
	assert.Contains(t, chained, "Ignore the background and scene of the reference image.")
	assert.NotContains(t, chained, "Ignore the clothing in the photo.")
}

func TestBuildPromptWithoutAppearance(t *testing.T) {
	req := baseRequest()
	req.CharacterAppearance = "  "
	assert.NotContains(t, BuildPrompt(req), "Character appearance:")
}

func TestStylePrefixes(t *testing.T) {
	for _, style := range models.IllustrationStyles {
		assert.NotEmpty(t, stylePrefixes[style.ID], style.ID)
	}
	assert.Equal(t, stylePrefixes[models.StyleWatercolor], StylePrefix("oil-painting"))
}

func TestOutputFormat(t *testing.T) {
	assert.Equal(t, encode.FormatJPEG, OutputFormat(models.ImageQualityFast))
	assert.Equal(t, encode.FormatPNG, OutputFormat(models.ImageQualityStandard))
}

func TestGenerate(t *testing.T) {
	provider := &fakeProvider{url: "https://cdn.example/renders/abc.jpg"}
	got, err := NewGenerator(provider).Generate(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/renders/abc.jpg", got)

	require.Len(t, provider.requests, 1)
	assert.Equal(t, "https://photos.example/mira.jpg", provider.requests[0].ReferenceURL)
	assert.Equal(t, encode.FormatJPEG, provider.requests[0].OutputFormat)
	assert.Equal(t, "16:9", provider.requests[0].AspectRatio)
}

func TestGenerateErrors(t *testing.T) {
	boom := errors.New("quota exceeded")

	tests := []struct {
		name     string
		provider *fakeProvider
		mutate   func(*Request)
		target   error
	}{
		{"transport", &fakeProvider{err: boom}, nil, boom},
		{"empty", &fakeProvider{url: " "}, nil, ErrEmptyResponse},
		{"invalid url", &fakeProvider{url: "not a url"}, nil, nil},
		{"no reference", &fakeProvider{url: "https://x"}, func(r *Request) { r.ReferenceImageURL = "" }, ErrNoReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			_, err := NewGenerator(tt.provider).Generate(context.Background(), req)

			var svcErr *ServiceError
			require.True(t, errors.As(err, &svcErr), "got %v", err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestChainAnchorsOnFirstSuccess(t *testing.T) {
	c := NewChain("https://photos.example/mira.jpg")

	ref, chained := c.Reference()
	assert.Equal(t, "https://photos.example/mira.jpg", ref)
	assert.False(t, chained)

	c.Record("https://cdn.example/1.png")
	c.Record("https://cdn.example/2.png")

	ref, chained = c.Reference()
	assert.Equal(t, "https://cdn.example/1.png", ref)
	assert.True(t, chained)
}
