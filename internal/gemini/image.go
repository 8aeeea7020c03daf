package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/LAMpbrien/adventures-of/internal/ids"
	"github.com/LAMpbrien/adventures-of/internal/illustration"
	"github.com/LAMpbrien/adventures-of/internal/media/encode"
	"github.com/LAMpbrien/adventures-of/internal/media/sniffer"
)

var ErrNoImage = errors.New("model returned no image")

// GenerateImage renders one illustration conditioned on the reference image
// and stages it in the renders bucket, returning its URL.
func (c *Client) GenerateImage(ctx context.Context, req illustration.ProviderRequest) (string, error) {
	ref, err := c.fetcher.Fetch(ctx, req.ReferenceURL)
	if err != nil {
		return "", fmt.Errorf("fetch reference: %w", err)
	}
	kind, err := sniffer.DetectHead(ref.Data)
	if err != nil {
		return "", fmt.Errorf("reference image: %w", err)
	}

	parts := []*genai.Part{
		genai.NewPartFromText(req.Prompt),
		genai.NewPartFromBytes(ref.Data, kind.MIME),
	}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityText), string(genai.ModalityImage)},
		ImageConfig:        &genai.ImageConfig{AspectRatio: req.AspectRatio},
	}

	resp, err := c.generate(ctx, c.imageModel, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	if err != nil {
		return "", err
	}

	data, err := extractImage(resp)
	if err != nil {
		return "", err
	}

	format := req.OutputFormat
	if format == "" {
		format = encode.FormatPNG
	}
	data, err = encode.To(data, format)
	if err != nil {
		return "", err
	}

	ext := string(format)
	if format == encode.FormatJPEG {
		ext = "jpg"
	}
	return c.stager.Put(ctx, c.rendersBucket, ids.Token()+"."+ext, data, format.MIME())
}

func extractImage(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, ErrNoImage
	}

	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}

	if candidate.FinishReason != "" && candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("%w: finish reason %s", ErrNoImage, candidate.FinishReason)
	}
	return nil, ErrNoImage
}
