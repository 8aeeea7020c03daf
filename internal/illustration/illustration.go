package illustration

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/LAMpbrien/adventures-of/internal/media/encode"
	"github.com/LAMpbrien/adventures-of/internal/models"
)

const AspectRatio = "16:9"

var (
	ErrNoReference   = errors.New("reference image url is required")
	ErrEmptyResponse = errors.New("provider returned no image")
)

// ServiceError wraps every failure of a single illustration call.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return "illustration service: " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error { return e.Err }

type Request struct {
	ReferenceImageURL   string
	ChildName           string
	ChildAge            int
	SceneDescription    string
	Quality             models.ImageQuality
	Style               models.IllustrationStyle
	CharacterAppearance string
	Chained             bool
}

type ProviderRequest struct {
	Prompt       string
	ReferenceURL string
	OutputFormat encode.Format
	AspectRatio  string
}

// ImageProvider turns a prompt and one reference image into one image URL.
type ImageProvider interface {
	GenerateImage(ctx context.Context, req ProviderRequest) (string, error)
}

type Generator struct {
	provider ImageProvider
}

func NewGenerator(provider ImageProvider) *Generator {
	return &Generator{provider: provider}
}

func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.ReferenceImageURL) == "" {
		return "", &ServiceError{Err: ErrNoReference}
	}

	out, err := g.provider.GenerateImage(ctx, ProviderRequest{
		Prompt:       BuildPrompt(req),
		ReferenceURL: req.ReferenceImageURL,
		OutputFormat: OutputFormat(req.Quality),
		AspectRatio:  AspectRatio,
	})
	if err != nil {
		return "", &ServiceError{Err: err}
	}
	if strings.TrimSpace(out) == "" {
		return "", &ServiceError{Err: ErrEmptyResponse}
	}
	if u, err := url.Parse(out); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", &ServiceError{Err: fmt.Errorf("provider returned invalid url %q", out)}
	}
	return out, nil
}

// Chain tracks the likeness anchor of one run. Until an illustration
// succeeds the child's photo is the reference; afterwards the first
// successful illustration is.
type Chain struct {
	photo  string
	anchor string
}

func NewChain(photoURL string) *Chain {
	return &Chain{photo: photoURL}
}

// Reference returns the image to condition the next call on and whether it
// is a chained illustration.
func (c *Chain) Reference() (string, bool) {
	if c.anchor != "" {
		return c.anchor, true
	}
	return c.photo, false
}

// Record notes a successful illustration. Only the first one becomes the
// anchor.
func (c *Chain) Record(url string) {
	if c.anchor == "" {
		c.anchor = url
	}
}
