package ebook

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	epub "github.com/go-shiori/go-epub"
	"github.com/microcosm-cc/bluemonday"
	"github.com/vincent-petithory/dataurl"

	"github.com/LAMpbrien/adventures-of/internal/assets"
	"github.com/LAMpbrien/adventures-of/internal/media/sniffer"
	"github.com/LAMpbrien/adventures-of/internal/models"
)

type Page struct {
	Number   int
	Text     string
	ImageURL string
}

type Book struct {
	Title    string
	Author   string
	Language string
	Pages    []Page
}

// Renderer packages a finished book as an EPUB with its illustrations
// embedded.
type Renderer struct {
	fetcher assets.BlobFetcher
	policy  *bluemonday.Policy
}

func NewRenderer(fetcher assets.BlobFetcher) *Renderer {
	return &Renderer{fetcher: fetcher, policy: bluemonday.StrictPolicy()}
}

// Language maps a region to the EPUB language tag.
func Language(region models.Region) string {
	switch region {
	case models.RegionAU:
		return "en-AU"
	case models.RegionNZ:
		return "en-NZ"
	}
	return "en"
}

func (r *Renderer) Render(ctx context.Context, book Book) ([]byte, error) {
	title := strings.TrimSpace(book.Title)
	if title == "" {
		title = "My Adventure"
	}

	e, err := epub.NewEpub(title)
	if err != nil {
		return nil, fmt.Errorf("create epub: %w", err)
	}
	if book.Author != "" {
		e.SetAuthor(book.Author)
	}
	lang := book.Language
	if lang == "" {
		lang = "en"
	}
	e.SetLang(lang)

	titlePage := "<h1>" + r.policy.Sanitize(title) + "</h1>"
	if book.Author != "" {
		titlePage += "<p>A story for " + r.policy.Sanitize(book.Author) + "</p>"
	}
	if _, err := e.AddSection(titlePage, title, "title.xhtml", ""); err != nil {
		return nil, fmt.Errorf("add title page: %w", err)
	}

	for _, page := range book.Pages {
		var body strings.Builder

		if page.ImageURL != "" {
			internal, err := r.addImage(ctx, e, page)
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(&body, `<div class="illustration"><img src="%s" alt="" /></div>`, internal)
		}

		for _, para := range strings.Split(page.Text, "\n") {
			if para = strings.TrimSpace(para); para != "" {
				fmt.Fprintf(&body, "<p>%s</p>", r.policy.Sanitize(para))
			}
		}

		name := fmt.Sprintf("page-%d.xhtml", page.Number)
		if _, err := e.AddSection(body.String(), fmt.Sprintf("Page %d", page.Number), name, ""); err != nil {
			return nil, fmt.Errorf("add page %d: %w", page.Number, err)
		}
	}

	var buf bytes.Buffer
	if _, err := e.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write epub: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) addImage(ctx context.Context, e *epub.Epub, page Page) (string, error) {
	blob, err := r.fetcher.Fetch(ctx, page.ImageURL)
	if err != nil {
		return "", fmt.Errorf("fetch illustration for page %d: %w", page.Number, err)
	}
	kind, err := sniffer.DetectHead(blob.Data)
	if err != nil {
		return "", fmt.Errorf("illustration for page %d: %w", page.Number, err)
	}

	source := dataurl.New(blob.Data, kind.MIME).String()
	internal, err := e.AddImage(source, fmt.Sprintf("page-%d.%s", page.Number, kind.Ext()))
	if err != nil {
		return "", fmt.Errorf("embed illustration for page %d: %w", page.Number, err)
	}
	return internal, nil
}
