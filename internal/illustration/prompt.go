package illustration

import (
	"fmt"
	"strings"

	"github.com/LAMpbrien/adventures-of/internal/media/encode"
	"github.com/LAMpbrien/adventures-of/internal/models"
)

const scenePreamble = "Create a wide, full-scene children's book illustration. Show the entire environment as a panoramic landscape scene, including the sky, ground, background details and surrounding scenery. The child is shown within the scene, not as a close-up portrait. Frame it like a double-page spread in a high-quality children's picture book."

var stylePrefixes = map[models.IllustrationStyle]string{
	models.StyleWatercolor:   "Paint it in a warm watercolor style with bold colors and gentle lines.",
	models.StyleStorybook:    "Paint it as a traditional picture book illustration with rich gouache textures and a timeless, classic feel.",
	models.StyleCartoon:      "Draw it in a bright, modern cartoon style with clean outlines and flat, cheerful colors.",
	models.StylePencilSketch: "Draw it as a gentle pencil and ink sketch with soft shading and a light wash of color.",
}

const compositionRule = "COMPOSITION: Keep the top-left corner and the bottom-right corner simple and uncluttered (open sky, soft gradients, distant scenery or plain ground). Never place the child, other characters' faces or important objects in those two corners; keep the key action in the center and toward the top-right and bottom-left."

const noTextRule = "Do not render any text, words, letters, numbers, captions, titles, signs with writing or speech bubbles anywhere in the image."

// StylePrefix returns the art direction for style, falling back to
// watercolor.
func StylePrefix(style models.IllustrationStyle) string {
	if prefix, ok := stylePrefixes[style]; ok {
		return prefix
	}
	return stylePrefixes[models.StyleWatercolor]
}

// BuildPrompt assembles the instruction text sent to the image provider. The
// scene description always comes last.
func BuildPrompt(req Request) string {
	parts := []string{
		scenePreamble,
		StylePrefix(req.Style),
		compositionRule,
		noTextRule,
	}

	if req.Chained {
		parts = append(parts, fmt.Sprintf(
			"The reference image is an earlier illustration of %s, age %d, from this same book. Maintain the exact same character design: face, hair, proportions, outfit and art style. Ignore the background and scene of the reference image.",
			req.ChildName, req.ChildAge))
	} else {
		parts = append(parts, fmt.Sprintf(
			"The child in the reference photo is %s, age %d. Use the photo only for the child's likeness (face shape, skin tone, hair and eyes). Ignore the clothing in the photo.",
			req.ChildName, req.ChildAge))
	}

	if appearance := strings.TrimSpace(req.CharacterAppearance); appearance != "" {
		parts = append(parts, "Character appearance: "+appearance)
	}

	parts = append(parts, "Scene: "+strings.TrimSpace(req.SceneDescription))
	return strings.Join(parts, "\n\n")
}

// OutputFormat picks the file encoding for a quality tier.
func OutputFormat(quality models.ImageQuality) encode.Format {
	if quality == models.ImageQualityFast {
		return encode.FormatJPEG
	}
	return encode.FormatPNG
}
