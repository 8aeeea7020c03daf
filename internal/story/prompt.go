package story

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/LAMpbrien/adventures-of/internal/models"
)

const baseSystemPrompt = `You are an award-winning children's book author who creates personalized stories for young readers. Your stories are warm, engaging, age-appropriate, and make the child feel like a true hero.

RULES:
- The child is ALWAYS the hero and protagonist
- Use the child's name throughout the story naturally
- Weave the child's interests into the narrative where it fits
- NEVER include anything related to the child's fears/things to avoid
- Match vocabulary and sentence complexity to the reading level
- Every story must have a positive, empowering resolution
- Each page should have approximately 80-120 words
- The story should have a clear arc: introduction, rising action, climax, resolution

READING LEVELS:
- beginner: Simple sentences, 3-5 words each. Repetitive patterns. Very basic vocabulary. Ages 2-4.
- intermediate: Slightly longer sentences. Some descriptive words. Simple dialogue. Ages 4-6.
- advanced: Complex sentences with descriptive language. Rich vocabulary. Multiple characters with dialogue. Ages 6-8.

OUTPUT FORMAT:
Respond with ONLY valid JSON in this exact format (no markdown, no code blocks):
{
  "title": "The story title",
  "character_appearance": "A detailed canonical description of how the child looks as an illustrated character. Include: hair color, hair style and length, skin tone, eye color, face shape, approximate height/build for their age. Then describe their outfit in detail with specific colors (e.g. 'a bright red t-shirt with short sleeves, khaki cargo shorts, and white sneakers'). This description will be reused word-for-word across all illustrations to ensure the character looks identical on every page.",
  "pages": [
    {
      "page_number": 1,
      "text": "The story text for this page...",
      "image_description": "A detailed description of a wide, immersive panoramic landscape scene for this page. No text or words of any kind in the image. The scene should fill the entire image edge to edge with no borders, frames, or book-page effects. Describe the full environment first, then place the child within the scene doing something active. Include sky, terrain, background details, lighting, colors, other characters, and atmospheric details."
    }
  ]
}

IMPORTANT for image_description:
- Describe a FULL PANORAMIC SCENE in wide landscape format that fills the entire image edge to edge. NO borders, NO book pages, NO frames, NO open-book effects
- CLEAR CORNERS: Keep the TOP-LEFT corner and BOTTOM-RIGHT corner of the scene relatively simple (open sky, soft gradients, gentle clouds, distant scenery, or plain ground). Do NOT place the child character, important objects, or other characters' faces in the top-left or bottom-right corners
- Place ALL key characters, action, and important details in the CENTER of the image and toward the TOP-RIGHT and BOTTOM-LEFT areas
- NEVER include any text, words, letters, numbers, captions, titles, signs with writing, or speech bubbles in the image_description. The image must be purely visual with zero text rendered in it
- Place the child WITHIN the scene as part of the wider world, NOT as a close-up portrait or headshot
- Show the child at roughly 1/3 to 1/2 scale relative to the full scene, doing something active
- Describe their expression (happy, excited, brave, etc.) and body language
- Fill the middle band of the scene with rich environmental details: plants, animals, weather, architecture, terrain, magical elements
- Include specific colors, lighting direction, time of day, and atmosphere
- Mention any other characters, creatures, or objects and where they are in the scene
- Every scene should feel like a vivid, explorable world the reader wants to step into
- Keep descriptions positive and child-friendly
- Do NOT reference the child's real photo - describe them as an illustrated character
- CHARACTER APPEARANCE FIELD: Before writing the pages, define a "character_appearance" field with a detailed canonical description of the child as an illustrated character. Include hair color/style/length, skin tone, eye color, face shape, build, and their outfit with specific colors and details. Choose ONE outfit that fits the theme. This field is used as a reference sheet for the illustrator.
- CLOTHING CONSISTENCY: This is CRITICAL. Each image is generated independently so the outfit must be described explicitly every time. The outfit you define in "character_appearance" must appear word-for-word in every page's image_description BY DEFAULT. The ONLY exception is when the story text itself describes a meaningful outfit change (e.g. the child puts on a diving suit, receives a magical cloak, or changes into a costume). In that case, define the new outfit clearly and use that new description consistently for all following pages. Never change the outfit silently between pages; it must be motivated by the story.
- Focus character descriptions on the child's FACE and BODY LANGUAGE, not their clothing details`

const regionalSpellingRules = `

SPELLING & LANGUAGE:
- Use Australian/New Zealand English spelling throughout the story text
- colour (not color), favourite (not favorite), mum (not mom), centre (not center)
- honour (not honor), neighbour (not neighbor), realise (not realize)
- Use local vocabulary where natural (e.g. "bush" for forest/wilderness, "mate" for friend)`

const userFrame = `Create an 8-page personalized children's {{.Kind}} story.

CHILD DETAILS:
- Name: {{.Name}}
- Age: {{.Age}}
- Interests: {{.Interests}}
- {{.FavoritesLabel}}: {{.Favorites}}
- Things to AVOID in the story: {{.Fears}}
- Reading level: {{.ReadingLevel}}

STORY STRUCTURE:
{{range $i, $beat := .Beats}}- Page {{inc $i}}: {{$beat}}
{{end}}{{if .Setting}}
SETTING DETAILS:
{{range .Setting}}- {{.}}
{{end}}{{end}}
TONE: {{.Tone}}

Remember: Respond with ONLY valid JSON, no markdown code blocks.`

var userTemplate = template.Must(template.New("user").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(userFrame))

type compiledScaffold struct {
	kind     string
	beats    []*template.Template
	setting  []string
	tone     *template.Template
	regional bool
}

var compiled = compileScaffolds()

func compileScaffolds() map[models.Theme]compiledScaffold {
	out := make(map[models.Theme]compiledScaffold, len(scaffolds))
	for theme, s := range scaffolds {
		info, _ := models.LookupTheme(theme)
		c := compiledScaffold{
			kind:     s.kind,
			setting:  s.setting,
			tone:     template.Must(template.New(string(theme) + "/tone").Parse(s.tone)),
			regional: info.Region.UsesCommonwealthSpelling(),
		}
		for i, beat := range s.beats {
			c.beats = append(c.beats, template.Must(template.New(fmt.Sprintf("%s/%d", theme, i+1)).Parse(beat)))
		}
		out[theme] = c
	}
	return out
}

type promptData struct {
	Kind           string
	Name           string
	Age            int
	Interests      string
	FavoritesLabel string
	Favorites      string
	Fears          string
	ReadingLevel   models.ReadingLevel
	Beats          []string
	Setting        []string
	Tone           string
}

// SystemPrompt is the author brief, with the regional spelling directive for
// AU and NZ.
func SystemPrompt(region models.Region) string {
	if region.UsesCommonwealthSpelling() {
		return baseSystemPrompt + regionalSpellingRules
	}
	return baseSystemPrompt
}

// UserPrompt renders the theme scaffold for child.
func UserPrompt(child models.Child, theme models.Theme) (string, error) {
	s, ok := compiled[theme]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, theme)
	}

	data := promptData{
		Kind:           s.kind,
		Name:           child.Name,
		Age:            child.Age,
		Interests:      strings.Join(child.Interests, ", "),
		FavoritesLabel: "Favorite things",
		Favorites:      orDefault(child.FavoriteThings, "not specified"),
		Fears:          orDefault(child.FearsToAvoid, "none specified"),
		ReadingLevel:   child.ReadingLevel,
		Setting:        s.setting,
	}
	if s.regional {
		data.FavoritesLabel = "Favourite things"
	}

	for _, beat := range s.beats {
		text, err := execute(beat, data)
		if err != nil {
			return "", err
		}
		data.Beats = append(data.Beats, text)
	}

	tone, err := execute(s.tone, data)
	if err != nil {
		return "", err
	}
	data.Tone = tone

	return execute(userTemplate, data)
}

func execute(t *template.Template, data promptData) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return b.String(), nil
}

func orDefault(value *string, fallback string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return fallback
	}
	return *value
}
