package models

type Region string

const (
	RegionGlobal Region = "global"
	RegionAU     Region = "au"
	RegionNZ     Region = "nz"
)

var Regions = []Region{RegionGlobal, RegionAU, RegionNZ}

func (r Region) Valid() bool {
	return r == RegionGlobal || r == RegionAU || r == RegionNZ
}

// UsesCommonwealthSpelling reports whether stories for the region are
// written in Australian/New Zealand English.
func (r Region) UsesCommonwealthSpelling() bool {
	return r == RegionAU || r == RegionNZ
}

type Theme string

const (
	ThemeSpaceAdventure  Theme = "space-adventure"
	ThemeDinosaurRescue  Theme = "dinosaur-rescue"
	ThemeOceanExplorer   Theme = "ocean-explorer"
	ThemeBushAdventure   Theme = "bush-adventure"
	ThemeReefExplorer    Theme = "reef-explorer"
	ThemeOutbackExplorer Theme = "outback-explorer"
	ThemeForestGuardian  Theme = "forest-guardian"
)

type ThemeInfo struct {
	ID          Theme
	Name        string
	Description string
	Region      Region
}

var Themes = []ThemeInfo{
	{ThemeSpaceAdventure, "Space Adventure", "Blast off into the cosmos! Explore distant planets, meet friendly aliens, and save the galaxy.", RegionGlobal},
	{ThemeDinosaurRescue, "Dinosaur Rescue", "Travel back in time to the age of dinosaurs! Befriend gentle giants and outsmart the fierce ones.", RegionGlobal},
	{ThemeOceanExplorer, "Ocean Explorer", "Dive deep beneath the waves! Discover hidden treasures, swim with dolphins, and explore coral kingdoms.", RegionGlobal},
	{ThemeBushAdventure, "Australian Bush Adventure", "Explore the magical Australian bush! Meet koalas, kangaroos, and wombats in the land down under.", RegionAU},
	{ThemeReefExplorer, "Great Barrier Reef Explorer", "Dive into the world's greatest reef! Swim with sea turtles, discover coral gardens, and help protect ocean treasures.", RegionAU},
	{ThemeOutbackExplorer, "Outback Explorer", "Journey into the red heart of Australia! Discover ancient landscapes, meet curious creatures, and gaze at endless stars.", RegionAU},
	{ThemeForestGuardian, "New Zealand Forest Guardian", "Venture into ancient native bush! Protect kiwi birds, discover glowworm caves, and explore towering kauri forests.", RegionNZ},
}

func LookupTheme(id Theme) (ThemeInfo, bool) {
	for _, t := range Themes {
		if t.ID == id {
			return t, true
		}
	}
	return ThemeInfo{}, false
}

func (t Theme) Valid() bool {
	_, ok := LookupTheme(t)
	return ok
}

// AvailableIn reports whether the theme can be picked for a book in region.
func (t Theme) AvailableIn(region Region) bool {
	info, ok := LookupTheme(t)
	if !ok {
		return false
	}
	return info.Region == RegionGlobal || info.Region == region
}

// ThemesForRegion lists the themes a user in region can pick from.
func ThemesForRegion(region Region) []ThemeInfo {
	out := make([]ThemeInfo, 0, len(Themes))
	for _, t := range Themes {
		if t.Region == RegionGlobal || t.Region == region {
			out = append(out, t)
		}
	}
	return out
}

type ImageQuality string

const (
	ImageQualityFast     ImageQuality = "fast"
	ImageQualityStandard ImageQuality = "standard"
)

func (q ImageQuality) Valid() bool {
	return q == ImageQualityFast || q == ImageQualityStandard
}

type IllustrationStyle string

const (
	StyleWatercolor   IllustrationStyle = "watercolor"
	StyleStorybook    IllustrationStyle = "storybook"
	StyleCartoon      IllustrationStyle = "cartoon"
	StylePencilSketch IllustrationStyle = "pencil-sketch"
)

type StyleInfo struct {
	ID          IllustrationStyle
	Name        string
	Description string
}

var IllustrationStyles = []StyleInfo{
	{StyleWatercolor, "Watercolor", "Warm, soft watercolor with bold colors and gentle lines"},
	{StyleStorybook, "Classic Storybook", "Traditional picture book illustration with rich gouache textures"},
	{StyleCartoon, "Cartoon", "Bright, modern cartoon style with clean outlines"},
	{StylePencilSketch, "Pencil Sketch", "Gentle pencil and ink sketch with soft shading"},
}

func (s IllustrationStyle) Valid() bool {
	for _, info := range IllustrationStyles {
		if info.ID == s {
			return true
		}
	}
	return false
}

var baseInterests = []string{
	"Dinosaurs", "Space", "Animals", "Cars & Trucks", "Princesses",
	"Superheroes", "Nature", "Music", "Art & Drawing", "Sports",
	"Building & Legos", "Cooking", "Magic", "Robots", "Pirates",
}

var regionalInterests = map[Region][]string{
	RegionAU: {"Australian Animals", "Beach & Surfing", "Cricket", "Rugby", "Bushwalking", "Marine Life"},
	RegionNZ: {"New Zealand Birds", "Rugby", "Beach & Surfing", "Bushwalking", "Volcanoes", "Marine Life"},
}

// InterestOptions is the suggested interest list for a region. Children may
// carry interests outside it.
func InterestOptions(region Region) []string {
	out := append([]string(nil), baseInterests...)
	return append(out, regionalInterests[region]...)
}
