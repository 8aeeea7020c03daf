package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionHappyPath(t *testing.T) {
	path := []BookStatus{
		BookStatusGenerating,
		BookStatusGeneratingStory,
		BookStatusGeneratingImages,
		BookStatusPreviewReady,
		BookStatusPaid,
		BookStatusComplete,
	}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, path[i].CanTransition(path[i+1]), "%s -> %s", path[i], path[i+1])
		for j := 0; j < len(path); j++ {
			if j == i+1 {
				continue
			}
			assert.False(t, path[i].CanTransition(path[j]), "%s -> %s", path[i], path[j])
		}
	}
}

func TestCanTransitionFailed(t *testing.T) {
	for _, s := range []BookStatus{BookStatusGenerating, BookStatusGeneratingStory, BookStatusGeneratingImages, BookStatusPreviewReady, BookStatusPaid} {
		assert.True(t, s.CanTransition(BookStatusFailed), s)
	}
	assert.False(t, BookStatusComplete.CanTransition(BookStatusFailed))
	assert.False(t, BookStatusFailed.CanTransition(BookStatusGenerating))
	assert.False(t, BookStatus("bogus").CanTransition(BookStatusFailed))
}

func TestModeTargets(t *testing.T) {
	url := "https://cdn.example/p.png"
	pages := []BookPage{
		{PageNumber: 1, IsPreview: true, ImageURL: &url},
		{PageNumber: 2, IsPreview: true},
		{PageNumber: 3, IsPreview: false, ImageURL: &url},
		{PageNumber: 4, IsPreview: false},
	}

	numbers := func(ps []BookPage) []int {
		var out []int
		for _, p := range ps {
			out = append(out, p.PageNumber)
		}
		return out
	}

	assert.Equal(t, []int{1, 2}, numbers(ModePreview.Targets(pages)))
	assert.Equal(t, []int{2, 3, 4}, numbers(ModeFull.Targets(pages)))
	assert.False(t, GenerationMode("draft").Valid())
}

func TestThemeAvailability(t *testing.T) {
	assert.True(t, ThemeDinosaurRescue.AvailableIn(RegionNZ))
	assert.True(t, ThemeBushAdventure.AvailableIn(RegionAU))
	assert.False(t, ThemeBushAdventure.AvailableIn(RegionNZ))
	assert.False(t, ThemeForestGuardian.AvailableIn(RegionGlobal))
	assert.False(t, Theme("moon-base").AvailableIn(RegionGlobal))

	assert.Len(t, ThemesForRegion(RegionGlobal), 3)
	assert.Len(t, ThemesForRegion(RegionAU), 6)
	assert.Len(t, ThemesForRegion(RegionNZ), 4)
	assert.Len(t, Themes, 7)
}

func TestInterestOptions(t *testing.T) {
	assert.Len(t, InterestOptions(RegionGlobal), 15)
	assert.Contains(t, InterestOptions(RegionAU), "Cricket")
	assert.Contains(t, InterestOptions(RegionNZ), "Volcanoes")
	assert.NotContains(t, InterestOptions(RegionGlobal), "Cricket")
}
