package models

import "time"

type ReadingLevel string

const (
	ReadingLevelBeginner     ReadingLevel = "beginner"
	ReadingLevelIntermediate ReadingLevel = "intermediate"
	ReadingLevelAdvanced     ReadingLevel = "advanced"
)

func (r ReadingLevel) Valid() bool {
	switch r {
	case ReadingLevelBeginner, ReadingLevelIntermediate, ReadingLevelAdvanced:
		return true
	}
	return false
}

var ReadingLevels = []ReadingLevel{ReadingLevelBeginner, ReadingLevelIntermediate, ReadingLevelAdvanced}

// Child is the profile a story is written about.
type Child struct {
	ID             string
	UserID         string
	Name           string
	Age            int
	Interests      []string
	FavoriteThings *string
	FearsToAvoid   *string
	ReadingLevel   ReadingLevel
	PhotoURLs      []string
	CreatedAt      time.Time
}

// PrimaryPhotoURL is the likeness anchor for the first illustration of a run.
func (c Child) PrimaryPhotoURL() string {
	if len(c.PhotoURLs) == 0 {
		return ""
	}
	return c.PhotoURLs[0]
}
