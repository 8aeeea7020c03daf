package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LAMpbrien/adventures-of/internal/models"
)

type themeOption struct {
	ID          models.Theme  `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Region      models.Region `json:"region"`
}

type styleOption struct {
	ID          models.IllustrationStyle `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
}

type catalogResponse struct {
	Region    models.Region `json:"region"`
	Themes    []themeOption `json:"themes"`
	Styles    []styleOption `json:"styles"`
	Interests []string      `json:"interests"`
}

// Catalog lists what the create form offers for a region.
func (h HandlerSet) Catalog(c *gin.Context) {
	region := models.Region(c.DefaultQuery("region", string(models.RegionGlobal)))
	if !region.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid region"})
		return
	}

	resp := catalogResponse{Region: region, Interests: models.InterestOptions(region)}
	for _, t := range models.ThemesForRegion(region) {
		resp.Themes = append(resp.Themes, themeOption{t.ID, t.Name, t.Description, t.Region})
	}
	for _, s := range models.IllustrationStyles {
		resp.Styles = append(resp.Styles, styleOption{s.ID, s.Name, s.Description})
	}
	c.JSON(http.StatusOK, resp)
}
