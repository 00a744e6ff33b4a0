package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"plantdoctor/models"
	"plantdoctor/utils"
)

type DiseaseInput struct {
	Label       string `json:"label" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type DiseaseUpdateInput struct {
	DisplayName *string `json:"display_name"`
	Description *string `json:"description"`
}

func diseaseOut(d *models.Disease) gin.H {
	return gin.H{
		"id":           d.ID,
		"label":        d.Label,
		"display_name": d.DisplayName,
		"description":  d.Description,
	}
}

// CreateDisease Create a catalog entry; labels must be unique since they
// join against classifier output classes
func CreateDisease() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input DiseaseInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.Respond(c, http.StatusBadRequest, false, err.Error(), nil, nil)
			return
		}

		var existing models.Disease
		if err := models.DB.Where("label = ?", input.Label).First(&existing).Error; err == nil {
			utils.Respond(c, http.StatusOK, false, "Disease label already exists", nil, nil)
			return
		}

		disease := models.Disease{
			Label:       input.Label,
			DisplayName: input.DisplayName,
			Description: input.Description,
		}
		if err := models.DB.Create(&disease).Error; err != nil {
			utils.Respond(c, http.StatusInternalServerError, false, "Cannot create disease", nil, nil)
			return
		}
		utils.Respond(c, http.StatusOK, true, "Disease created", diseaseOut(&disease), nil)
	}
}

// UpdateDisease Update display name and description; the label is immutable
func UpdateDisease() gin.HandlerFunc {
	return func(c *gin.Context) {
		var disease models.Disease
		if err := models.DB.Where("id = ?", c.Param("id")).First(&disease).Error; err != nil {
			utils.Respond(c, http.StatusOK, false, "Disease not found", nil, nil)
			return
		}

		var input DiseaseUpdateInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.Respond(c, http.StatusBadRequest, false, err.Error(), nil, nil)
			return
		}

		if input.DisplayName != nil {
			disease.DisplayName = *input.DisplayName
		}
		if input.Description != nil {
			disease.Description = *input.Description
		}
		if err := models.DB.Save(&disease).Error; err != nil {
			utils.Respond(c, http.StatusInternalServerError, false, "Cannot update disease", nil, nil)
			return
		}
		utils.Respond(c, http.StatusOK, true, "Disease updated", diseaseOut(&disease), nil)
	}
}

// DeleteDisease Delete a catalog entry. Blocked while treatments still
// reference it; the failure reports the blocking count.
func DeleteDisease() gin.HandlerFunc {
	return func(c *gin.Context) {
		var disease models.Disease
		if err := models.DB.Where("id = ?", c.Param("id")).First(&disease).Error; err != nil {
			utils.Respond(c, http.StatusOK, false, "Disease not found", nil, nil)
			return
		}

		var count int64
		models.DB.Model(&models.Treatment{}).Where("disease_id = ?", disease.ID).Count(&count)
		if count > 0 {
			utils.Respond(c, http.StatusOK, false, "Cannot delete: treatments exist (delete them first)", nil, gin.H{"treatments": count})
			return
		}

		if err := models.DB.Delete(&disease).Error; err != nil {
			utils.Respond(c, http.StatusInternalServerError, false, "Cannot delete disease", nil, nil)
			return
		}
		utils.Respond(c, http.StatusOK, true, "Disease deleted", nil, nil)
	}
}

// ListDiseases Paginated catalog listing with free-text search over label
// and display name
func ListDiseases() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pagination(c, 50)

		query := models.DB.Model(&models.Disease{})
		if search := c.Query("search"); search != "" {
			pattern := "%" + search + "%"
			query = query.Where("label LIKE ? OR display_name LIKE ?", pattern, pattern)
		}

		var total int64
		query.Count(&total)

		var diseases []models.Disease
		if err := query.Order("display_name asc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&diseases).Error; err != nil {
			utils.Respond(c, http.StatusInternalServerError, false, "Cannot list diseases", nil, nil)
			return
		}

		payload := make([]gin.H, 0, len(diseases))
		for i := range diseases {
			payload = append(payload, diseaseOut(&diseases[i]))
		}
		meta := utils.PageMeta{Page: page, PageSize: pageSize, Total: total}
		utils.Respond(c, http.StatusOK, true, "Diseases retrieved", payload, meta)
	}
}
