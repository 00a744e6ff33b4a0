package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"plantdoctor/models"
	"plantdoctor/utils"
)

type TreatmentInput struct {
	DiseaseLabel string `json:"disease_label" binding:"required"`
	Type         string `json:"type" binding:"required,oneof=organic chemical"`
	Title        string `json:"title" binding:"required"`
	Instructions string `json:"instructions" binding:"required"`
	Dosage       string `json:"dosage"`
	Locale       string `json:"locale" binding:"omitempty,oneof=en si ta"`
}

type TreatmentUpdateInput struct {
	Type         *string `json:"type" binding:"omitempty,oneof=organic chemical"`
	Title        *string `json:"title"`
	Instructions *string `json:"instructions"`
	Dosage       *string `json:"dosage"`
	Locale       *string `json:"locale" binding:"omitempty,oneof=en si ta"`
}

func treatmentOut(t *models.Treatment) gin.H {
	return gin.H{
		"id":           t.ID,
		"disease_id":   t.DiseaseID,
		"type":         t.Type,
		"title":        t.Title,
		"instructions": t.Instructions,
		"dosage":       t.Dosage,
		"locale":       t.Locale,
	}
}

// CreateTreatment Attach a treatment to a disease, referenced by label
func CreateTreatment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input TreatmentInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.Respond(c, http.StatusBadRequest, false, err.Error(), nil, nil)
			return
		}

		var disease models.Disease
		if err := models.DB.Where("label = ?", input.DiseaseLabel).First(&disease).Error; err != nil {
			utils.Respond(c, http.StatusOK, false, "Disease not found", nil, nil)
			return
		}

		locale := input.Locale
		if locale == "" {
			locale = "en"
		}
		treatment := models.Treatment{
			DiseaseID:    disease.ID,
			Type:         input.Type,
			Title:        input.Title,
			Instructions: input.Instructions,
			Dosage:       input.Dosage,
			Locale:       locale,
		}
		if err := models.DB.Create(&treatment).Error; err != nil {
			utils.Respond(c, http.StatusInternalServerError, false, "Cannot create treatment", nil, nil)
			return
		}
		utils.Respond(c, http.StatusOK, true, "Treatment created", treatmentOut(&treatment), nil)
	}
}

// UpdateTreatment Partial update over type, title, instructions, dosage, locale
func UpdateTreatment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var treatment models.Treatment
		if err := models.DB.Where("id = ?", c.Param("id")).First(&treatment).Error; err != nil {
			utils.Respond(c, http.StatusOK, false, "Treatment not found", nil, nil)
			return
		}

		var input TreatmentUpdateInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.Respond(c, http.StatusBadRequest, false, err.Error(), nil, nil)
			return
		}

		if input.Type != nil {
			treatment.Type = *input.Type
		}
		if input.Title != nil {
			treatment.Title = *input.Title
		}
		if input.Instructions != nil {
			treatment.Instructions = *input.Instructions
		}
		if input.Dosage != nil {
			treatment.Dosage = *input.Dosage
		}
		if input.Locale != nil {
			treatment.Locale = *input.Locale
		}
		if err := models.DB.Save(&treatment).Error; err != nil {
			utils.Respond(c, http.StatusInternalServerError, false, "Cannot update treatment", nil, nil)
			return
		}
		utils.Respond(c, http.StatusOK, true, "Treatment updated", treatmentOut(&treatment), nil)
	}
}

// DeleteTreatment Delete one treatment
func DeleteTreatment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var treatment models.Treatment
		if err := models.DB.Where("id = ?", c.Param("id")).First(&treatment).Error; err != nil {
			utils.Respond(c, http.StatusOK, false, "Treatment not found", nil, nil)
			return
		}

		if err := models.DB.Delete(&treatment).Error; err != nil {
			utils.Respond(c, http.StatusInternalServerError, false, "Cannot delete treatment", nil, nil)
			return
		}
		utils.Respond(c, http.StatusOK, true, "Treatment deleted", nil, nil)
	}
}

// ListTreatments Paginated listing filtered by disease label, locale and type
func ListTreatments() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pagination(c, 50)

		query := models.DB.Model(&models.Treatment{})
		if diseaseLabel := c.Query("disease_label"); diseaseLabel != "" {
			query = query.Joins("JOIN diseases ON diseases.id = treatments.disease_id").
				Where("diseases.label = ?", diseaseLabel)
		}
		if locale := c.Query("locale"); locale != "" {
			query = query.Where("treatments.locale = ?", locale)
		}
		if treatmentType := c.Query("type"); treatmentType != "" {
			query = query.Where("treatments.type = ?", treatmentType)
		}

		var total int64
		query.Count(&total)

		var treatments []models.Treatment
		if err := query.Order("treatments.title asc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&treatments).Error; err != nil {
			utils.Respond(c, http.StatusInternalServerError, false, "Cannot list treatments", nil, nil)
			return
		}

		payload := make([]gin.H, 0, len(treatments))
		for i := range treatments {
			payload = append(payload, treatmentOut(&treatments[i]))
		}
		meta := utils.PageMeta{Page: page, PageSize: pageSize, Total: total}
		utils.Respond(c, http.StatusOK, true, "Treatments retrieved", payload, meta)
	}
}
