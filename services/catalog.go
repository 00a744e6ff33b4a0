package services

import (
	"errors"

	"gorm.io/gorm"

	"plantdoctor/models"
)

// DiseaseInfo Catalog payload attached to a scan response
type DiseaseInfo struct {
	Label       string `json:"label"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// TreatmentInfo Treatment payload attached to a scan response
type TreatmentInfo struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Title        string `json:"title"`
	Instructions string `json:"instructions"`
	Dosage       string `json:"dosage"`
	Locale       string `json:"locale"`
}

// ResolveCatalog Look up the disease matching a predicted label together
// with its treatments. An unknown label is a valid state and yields a nil
// disease with no treatments, not an error.
//
// When a locale is given, treatments are the union of that locale and the
// "en" fallback; without one, all locales are returned. The list is ordered
// by title so responses are deterministic.
func ResolveCatalog(db *gorm.DB, label, locale string) (*DiseaseInfo, []TreatmentInfo, error) {
	var disease models.Disease
	err := db.Where("label = ?", label).First(&disease).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, []TreatmentInfo{}, nil
	}
	if err != nil {
		return nil, nil, err
	}

	info := &DiseaseInfo{
		Label:       disease.Label,
		DisplayName: disease.DisplayName,
		Description: disease.Description,
	}

	query := db.Where("disease_id = ?", disease.ID)
	if locale != "" {
		// explicit two-step filter: exact locale plus the English fallback
		query = query.Where("locale = ? OR locale = ?", locale, "en")
	}

	var rows []models.Treatment
	if err := query.Order("title asc").Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	treatments := make([]TreatmentInfo, 0, len(rows))
	for _, t := range rows {
		treatments = append(treatments, TreatmentInfo{
			ID:           t.ID,
			Type:         t.Type,
			Title:        t.Title,
			Instructions: t.Instructions,
			Dosage:       t.Dosage,
			Locale:       t.Locale,
		})
	}
	return info, treatments, nil
}
