package models

import (
	"time"

	uuid "github.com/twinj/uuid"
	"gorm.io/gorm"
)

// Treatment Belongs to exactly one disease. Type is organic|chemical,
// locale is one of en|si|ta.
type Treatment struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	DiseaseID    string    `json:"disease_id" gorm:"index"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	Instructions string    `json:"instructions"`
	Dosage       string    `json:"dosage"`
	Locale       string    `json:"locale" gorm:"index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (t *Treatment) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewV4().String()
	}
	return nil
}
