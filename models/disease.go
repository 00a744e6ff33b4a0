package models

import (
	"time"

	uuid "github.com/twinj/uuid"
	"gorm.io/gorm"
)

// Disease Catalog entry; the label is the join key to classifier output classes
type Disease struct {
	ID          string      `json:"id" gorm:"primaryKey"`
	Label       string      `json:"label" gorm:"uniqueIndex"`
	DisplayName string      `json:"display_name"`
	Description string      `json:"description"`
	Treatments  []Treatment `json:"treatments,omitempty" gorm:"foreignKey:DiseaseID"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (d *Disease) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewV4().String()
	}
	return nil
}
