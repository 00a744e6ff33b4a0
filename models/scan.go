package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	uuid "github.com/twinj/uuid"
	"gorm.io/gorm"
)

// TopKItem One ranked alternative from the classifier output
type TopKItem struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// TopKList Stored as a JSON string column so it survives both sqlite and mysql
type TopKList []TopKItem

func (l TopKList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *TopKList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for TopKList")
	}
}

// Scan One classifier invocation, immutable once written
type Scan struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	UserID         string    `json:"user_id" gorm:"index"`
	ImagePath      string    `json:"image_path"`
	PredictedLabel string    `json:"predicted_label" gorm:"index"`
	Confidence     float64   `json:"confidence"`
	TopK           TopKList  `json:"top_k" gorm:"type:text"`
	ModelVersion   string    `json:"model_version"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *Scan) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewV4().String()
	}
	return nil
}
