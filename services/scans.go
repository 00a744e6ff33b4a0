package services

import (
	"fmt"
	"mime/multipart"

	"gorm.io/gorm"

	"plantdoctor/ml"
	"plantdoctor/models"
)

// ScanResult What a successful pipeline run hands back to the HTTP layer
type ScanResult struct {
	Scan       models.Scan
	Disease    *DiseaseInfo
	Treatments []TreatmentInfo
}

// ScanService Orchestrates the scan creation pipeline: store the upload,
// load the classifier artifacts, preprocess and infer, rank the output,
// hydrate catalog data and persist the scan record.
type ScanService struct {
	DB             *gorm.DB
	Artifacts      *ml.Store
	UploadDir      string
	MaxUploadBytes int64
}

// CreateScan Run the pipeline for one authenticated upload. The steps are
// strictly sequential; a failure aborts the request with no scan row
// written. Validation failures (ErrUnsupportedType, ErrUploadTooLarge)
// keep their identity so the HTTP layer can report distinct statuses.
//
// A stored image whose downstream inference or persistence fails is left
// on disk; it is reachable from no scan row but retained for audit.
func (s *ScanService) CreateScan(user *models.User, fh *multipart.FileHeader, locale string) (*ScanResult, error) {
	// 1) validate and store the original upload
	path, relPath, err := SaveUpload(s.UploadDir, user.ID, fh, s.MaxUploadBytes)
	if err != nil {
		return nil, err
	}

	// 2) classifier artifacts, loaded once per process
	artifacts, err := s.Artifacts.Get()
	if err != nil {
		return nil, fmt.Errorf("classifier unavailable: %w", err)
	}

	// 3) preprocess and infer
	img, err := ml.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("cannot decode stored image: %w", err)
	}
	input := ml.Preprocess(img, artifacts.ImageSize)
	probs, err := artifacts.Classifier.Predict(input)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	if len(probs) == 0 {
		return nil, fmt.Errorf("classifier returned empty output")
	}

	// 4) rank
	predIdx := ml.ArgMax(probs)
	label := artifacts.Labels[predIdx]
	confidence := float64(probs[predIdx])

	order := ml.TopK(probs, 5)
	topK := make(models.TopKList, 0, len(order))
	for _, i := range order {
		topK = append(topK, models.TopKItem{
			Label:      artifacts.Labels[i],
			Confidence: float64(probs[i]),
		})
	}

	// 5) hydrate catalog; absent catalog data is not an error
	disease, treatments, err := ResolveCatalog(s.DB, label, locale)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup failed: %w", err)
	}

	// 6) persist the scan row
	scan := models.Scan{
		UserID:         user.ID,
		ImagePath:      relPath,
		PredictedLabel: label,
		Confidence:     confidence,
		TopK:           topK,
		ModelVersion:   artifacts.Version,
	}
	if err := s.DB.Create(&scan).Error; err != nil {
		return nil, fmt.Errorf("cannot persist scan: %w", err)
	}

	return &ScanResult{
		Scan:       scan,
		Disease:    disease,
		Treatments: treatments,
	}, nil
}
