package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Artifacts The classifier bundle, fixed for the process lifetime once loaded
type Artifacts struct {
	Classifier Classifier
	Labels     map[int]string
	ImageSize  int
	Version    string
}

// Store Lazily loads the artifact bundle on first use. A failed load is not
// cached, so a later call retries.
type Store struct {
	mu        sync.Mutex
	artifacts *Artifacts
	load      func() (*Artifacts, error)
}

// NewStore Create a store that loads the tflite model, the label index and
// the model metadata from the configured paths
func NewStore(modelPath, labelsPath, metaPath string) *Store {
	return &Store{
		load: func() (*Artifacts, error) {
			return loadArtifacts(modelPath, labelsPath, metaPath)
		},
	}
}

// NewStoreWithLoader Create a store backed by a custom load function
func NewStoreWithLoader(load func() (*Artifacts, error)) *Store {
	return &Store{load: load}
}

// Get Return the artifact bundle, loading it exactly once per process
func (s *Store) Get() (*Artifacts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.artifacts != nil {
		return s.artifacts, nil
	}

	artifacts, err := s.load()
	if err != nil {
		return nil, err
	}
	s.artifacts = artifacts
	return s.artifacts, nil
}

// Loaded Report whether the bundle has been populated, without loading it
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifacts != nil
}

func loadArtifacts(modelPath, labelsPath, metaPath string) (*Artifacts, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model not found at %s: %w", modelPath, err)
	}

	classifier, err := NewTFLiteClassifier(modelPath)
	if err != nil {
		return nil, err
	}

	labels, err := loadLabels(labelsPath)
	if err != nil {
		classifier.Close()
		return nil, err
	}

	size, err := loadImageSize(metaPath)
	if err != nil {
		classifier.Close()
		return nil, err
	}

	version := modelVersion(modelPath)
	log.Info(fmt.Sprintf("Loaded classifier %s with %d labels, input size %d", version, len(labels), size))

	return &Artifacts{
		Classifier: classifier,
		Labels:     labels,
		ImageSize:  size,
		Version:    version,
	}, nil
}

// loadLabels The labels file is JSON of the shape { "0": "Tomato___Early_blight", ... }
func loadLabels(labelsPath string) (map[int]string, error) {
	data, err := os.ReadFile(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read labels file: %w", err)
	}
	raw := map[string]string{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("cannot parse labels file: %w", err)
	}
	labels := make(map[int]string, len(raw))
	for k, v := range raw {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("bad label index %q: %w", k, err)
		}
		labels[idx] = v
	}
	return labels, nil
}

// loadImageSize The meta file is JSON with an img_size field holding the
// square input side length. Missing field falls back to 224.
func loadImageSize(metaPath string) (int, error) {
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return 0, fmt.Errorf("cannot read meta file: %w", err)
	}
	meta := struct {
		ImgSize int `json:"img_size"`
	}{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return 0, fmt.Errorf("cannot parse meta file: %w", err)
	}
	if meta.ImgSize == 0 {
		meta.ImgSize = 224
	}
	return meta.ImgSize, nil
}

// modelVersion Version string derived from the model file name and its
// modification time
func modelVersion(modelPath string) string {
	name := filepath.Base(modelPath)
	if info, err := os.Stat(modelPath); err == nil {
		return fmt.Sprintf("%s@%s", name, info.ModTime().Format(time.RFC3339))
	}
	return name
}
