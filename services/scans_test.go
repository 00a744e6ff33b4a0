package services

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plantdoctor/ml"
	"plantdoctor/models"
)

type fakeClassifier struct {
	probs []float32
	err   error
}

func (f *fakeClassifier) Predict(input []float32) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.probs, nil
}

func (f *fakeClassifier) Close() {}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 160, B: 60, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func fakeStore(classifier ml.Classifier) *ml.Store {
	return ml.NewStoreWithLoader(func() (*ml.Artifacts, error) {
		return &ml.Artifacts{
			Classifier: classifier,
			Labels: map[int]string{
				0: "Tomato___healthy",
				1: "Tomato___Early_blight",
				2: "Potato___Late_blight",
			},
			ImageSize: 32,
			Version:   "model.tflite@2025-01-01T00:00:00Z",
		}, nil
	})
}

func TestCreateScanPipeline(t *testing.T) {
	db := setupTestDB(t)
	user := models.User{Email: "a@x.com", PasswordHash: "hash"}
	require.NoError(t, db.Create(&user).Error)
	seedDisease(t, db, "Tomato___Early_blight",
		models.Treatment{Type: "organic", Title: "Neem oil spray", Instructions: "Spray weekly", Locale: "en"},
		models.Treatment{Type: "chemical", Title: "Mancozeb", Instructions: "Apply as directed", Locale: "en"},
	)

	svc := &ScanService{
		DB:             db,
		Artifacts:      fakeStore(&fakeClassifier{probs: []float32{0.05, 0.87, 0.08}}),
		UploadDir:      t.TempDir(),
		MaxUploadBytes: 10 << 20,
	}
	fh := makeFileHeader(t, "leaf.png", "image/png", pngBytes(t))

	result, err := svc.CreateScan(&user, fh, "en")

	require.NoError(t, err)
	assert.Equal(t, "Tomato___Early_blight", result.Scan.PredictedLabel)
	assert.InDelta(t, 0.87, result.Scan.Confidence, 1e-6)
	assert.Equal(t, "model.tflite@2025-01-01T00:00:00Z", result.Scan.ModelVersion)

	require.Len(t, result.Scan.TopK, 3)
	assert.Equal(t, "Tomato___Early_blight", result.Scan.TopK[0].Label)
	assert.Equal(t, "Potato___Late_blight", result.Scan.TopK[1].Label)
	assert.Equal(t, "Tomato___healthy", result.Scan.TopK[2].Label)
	for i := 1; i < len(result.Scan.TopK); i++ {
		assert.GreaterOrEqual(t, result.Scan.TopK[i-1].Confidence, result.Scan.TopK[i].Confidence)
	}

	require.NotNil(t, result.Disease)
	assert.Equal(t, "Tomato___Early_blight", result.Disease.Label)
	assert.Len(t, result.Treatments, 2)

	// the row round-trips with identical prediction data
	var stored models.Scan
	require.NoError(t, db.Where("id = ?", result.Scan.ID).First(&stored).Error)
	assert.Equal(t, user.ID, stored.UserID)
	assert.Equal(t, result.Scan.PredictedLabel, stored.PredictedLabel)
	assert.InDelta(t, result.Scan.Confidence, stored.Confidence, 1e-9)
	assert.Equal(t, result.Scan.TopK, stored.TopK)
}

func TestCreateScanUnknownLabelStillSucceeds(t *testing.T) {
	db := setupTestDB(t)
	user := models.User{Email: "b@x.com", PasswordHash: "hash"}
	require.NoError(t, db.Create(&user).Error)

	svc := &ScanService{
		DB:             db,
		Artifacts:      fakeStore(&fakeClassifier{probs: []float32{0.9, 0.05, 0.05}}),
		UploadDir:      t.TempDir(),
		MaxUploadBytes: 10 << 20,
	}
	fh := makeFileHeader(t, "leaf.png", "image/png", pngBytes(t))

	result, err := svc.CreateScan(&user, fh, "")

	require.NoError(t, err)
	assert.Nil(t, result.Disease)
	assert.Empty(t, result.Treatments)
	assert.Equal(t, "Tomato___healthy", result.Scan.PredictedLabel)
}

func TestCreateScanValidationErrorsKeepIdentity(t *testing.T) {
	db := setupTestDB(t)
	user := models.User{Email: "c@x.com", PasswordHash: "hash"}
	require.NoError(t, db.Create(&user).Error)

	svc := &ScanService{
		DB:             db,
		Artifacts:      fakeStore(&fakeClassifier{probs: []float32{1}}),
		UploadDir:      t.TempDir(),
		MaxUploadBytes: 64,
	}

	_, err := svc.CreateScan(&user, makeFileHeader(t, "notes.txt", "text/plain", []byte("nope")), "")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = svc.CreateScan(&user, makeFileHeader(t, "leaf.png", "image/png", pngBytes(t)), "")
	assert.ErrorIs(t, err, ErrUploadTooLarge)
}

func TestCreateScanInferenceFailureWritesNoScanRow(t *testing.T) {
	db := setupTestDB(t)
	user := models.User{Email: "d@x.com", PasswordHash: "hash"}
	require.NoError(t, db.Create(&user).Error)

	uploadDir := t.TempDir()
	svc := &ScanService{
		DB:             db,
		Artifacts:      fakeStore(&fakeClassifier{err: errors.New("interpreter exploded")}),
		UploadDir:      uploadDir,
		MaxUploadBytes: 10 << 20,
	}
	fh := makeFileHeader(t, "leaf.png", "image/png", pngBytes(t))

	_, err := svc.CreateScan(&user, fh, "")

	require.Error(t, err)
	var count int64
	db.Model(&models.Scan{}).Count(&count)
	assert.Equal(t, int64(0), count)
	// the stored image is left on disk, orphaned
	assert.Len(t, filesUnder(t, uploadDir), 1)
}
