package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"plantdoctor/auth"
	"plantdoctor/middlewares"
	"plantdoctor/ml"
	"plantdoctor/models"
	"plantdoctor/services"
	"plantdoctor/utils"
)

const testSecret = "test-secret"

type fakeClassifier struct {
	probs []float32
}

func (f *fakeClassifier) Predict(input []float32) ([]float32, error) { return f.probs, nil }
func (f *fakeClassifier) Close()                                     {}

func fakeStore(probs []float32) *ml.Store {
	return ml.NewStoreWithLoader(func() (*ml.Artifacts, error) {
		return &ml.Artifacts{
			Classifier: &fakeClassifier{probs: probs},
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

// setupApp Wire an in-memory database and the API routes under test
func setupApp(t *testing.T, store *ml.Store, uploadDir string) (*gin.Engine, *auth.TokenIssuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:ctl_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	models.DB = db

	issuer := auth.NewTokenIssuer(testSecret, 120, 14)
	scanService := &services.ScanService{
		DB:             db,
		Artifacts:      store,
		UploadDir:      uploadDir,
		MaxUploadBytes: 10 << 20,
	}

	r := gin.New()
	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/register", Register())
		v1.POST("/auth/login", Login(issuer))
		v1.POST("/auth/refresh", Refresh(issuer))
		v1.GET("/auth/me", middlewares.JwtAuthMiddleware(issuer), Me())

		scans := v1.Group("/scans")
		scans.Use(middlewares.JwtAuthMiddleware(issuer))
		{
			scans.POST("", CreateScan(scanService))
			scans.GET("", ListScans(uploadDir))
			scans.GET("/:id", GetScan(uploadDir))
		}

		admin := v1.Group("/admin")
		admin.Use(middlewares.JwtAuthMiddleware(issuer), middlewares.AdminRequired())
		{
			admin.POST("/diseases", CreateDisease())
			admin.PUT("/diseases/:id", UpdateDisease())
			admin.DELETE("/diseases/:id", DeleteDisease())
			admin.GET("/diseases", ListDiseases())

			admin.POST("/treatments", CreateTreatment())
			admin.PUT("/treatments/:id", UpdateTreatment())
			admin.DELETE("/treatments/:id", DeleteTreatment())
			admin.GET("/treatments", ListTreatments())
		}
	}
	return r, issuer
}

func createUser(t *testing.T, email, password string, isAdmin bool) models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	user := models.User{Email: email, PasswordHash: hash, IsAdmin: isAdmin}
	require.NoError(t, models.DB.Create(&user).Error)
	return user
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, utils.APIResponse) {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func doMultipart(t *testing.T, r *gin.Engine, path, token, filename, contentType string, content []byte) (*httptest.ResponseRecorder, utils.APIResponse) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func accessTokenFor(t *testing.T, issuer *auth.TokenIssuer, userID string) string {
	t.Helper()
	token, err := issuer.NewAccessToken(userID)
	require.NoError(t, err)
	return token
}

func payloadMap(t *testing.T, resp utils.APIResponse) map[string]interface{} {
	t.Helper()
	m, ok := resp.Payload.(map[string]interface{})
	require.True(t, ok, "payload is not an object: %v", resp.Payload)
	return m
}
