package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"plantdoctor/middlewares"
	"plantdoctor/models"
	"plantdoctor/services"
	"plantdoctor/utils"
)

// ScanOut Client view of a scan row; image_url points at the /uploads mount
type ScanOut struct {
	ID             string          `json:"id"`
	ImageURL       string          `json:"image_url"`
	PredictedLabel string          `json:"predicted_label"`
	Confidence     float64         `json:"confidence"`
	TopK           models.TopKList `json:"top_k,omitempty"`
	ModelVersion   string          `json:"model_version"`
	CreatedAt      string          `json:"created_at"`
}

func scanOut(s *models.Scan, uploadDir string, withTopK bool) ScanOut {
	out := ScanOut{
		ID:             s.ID,
		ImageURL:       utils.PublicUploadURL(uploadDir, s.ImagePath),
		PredictedLabel: s.PredictedLabel,
		Confidence:     s.Confidence,
		ModelVersion:   s.ModelVersion,
		CreatedAt:      s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if withTopK {
		out.TopK = s.TopK
	}
	return out
}

// CreateScan Accept a multipart image, run it through the scan pipeline and
// return the persisted scan with catalog hydration
func CreateScan(svc *services.ScanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middlewares.CurrentUser(c)
		locale := c.Query("locale")

		fh, err := c.FormFile("file")
		if err != nil {
			utils.Respond(c, http.StatusBadRequest, false, "Missing file field", nil, nil)
			return
		}

		result, err := svc.CreateScan(user, fh, locale)
		switch {
		case errors.Is(err, services.ErrUnsupportedType):
			utils.Respond(c, http.StatusUnsupportedMediaType, false, "Unsupported image type", nil, nil)
			return
		case errors.Is(err, services.ErrUploadTooLarge):
			utils.Respond(c, http.StatusRequestEntityTooLarge, false, "Uploaded file too large", nil, nil)
			return
		case err != nil:
			log.Error("Scan failed: ", err)
			utils.Respond(c, http.StatusOK, false, "Scan failed", nil, nil)
			return
		}

		payload := gin.H{
			"scan":       scanOut(&result.Scan, svc.UploadDir, true),
			"disease":    result.Disease,
			"treatments": result.Treatments,
		}
		utils.Respond(c, http.StatusOK, true, "Scan created", payload, nil)
	}
}

// ListScans The caller's own scans, newest first, optionally filtered by label
func ListScans(uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middlewares.CurrentUser(c)
		page, pageSize := pagination(c, 20)

		query := models.DB.Model(&models.Scan{}).Where("user_id = ?", user.ID)
		if label := c.Query("label"); label != "" {
			query = query.Where("predicted_label = ?", label)
		}

		var total int64
		query.Count(&total)

		var scans []models.Scan
		if err := query.Order("created_at desc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&scans).Error; err != nil {
			utils.Respond(c, http.StatusInternalServerError, false, "Cannot list scans", nil, nil)
			return
		}

		payload := make([]ScanOut, 0, len(scans))
		for i := range scans {
			payload = append(payload, scanOut(&scans[i], uploadDir, false))
		}
		meta := utils.PageMeta{Page: page, PageSize: pageSize, Total: total}
		utils.Respond(c, http.StatusOK, true, "Scans retrieved", payload, meta)
	}
}

// GetScan One scan owned by the caller, with catalog hydration
func GetScan(uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middlewares.CurrentUser(c)

		var scan models.Scan
		if err := models.DB.Where("id = ? AND user_id = ?", c.Param("id"), user.ID).First(&scan).Error; err != nil {
			utils.Respond(c, http.StatusOK, false, "Scan not found", nil, nil)
			return
		}

		disease, treatments, err := services.ResolveCatalog(models.DB, scan.PredictedLabel, c.Query("locale"))
		if err != nil {
			log.Error("Catalog lookup failed: ", err)
			utils.Respond(c, http.StatusInternalServerError, false, "Catalog lookup failed", nil, nil)
			return
		}

		payload := gin.H{
			"scan":       scanOut(&scan, uploadDir, true),
			"disease":    disease,
			"treatments": treatments,
		}
		utils.Respond(c, http.StatusOK, true, "Scan details", payload, nil)
	}
}

// pagination Read page/page_size query parameters with sane bounds
func pagination(c *gin.Context, defaultSize int) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultSize)))
	if err != nil || pageSize < 1 || pageSize > 200 {
		pageSize = defaultSize
	}
	return page, pageSize
}
