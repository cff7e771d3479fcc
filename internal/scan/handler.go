package scan

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/anishka-v/eco-dining/internal/ledger"
	"github.com/anishka-v/eco-dining/internal/waste"

	"github.com/gin-gonic/gin"
)

// formOverhead covers multipart headers, boundaries and small fields.
const formOverhead = 64 << 10

// MaxRequestBytes bounds a whole scan request: two images plus form overhead.
// Zero means unlimited.
func MaxRequestBytes(maxUploadBytes int64) int64 {
	if maxUploadBytes <= 0 {
		return 0
	}
	return 2*maxUploadBytes + formOverhead
}

type Handler struct {
	service   *Service
	maxUpload int64
}

// NewHandler limits each uploaded image to maxUploadBytes.
func NewHandler(service *Service, maxUploadBytes int64) *Handler {
	return &Handler{service: service, maxUpload: maxUploadBytes}
}

// --------------------------------------------------
// Terminal submits a before/after pair
// --------------------------------------------------
func (h *Handler) Scan(c *gin.Context) {
	before, beforeType, err := h.readImage(c, "before_image")
	if err != nil {
		uploadError(c, err)
		return
	}
	after, afterType, err := h.readImage(c, "after_image")
	if err != nil {
		uploadError(c, err)
		return
	}

	dishHint := c.Query("dish")
	if dishHint == "" {
		dishHint = c.PostForm("dish")
	}

	res, err := h.service.Process(c.Request.Context(), Request{
		SchoolID:          c.GetString("schoolID"),
		DishHint:          dishHint,
		Before:            before,
		BeforeContentType: beforeType,
		After:             after,
		AfterContentType:  afterType,
	})
	if err != nil {
		var decodeErr *waste.ImageDecodeError
		switch {
		case errors.As(err, &decodeErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image format"})
		case errors.Is(err, ErrMissingImage), errors.Is(err, ledger.ErrInvalidRecord):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, res)
}

// --------------------------------------------------
// Dashboard: latest scans for the school
// --------------------------------------------------
func (h *Handler) Recent(c *gin.Context) {
	limit := DefaultRecentLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	school := c.GetString("schoolID")
	records, err := h.service.Recent(c.Request.Context(), school, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"school_id": school,
		"scans":     records,
	})
}

func uploadError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (h *Handler) readImage(c *gin.Context, field string) ([]byte, string, error) {
	file, header, err := c.Request.FormFile(field)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, "", err
	}
	if err != nil {
		return nil, "", fmt.Errorf("%s is required", field)
	}
	defer file.Close()

	if h.maxUpload > 0 && header.Size > h.maxUpload {
		return nil, "", fmt.Errorf("%s exceeds %d bytes", field, h.maxUpload)
	}

	data, err := readAll(file, h.maxUpload)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", field, err)
	}
	if h.maxUpload > 0 && int64(len(data)) > h.maxUpload {
		return nil, "", fmt.Errorf("%s exceeds %d bytes", field, h.maxUpload)
	}
	return data, header.Header.Get("Content-Type"), nil
}

func readAll(file multipart.File, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(file)
	}
	return io.ReadAll(io.LimitReader(file, limit+1))
}
