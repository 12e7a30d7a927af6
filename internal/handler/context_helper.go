package handler

import (
	"mime/multipart"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/journal-editorial-api/internal/middleware"
	"github.com/noah-isme/journal-editorial-api/internal/models"
	"github.com/noah-isme/journal-editorial-api/internal/service"
	appErrors "github.com/noah-isme/journal-editorial-api/pkg/errors"
)

// maxMultipartMemory bounds the in-memory part of a multipart parse; larger parts spill
// to temp files.
const maxMultipartMemory = 32 << 20

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentClaims(c)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// openedUploads owns the multipart files opened for one request.
type openedUploads struct {
	files []multipart.File
}

func (o *openedUploads) Close() {
	for _, f := range o.files {
		_ = f.Close()
	}
}

func (o *openedUploads) open(header *multipart.FileHeader) (service.FileUpload, error) {
	f, err := header.Open()
	if err != nil {
		return service.FileUpload{}, appErrors.Wrap(err, appErrors.ErrValidation, "unreadable upload "+header.Filename)
	}
	o.files = append(o.files, f)
	return service.FileUpload{Filename: header.Filename, Size: header.Size, Content: f}, nil
}

// collectUploads parses the multipart form and opens every part under field. The caller
// must Close the returned set once the service call returns.
func collectUploads(c *gin.Context, field string) ([]service.FileUpload, *openedUploads, error) {
	opened := &openedUploads{}
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, opened, appErrors.Wrap(err, appErrors.ErrValidation, "expected multipart/form-data")
	}
	headers := c.Request.MultipartForm.File[field]
	uploads := make([]service.FileUpload, 0, len(headers))
	for _, header := range headers {
		upload, err := opened.open(header)
		if err != nil {
			opened.Close()
			return nil, &openedUploads{}, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, opened, nil
}

// optionalUpload opens the single part under field, if any. The multipart form must
// already be parsed.
func optionalUpload(c *gin.Context, field string, opened *openedUploads) (*service.FileUpload, error) {
	if c.Request.MultipartForm == nil {
		return nil, nil
	}
	headers := c.Request.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	if len(headers) > 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only one "+field+" part is allowed")
	}
	upload, err := opened.open(headers[0])
	if err != nil {
		return nil, err
	}
	return &upload, nil
}
