package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/journal-editorial-api/pkg/errors"
	"github.com/noah-isme/journal-editorial-api/pkg/response"
)

type signedFileOpener interface {
	OpenSigned(token string) (io.ReadCloser, string, error)
}

// FileHandler serves files behind signed download links. The token is the credential,
// so the route carries no JWT.
type FileHandler struct {
	files signedFileOpener
}

// NewFileHandler builds a new handler.
func NewFileHandler(files signedFileOpener) *FileHandler {
	return &FileHandler{files: files}
}

// Download godoc
// @Summary Download through a signed link
// @Tags Files
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /files/download [get]
func (h *FileHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "download token required"))
		return
	}
	rc, name, err := h.files.OpenSigned(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer rc.Close()
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		_ = c.Error(err)
	}
}
