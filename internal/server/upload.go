package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// multipartOverhead allows for form fields beside the files.
const multipartOverhead = 1 << 20

// parseForm bounds the request body (audio plus cover) and parses the
// multipart form.
func (s *Server) parseForm(c *gin.Context) error {
	limit := 2*s.cfg.MaxUploadSize + multipartOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return s.tooLarge()
		}
		return errBadRequest("failed to parse form", err)
	}
	return nil
}

func (s *Server) tooLarge() *apiError {
	return &apiError{
		Status:  http.StatusRequestEntityTooLarge,
		Message: fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxUploadSize),
	}
}

// formFile reads one uploaded file. A missing optional file yields nil data
// and no error.
func (s *Server) formFile(c *gin.Context, field string, required bool) ([]byte, *multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			return nil, nil, errBadRequest(fmt.Sprintf("%s is required", field), nil)
		}
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errBadRequest(fmt.Sprintf("failed to read %s", field), err)
	}
	if fh.Size > s.cfg.MaxUploadSize {
		return nil, nil, s.tooLarge()
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, errBadRequest(fmt.Sprintf("failed to open %s", field), err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadSize+1))
	if err != nil {
		return nil, nil, errBadRequest(fmt.Sprintf("failed to read %s", field), err)
	}
	if int64(len(data)) > s.cfg.MaxUploadSize {
		return nil, nil, s.tooLarge()
	}
	return data, fh, nil
}

// sendFile writes data as a download named filename.
func sendFile(c *gin.Context, contentType, filename string, data []byte) {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	c.Header("Content-Disposition", disposition)
	c.Data(http.StatusOK, contentType, data)
}

// downloadName derives a download name from an uploaded name, replacing
// the extension with ext.
func downloadName(uploaded, ext string) string {
	base := path.Base(strings.ReplaceAll(uploaded, `\`, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "audio"
	}
	return base + ext
}
