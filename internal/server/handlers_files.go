package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simonhull/tagedit/internal/blobstore"
)

// UploadResponse is the body of POST /api/v1/files.
type UploadResponse struct {
	Success  bool   `json:"success"`
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	CoverURL string `json:"coverUrl,omitempty"`
}

// ListResponse is the body of GET /api/v1/files.
type ListResponse struct {
	Files []blobstore.Entry `json:"files"`
}

// DeleteRequest is the JSON body of POST /api/v1/files/delete.
type DeleteRequest struct {
	ID string `json:"id" binding:"required"`
}

// storageError maps blob store failures onto HTTP statuses.
func storageError(err error) *apiError {
	switch {
	case errors.Is(err, blobstore.ErrTooLarge):
		return &apiError{Status: http.StatusRequestEntityTooLarge, Message: "file too large", Stage: stageStorage, Err: err}
	case errors.Is(err, blobstore.ErrInvalidType):
		return &apiError{Status: http.StatusBadRequest, Message: "invalid file type", Stage: stageStorage, Err: err}
	case errors.Is(err, blobstore.ErrInvalidID):
		return &apiError{Status: http.StatusBadRequest, Message: "invalid id", Stage: stageStorage, Err: err}
	case errors.Is(err, blobstore.ErrNotFound):
		return &apiError{Status: http.StatusNotFound, Message: "file not found", Stage: stageStorage, Err: err}
	default:
		return &apiError{Status: http.StatusInternalServerError, Message: "storage failure", Stage: stageStorage, Err: err}
	}
}

func (s *Server) uploadFile(c *gin.Context) {
	if err := s.parseForm(c); err != nil {
		s.fail(c, err)
		return
	}
	audio, fh, err := s.formFile(c, "file", true)
	if err != nil {
		s.fail(c, err)
		return
	}
	coverData, coverHeader, err := s.formFile(c, "cover", false)
	if err != nil {
		s.fail(c, err)
		return
	}
	rec, err := metadataField(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	up := blobstore.Upload{
		Filename: fh.Filename,
		Audio:    audio,
		Cover:    coverData,
		Tags:     rec,
	}
	if coverHeader != nil {
		up.CoverFilename = coverHeader.Filename
	}

	entry, err := s.store.Put(c.Request.Context(), up)
	if err != nil {
		s.fail(c, storageError(err))
		return
	}
	s.logger.WithField("id", entry.ID).Info("Stored upload")

	c.JSON(http.StatusOK, UploadResponse{
		Success:  true,
		ID:       entry.ID,
		Filename: entry.Filename,
		URL:      entry.URL,
		CoverURL: entry.CoverURL,
	})
}

func (s *Server) listFiles(c *gin.Context) {
	entries, err := s.store.List(c.Request.Context())
	if err != nil {
		s.fail(c, storageError(err))
		return
	}
	s.metrics.SetStoredFiles(len(entries))
	c.JSON(http.StatusOK, ListResponse{Files: entries})
}

func (s *Server) deleteFile(c *gin.Context) {
	s.delete(c, c.Param("id"))
}

func (s *Server) deleteFileJSON(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errBadRequest("id is required", err))
		return
	}
	s.delete(c, req.ID)
}

func (s *Server) delete(c *gin.Context, id string) {
	if err := s.store.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, storageError(err))
		return
	}
	s.logger.WithField("id", id).Info("Deleted upload")
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

func (s *Server) serveStored(kind blobstore.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		f, err := s.store.Open(kind, name)
		if err != nil {
			s.fail(c, storageError(err))
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			s.fail(c, storageError(err))
			return
		}
		http.ServeContent(c.Writer, c.Request, name, info.ModTime(), f)
	}
}
