package server

import (
	"errors"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/simonhull/tagedit/internal/transcode"
)

func (s *Server) transcode(c *gin.Context) {
	if s.transcoder == nil {
		s.fail(c, &apiError{Status: http.StatusServiceUnavailable, Message: "transcoding is disabled", Stage: stageTranscode})
		return
	}
	if err := s.parseForm(c); err != nil {
		s.fail(c, err)
		return
	}
	src, fh, err := s.formFile(c, "file", true)
	if err != nil {
		s.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	tr, err := s.transcoder.Acquire(ctx)
	if err != nil {
		status := http.StatusServiceUnavailable
		if !errors.Is(err, transcode.ErrUnavailable) {
			status = http.StatusInternalServerError
		}
		s.fail(c, &apiError{Status: status, Message: "transcoder unavailable", Stage: stageTranscode, Err: err})
		return
	}

	logger := s.logger.WithField("file", fh.Filename)
	out, err := tr.ToMP3(ctx, src, path.Ext(fh.Filename), func(p float64) {
		logger.WithField("progress", p).Debug("Transcoding")
	})
	s.metrics.RecordTranscode(err == nil)
	if err != nil {
		s.fail(c, &apiError{Status: http.StatusUnprocessableEntity, Message: "failed to transcode", Stage: stageTranscode, Err: err})
		return
	}
	sendFile(c, "audio/mpeg", downloadName(fh.Filename, ".mp3"), out)
}
