package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Failure stages reported alongside 4xx/5xx bodies.
const (
	stageCodec     = "codec"
	stageStorage   = "storage"
	stageWatermark = "watermark"
	stageTranscode = "transcode"
	stageRequest   = "request"
)

const (
	headerWarnings = "X-Tagedit-Warnings"
	headerFrames   = "X-Tagedit-Frames"
)

// apiError is a handler failure with its HTTP status.
type apiError struct {
	Status  int
	Message string
	Stage   string
	Err     error
}

func (e *apiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *apiError) Unwrap() error { return e.Err }

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

func errBadRequest(msg string, err error) *apiError {
	return &apiError{Status: http.StatusBadRequest, Message: msg, Stage: stageRequest, Err: err}
}

func errNotFound(msg string) *apiError {
	return &apiError{Status: http.StatusNotFound, Message: msg}
}

func errInternal(msg string) *apiError {
	return &apiError{Status: http.StatusInternalServerError, Message: msg}
}

// fail writes err as JSON and aborts the chain. Errors that are not an
// *apiError become a 500 without their details.
func (s *Server) fail(c *gin.Context, err error) {
	var ae *apiError
	if !errors.As(err, &ae) {
		ae = &apiError{Status: http.StatusInternalServerError, Message: "internal server error", Err: err}
	}
	_ = c.Error(err)

	body := ErrorResponse{Error: ae.Message, Stage: ae.Stage}
	if ae.Err != nil && ae.Status < http.StatusInternalServerError {
		body.Error = ae.Error()
	}
	c.AbortWithStatusJSON(ae.Status, body)
}
