package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simonhull/tagedit"
	"github.com/simonhull/tagedit/internal/watermark"
)

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Transcoding bool   `json:"transcoding"`
	FFmpeg      bool   `json:"ffmpegLoaded"`
}

func (s *Server) health(c *gin.Context) {
	resp := HealthResponse{
		Status:      "healthy",
		Version:     tagedit.GetVersion(),
		Transcoding: s.transcoder != nil,
	}
	if s.transcoder != nil {
		resp.FFmpeg = s.transcoder.IsLoaded()
	}
	c.JSON(http.StatusOK, resp)
}

// CoverInfo describes an embedded picture in a read response.
type CoverInfo struct {
	MIMEType    string `json:"mimeType"`
	Description string `json:"description"`
	PictureType string `json:"pictureType"`
	Size        int    `json:"size"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	DataURI     string `json:"dataUri"`
}

// WarningInfo is a codec warning in a response body.
type WarningInfo struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Offset  int64  `json:"offset,omitempty"`
}

// AudioInfo summarises the first MPEG frame.
type AudioInfo struct {
	Version    string  `json:"version"`
	Bitrate    int     `json:"bitrate"`
	SampleRate int     `json:"sampleRate"`
	Channels   int     `json:"channels"`
	VBR        bool    `json:"vbr"`
	Duration   float64 `json:"duration"`
}

// ReadResponse is the body of POST /api/v1/tags/read.
type ReadResponse struct {
	Tags     tagedit.TagRecord `json:"tags"`
	Cover    *CoverInfo        `json:"cover"`
	Version  int               `json:"version"`
	TagSize  int64             `json:"tagSize"`
	Audio    *AudioInfo        `json:"audio,omitempty"`
	Warnings []WarningInfo     `json:"warnings"`
}

func warningInfos(ws []tagedit.Warning) []WarningInfo {
	out := make([]WarningInfo, 0, len(ws))
	for _, w := range ws {
		out = append(out, WarningInfo{Stage: w.Stage, Message: w.Message, Offset: w.Offset})
	}
	return out
}

func (s *Server) readTags(c *gin.Context) {
	if err := s.parseForm(c); err != nil {
		s.fail(c, err)
		return
	}
	data, _, err := s.formFile(c, "file", true)
	if err != nil {
		s.fail(c, err)
		return
	}

	start := time.Now()
	res := tagedit.Inspect(data)
	s.metrics.RecordCodecOperation("read", true, time.Since(start))
	s.metrics.RecordWarnings("id3", len(res.Warnings))

	resp := ReadResponse{
		Tags:     res.Tags.WithCover(nil),
		Version:  int(res.Version),
		TagSize:  res.TagSize,
		Warnings: warningInfos(res.Warnings),
	}
	if cv := res.Tags.Cover; cv != nil {
		w, h := cv.Dimensions()
		resp.Cover = &CoverInfo{
			MIMEType:    cv.MIMEType,
			Description: cv.Description,
			PictureType: cv.PictureType.String(),
			Size:        len(cv.Data),
			Width:       w,
			Height:      h,
			DataURI:     cv.DataURI(),
		}
	}
	if info, err := tagedit.ProbeAudio(data); err == nil {
		resp.Audio = &AudioInfo{
			Version:    info.Version.String(),
			Bitrate:    info.Bitrate,
			SampleRate: info.SampleRate,
			Channels:   info.Channels,
			VBR:        info.VBR,
			Duration:   info.Duration.Seconds(),
		}
	}
	c.JSON(http.StatusOK, resp)
}

// metadataField decodes the optional JSON metadata form field.
func metadataField(c *gin.Context) (tagedit.TagRecord, error) {
	var rec tagedit.TagRecord
	raw := strings.TrimSpace(c.PostForm("metadata"))
	if raw == "" {
		return rec, nil
	}
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return rec, errBadRequest("invalid metadata JSON", err)
	}
	return rec, nil
}

func formBool(c *gin.Context, field string) bool {
	v, err := strconv.ParseBool(c.PostForm(field))
	return err == nil && v
}

func (s *Server) writeTags(c *gin.Context) {
	if err := s.parseForm(c); err != nil {
		s.fail(c, err)
		return
	}
	audio, fh, err := s.formFile(c, "file", true)
	if err != nil {
		s.fail(c, err)
		return
	}
	rec, err := metadataField(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	coverData, _, err := s.formFile(c, "cover", false)
	if err != nil {
		s.fail(c, err)
		return
	}

	var cover *tagedit.Cover
	if coverData != nil {
		mimeType := ""
		if raw := strings.TrimSpace(c.PostForm("watermark")); raw != "" {
			var opts watermark.Options
			if err := json.Unmarshal([]byte(raw), &opts); err != nil {
				s.fail(c, errBadRequest("invalid watermark JSON", err))
				return
			}
			if opts.Text == "" {
				opts.Text = s.cfg.WatermarkText
			}
			opts.MaxPixels = s.cfg.WatermarkMax
			coverData, mimeType, err = watermark.Apply(coverData, opts)
			if err != nil {
				s.fail(c, &apiError{Status: http.StatusUnprocessableEntity, Message: "failed to watermark cover", Stage: stageWatermark, Err: err})
				return
			}
		}
		cover = tagedit.NewCover(coverData, mimeType)
	}

	if s.cfg.TitleSuffix != "" || s.cfg.Fill != "" {
		rec = rec.Branded(s.cfg.TitleSuffix, s.cfg.Fill)
	}

	var opts []tagedit.WriteOption
	if formBool(c, "strictCover") {
		opts = append(opts, tagedit.WithStrictCover())
	}
	if formBool(c, "audioCheck") {
		opts = append(opts, tagedit.WithAudioCheck())
	}

	start := time.Now()
	res, err := tagedit.WriteTagsDetailed(audio, rec, cover, opts...)
	s.metrics.RecordCodecOperation("write", err == nil, time.Since(start))
	if err != nil {
		s.fail(c, &apiError{Status: http.StatusUnprocessableEntity, Message: "failed to write tags", Stage: stageCodec, Err: err})
		return
	}
	for _, w := range res.Warnings {
		s.metrics.RecordWarnings(w.Stage, 1)
		s.logger.WithField("stage", w.Stage).Warn(w.Message)
	}

	c.Header(headerWarnings, strconv.Itoa(len(res.Warnings)))
	c.Header(headerFrames, strings.Join(res.Frames, ","))
	sendFile(c, "audio/mpeg", downloadName(fh.Filename, ".mp3"), res.Data)
}
