package types

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder for DecodeConfig
	_ "image/jpeg" // register JPEG decoder for DecodeConfig
	_ "image/png"  // register PNG decoder for DecodeConfig
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"  // register BMP decoder for DecodeConfig
	_ "golang.org/x/image/tiff" // register TIFF decoder for DecodeConfig
	_ "golang.org/x/image/webp" // register WebP decoder for DecodeConfig
)

// Cover is an embedded picture (APIC frame).
type Cover struct {
	// MIME type of the image data ("image/jpeg", "image/png", ...)
	MIMEType string

	// Description stored alongside the picture (optional)
	Description string

	// Image binary data
	Data []byte

	// Picture type byte from the APIC frame
	PictureType PictureType
}

// PictureType categorizes the purpose/content of a picture.
//
// Values are the ID3v2 APIC picture types.
// See: https://id3.org/id3v2.3.0#Attached_picture
type PictureType byte

const (
	PictureOther             PictureType = iota // Other
	PictureIcon                                 // File icon (32x32 PNG)
	PictureOtherIcon                            // Other file icon
	PictureFrontCover                           // Front cover
	PictureBackCover                            // Back cover
	PictureLeaflet                              // Leaflet page
	PictureMedia                                // Media (CD/vinyl label)
	PictureLeadArtist                           // Lead artist/performer/soloist
	PictureArtist                               // Artist/performer
	PictureConductor                            // Conductor
	PictureBand                                 // Band/orchestra
	PictureComposer                             // Composer
	PictureLyricist                             // Lyricist/text writer
	PictureRecordingLocation                    // Recording location
	PictureDuringRecording                      // During recording
	PictureDuringPerformance                    // During performance
	PictureVideoCapture                         // Movie/video screen capture
	PictureBrightFish                           // A bright colored fish
	PictureIllustration                         // Illustration
	PictureBandLogotype                         // Band/artist logotype
	PicturePublisherLogotype                    // Publisher/studio logotype
)

var pictureTypeNames = []string{
	"Other", "File icon", "Other file icon", "Front cover", "Back cover",
	"Leaflet page", "Media", "Lead artist", "Artist", "Conductor", "Band",
	"Composer", "Lyricist", "Recording location", "During recording",
	"During performance", "Video capture", "A bright colored fish",
	"Illustration", "Band logotype", "Publisher logotype",
}

func (p PictureType) String() string {
	if int(p) < len(pictureTypeNames) {
		return pictureTypeNames[p]
	}
	return fmt.Sprintf("PictureType(%d)", byte(p))
}

// NewCover builds a front cover from raw image bytes, sniffing the MIME type
// when mimeType is empty.
func NewCover(data []byte, mimeType string) *Cover {
	if mimeType == "" {
		mimeType = DetectMIME(data)
	}
	return &Cover{
		MIMEType:    mimeType,
		Data:        data,
		PictureType: PictureFrontCover,
	}
}

// DataURI renders the cover as a data: URI suitable for an <img> src.
func (c *Cover) DataURI() string {
	if c == nil || len(c.Data) == 0 {
		return ""
	}
	return "data:" + c.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(c.Data)
}

// Dimensions decodes the image header and returns its size in pixels.
// Returns 0, 0 when the data is not a decodable image.
func (c *Cover) Dimensions() (int, int) {
	if c == nil {
		return 0, 0
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(c.Data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// Validate checks that the payload is a decodable still image.
func (c *Cover) Validate() error {
	if c == nil || len(c.Data) == 0 {
		return &InvalidCoverError{Reason: "no image data"}
	}
	sniffed := DetectMIME(c.Data)
	if !strings.HasPrefix(sniffed, "image/") {
		return &InvalidCoverError{MIMEType: sniffed, Reason: "payload is not an image"}
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(c.Data)); err != nil {
		return &InvalidCoverError{MIMEType: sniffed, Reason: fmt.Sprintf("undecodable image: %v", err)}
	}
	return nil
}

// String returns a human-readable description of the cover.
//
// Example output: "Front cover (1200x1200 JPEG, 245KB)"
func (c *Cover) String() string {
	if c == nil {
		return "<no cover>"
	}

	dims := ""
	if w, h := c.Dimensions(); w > 0 && h > 0 {
		dims = fmt.Sprintf("%dx%d ", w, h)
	}

	return fmt.Sprintf("%s (%s%s, %s)", c.PictureType, dims, mimeToFormat(c.MIMEType), formatSize(len(c.Data)))
}

// DetectMIME sniffs the MIME type of data, without parameters.
func DetectMIME(data []byte) string {
	mt, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return strings.TrimSpace(mt)
}

// formatSize formats byte size in human-readable form.
func formatSize(bytes int) string {
	const (
		KB = 1024
		MB = 1024 * KB
	)

	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1fMB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%dKB", bytes/KB)
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

// mimeToFormat converts MIME type to short format name.
func mimeToFormat(mime string) string {
	switch mime {
	case "image/jpeg":
		return "JPEG"
	case "image/png":
		return "PNG"
	case "image/gif":
		return "GIF"
	case "image/bmp":
		return "BMP"
	case "image/webp":
		return "WebP"
	default:
		return "Image"
	}
}
