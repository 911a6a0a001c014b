package id3

import (
	"bytes"
	"errors"
	"strings"

	"github.com/simonhull/tagedit/internal/types"
)

var (
	errAPICTooShort    = errors.New("APIC frame too short")
	errAPICNoMIMETerm  = errors.New("APIC MIME type not null-terminated")
	errAPICTruncated   = errors.New("APIC frame truncated after MIME type")
	errAPICNoImageData = errors.New("APIC frame has no image data")
	errAPICLinked      = errors.New("APIC frame links to an external image")
)

// DefaultCoverDescription is written when a cover carries no description.
const DefaultCoverDescription = "Cover"

// DecodePicture parses an APIC payload.
// Format:
//
//	[1 byte]              Text encoding
//	[null-terminated]     MIME type (ISO-8859-1)
//	[1 byte]              Picture type
//	[terminated]          Description
//	[remaining]           Picture data
func DecodePicture(payload []byte) (*types.Cover, error) {
	if len(payload) < 4 {
		return nil, errAPICTooShort
	}

	enc := payload[0]
	pos := 1

	mimeEnd := bytes.IndexByte(payload[pos:], 0)
	if mimeEnd < 0 {
		return nil, errAPICNoMIMETerm
	}
	mimeType := string(payload[pos : pos+mimeEnd])
	pos += mimeEnd + 1

	if mimeType == "-->" {
		return nil, errAPICLinked
	}
	if pos >= len(payload) {
		return nil, errAPICTruncated
	}

	pictureType := types.PictureType(payload[pos])
	pos++

	// Some encoders don't terminate the description; then everything
	// after the picture type is image data.
	description := ""
	if desc, _, ok := splitTerminated(payload[pos:], enc); ok {
		description = decodeString(desc, enc)
		pos += len(desc) + len(terminator(enc))
	}

	if pos >= len(payload) {
		return nil, errAPICNoImageData
	}
	data := payload[pos:]

	return &types.Cover{
		MIMEType:    normalizeMIME(mimeType, data),
		Description: description,
		Data:        data,
		PictureType: pictureType,
	}, nil
}

// normalizeMIME maps legacy MIME markers ("JPG", "PNG", "") to a real MIME
// type, preferring what the image bytes say.
func normalizeMIME(declared string, data []byte) string {
	if strings.Contains(declared, "/") {
		return strings.ToLower(declared)
	}
	if sniffed := types.DetectMIME(data); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	switch strings.ToUpper(declared) {
	case "JPG", "JPEG":
		return "image/jpeg"
	case "PNG":
		return "image/png"
	}
	return "image/jpeg"
}

// PictureFrame builds an APIC frame for c. An empty MIME type is sniffed,
// an empty description becomes "Cover" and PictureOther becomes a front
// cover.
func PictureFrame(c *types.Cover) (RawFrame, error) {
	if c == nil || len(c.Data) == 0 {
		return RawFrame{}, errAPICNoImageData
	}

	mimeType := c.MIMEType
	if mimeType == "" {
		mimeType = types.DetectMIME(c.Data)
	}
	description := types.NormalizeText(c.Description)
	if description == "" {
		description = DefaultCoverDescription
	}
	pictureType := c.PictureType
	if pictureType == types.PictureOther {
		pictureType = types.PictureFrontCover
	}

	enc := pickEncoding(description)
	desc, err := encodeString(description, enc)
	if err != nil {
		return RawFrame{}, err
	}
	term := terminator(enc)

	payload := make([]byte, 0, 1+len(mimeType)+2+len(desc)+len(term)+len(c.Data))
	payload = append(payload, enc)
	payload = append(payload, mimeType...)
	payload = append(payload, 0, byte(pictureType))
	payload = append(payload, desc...)
	payload = append(payload, term...)
	payload = append(payload, c.Data...)
	return RawFrame{ID: idPicture, Payload: payload}, nil
}
