package id3

import (
	"strings"

	"github.com/simonhull/tagedit/internal/types"
)

// frameKind selects how a frame payload maps onto a field.
type frameKind int

const (
	kindText    frameKind = iota // encoding byte + text
	kindComment                  // COMM layout
)

// frameSpec binds a TagRecord field to its frame.
type frameSpec struct {
	Field types.Field
	ID    string
	Sep   string // multi-value separator; "" for single-valued frames
	Kind  frameKind
}

// frameTable is the single mapping used by both reader and writer, in the
// order frames are written.
var frameTable = [...]frameSpec{
	{Field: types.FieldTitle, ID: "TIT2"},
	{Field: types.FieldArtist, ID: "TPE1", Sep: "/"},
	{Field: types.FieldAlbum, ID: "TALB"},
	{Field: types.FieldGenre, ID: "TCON", Sep: ";"},
	{Field: types.FieldYear, ID: "TYER"},
	{Field: types.FieldAlbumArtist, ID: "TPE2"},
	{Field: types.FieldComposer, ID: "TCOM", Sep: "/"},
	{Field: types.FieldTrack, ID: "TRCK"},
	{Field: types.FieldComment, ID: "COMM", Kind: kindComment},
	{Field: types.FieldCopyright, ID: "TCOP"},
}

// Frame IDs handled outside the table.
const (
	idPicture       = "APIC"
	idRecordingTime = "TDRC" // v2.4; feeds Year when TYER is absent
)

var specByID = func() map[string]frameSpec {
	m := make(map[string]frameSpec, len(frameTable))
	for _, s := range frameTable {
		m[s.ID] = s
	}
	return m
}()

// FrameID returns the frame ID that stores field f.
func FrameID(f types.Field) string {
	for _, s := range frameTable {
		if s.Field == f {
			return s.ID
		}
	}
	return ""
}

// FieldFor returns the TagRecord field stored in frame id.
func FieldFor(id string) (types.Field, bool) {
	s, ok := specByID[id]
	return s.Field, ok
}

// separator returns the multi-value join string for a text frame.
func separator(id string) string {
	if s, ok := specByID[id]; ok && s.Sep != "" {
		return s.Sep
	}
	return "/"
}

// TextFrame builds a text frame. Several values are joined with the
// frame's separator ("/" for TPE1 and TCOM, ";" for TCON).
func TextFrame(id string, values ...string) (RawFrame, error) {
	text := types.NormalizeText(strings.Join(values, separator(id)))
	enc := pickEncoding(text)
	body, err := encodeString(text, enc)
	if err != nil {
		return RawFrame{}, err
	}
	payload := make([]byte, 0, 1+len(body))
	payload = append(payload, enc)
	payload = append(payload, body...)
	return RawFrame{ID: id, Payload: payload}, nil
}

// DecodeText decodes the body of a text frame.
func DecodeText(f RawFrame) string {
	if len(f.Payload) < 1 {
		return ""
	}
	return decodeText(f.Payload[1:], f.Payload[0], separator(f.ID))
}

// leadingYear returns the first four characters of a v2.4 timestamp when
// they are digits ("2019-05-01T10:00" -> "2019").
func leadingYear(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return ""
	}
	for i := range 4 {
		if s[i] < '0' || s[i] > '9' {
			return ""
		}
	}
	return s[:4]
}
