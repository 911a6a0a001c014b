package id3

import (
	"errors"

	"github.com/simonhull/tagedit/internal/types"
)

var errCOMMTooShort = errors.New("COMM frame too short")

// DefaultLanguage is the language code written into COMM frames.
const DefaultLanguage = "eng"

// Comment is a decoded COMM frame.
type Comment struct {
	Language    string
	Description string
	Text        string
}

// DecodeComment parses a COMM payload.
// Format:
//
//	[1 byte]              Text encoding
//	[3 bytes]             Language
//	[terminated]          Short description
//	[remaining]           Comment text
func DecodeComment(payload []byte) (Comment, error) {
	if len(payload) < 4 {
		return Comment{}, errCOMMTooShort
	}

	enc := payload[0]
	c := Comment{Language: string(payload[1:4])}

	desc, text, ok := splitTerminated(payload[4:], enc)
	if !ok {
		// No separator: treat everything as the comment
		c.Text = decodeString(desc, enc)
		return c, nil
	}

	c.Description = decodeString(desc, enc)
	c.Text = decodeString(text, enc)
	return c, nil
}

// CommentFrame builds a COMM frame. An empty language becomes "eng".
func CommentFrame(c Comment) (RawFrame, error) {
	lang := c.Language
	if len(lang) != 3 {
		lang = DefaultLanguage
	}

	c.Description = types.NormalizeText(c.Description)
	c.Text = types.NormalizeText(c.Text)
	enc := pickEncoding(c.Description, c.Text)
	desc, err := encodeString(c.Description, enc)
	if err != nil {
		return RawFrame{}, err
	}
	text, err := encodeString(c.Text, enc)
	if err != nil {
		return RawFrame{}, err
	}

	term := terminator(enc)
	payload := make([]byte, 0, 4+len(desc)+len(term)+len(text))
	payload = append(payload, enc)
	payload = append(payload, lang...)
	payload = append(payload, desc...)
	payload = append(payload, term...)
	payload = append(payload, text...)
	return RawFrame{ID: "COMM", Payload: payload}, nil
}
