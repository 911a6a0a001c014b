package types

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNewCover_SniffsMIME(t *testing.T) {
	data := testPNG(t, 4, 3)

	c := NewCover(data, "")
	if c.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", c.MIMEType)
	}
	if c.PictureType != PictureFrontCover {
		t.Errorf("PictureType = %v, want front cover", c.PictureType)
	}

	explicit := NewCover(data, "image/x-custom")
	if explicit.MIMEType != "image/x-custom" {
		t.Errorf("explicit MIME should be kept, got %q", explicit.MIMEType)
	}
}

func TestCover_DataURI(t *testing.T) {
	c := &Cover{MIMEType: "image/png", Data: []byte("abc")}
	if got := c.DataURI(); got != "data:image/png;base64,YWJj" {
		t.Errorf("DataURI() = %q", got)
	}

	var nilCover *Cover
	if nilCover.DataURI() != "" {
		t.Error("nil cover should render an empty URI")
	}
}

func TestCover_Dimensions(t *testing.T) {
	c := NewCover(testPNG(t, 16, 9), "")
	w, h := c.Dimensions()
	if w != 16 || h != 9 {
		t.Errorf("Dimensions() = %dx%d, want 16x9", w, h)
	}

	bad := &Cover{Data: []byte("not an image")}
	if w, h := bad.Dimensions(); w != 0 || h != 0 {
		t.Errorf("undecodable image should report 0x0, got %dx%d", w, h)
	}
}

func TestCover_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cover   *Cover
		wantErr bool
	}{
		{"valid png", NewCover(testPNG(t, 2, 2), ""), false},
		{"nil cover", nil, true},
		{"empty data", &Cover{MIMEType: "image/png"}, true},
		{"text payload", &Cover{MIMEType: "image/png", Data: []byte("hello world")}, true},
		{"truncated png", &Cover{MIMEType: "image/png", Data: testPNG(t, 2, 2)[:12]}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cover.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var coverErr *InvalidCoverError
				if !errors.As(err, &coverErr) {
					t.Errorf("expected *InvalidCoverError, got %T", err)
				}
			}
		})
	}
}

func TestCover_String(t *testing.T) {
	c := NewCover(testPNG(t, 10, 20), "")
	s := c.String()
	for _, want := range []string{"Front cover", "10x20", "PNG"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, should contain %q", s, want)
		}
	}

	var nilCover *Cover
	if nilCover.String() != "<no cover>" {
		t.Errorf("nil String() = %q", nilCover.String())
	}
}

func TestPictureType_String(t *testing.T) {
	if PictureFrontCover.String() != "Front cover" {
		t.Errorf("got %q", PictureFrontCover.String())
	}
	if PicturePublisherLogotype.String() != "Publisher logotype" {
		t.Errorf("got %q", PicturePublisherLogotype.String())
	}
	if PictureType(200).String() != "PictureType(200)" {
		t.Errorf("got %q", PictureType(200).String())
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{512, "512B"},
		{2048, "2KB"},
		{3 * 1024 * 1024, "3.0MB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.in); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
