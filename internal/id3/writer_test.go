package id3

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	binutil "github.com/simonhull/tagedit/internal/binary"
	"github.com/simonhull/tagedit/internal/types"
)

func mustWrite(t *testing.T, buf []byte, tags types.TagRecord, cover *types.Cover, opts ...WriteOption) *WriteResult {
	t.Helper()
	res, err := Write(buf, tags, cover, opts...)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return res
}

func TestWrite_ConcreteBytes(t *testing.T) {
	res := mustWrite(t, fakeAudio, types.TagRecord{Title: "Test Song", Artist: "Test Artist"}, nil)

	var want []byte
	want = append(want, 0x49, 0x44, 0x33, 0x03, 0x00, 0x00) // "ID3" v2.3.0, no flags
	want = append(want, 0x00, 0x00, 0x00, 0x2A)             // 42 bytes of frames
	want = append(want, 'T', 'I', 'T', '2', 0x00, 0x00, 0x00, 0x0A, 0x00, 0x00)
	want = append(want, 0x00)
	want = append(want, "Test Song"...)
	want = append(want, 'T', 'P', 'E', '1', 0x00, 0x00, 0x00, 0x0C, 0x00, 0x00)
	want = append(want, 0x00)
	want = append(want, "Test Artist"...)
	want = append(want, fakeAudio...)

	if !bytes.Equal(res.Data, want) {
		t.Errorf("Write() =\n% x\nwant\n% x", res.Data, want)
	}
	if res.TagSize != 52 {
		t.Errorf("TagSize = %d, want 52", res.TagSize)
	}
	if strings.Join(res.Frames, ",") != "TIT2,TPE1" {
		t.Errorf("Frames = %v", res.Frames)
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	tags := types.TagRecord{
		Title:       "Title ☃",
		Artist:      "A/B",
		Album:       "Album",
		AlbumArtist: "Album Artist",
		Composer:    "Composer",
		Genre:       "Rock;Pop",
		Year:        "2024",
		Track:       "1/10",
		Comment:     "Ünïcödé comment €",
		Copyright:   "© Someone",
	}

	res := mustWrite(t, fakeAudio, tags, nil)
	got := Read(res.Data)

	if !got.Tags.Equal(tags) {
		t.Errorf("round trip =\n%+v\nwant\n%+v", got.Tags, tags)
	}
	if len(got.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", got.Warnings)
	}
	if got.Version != 3 {
		t.Errorf("Version = %d, want 3", got.Version)
	}
}

func TestWrite_EncodingChoice(t *testing.T) {
	res := mustWrite(t, nil, types.TagRecord{Title: "Café", Artist: "日本"}, nil)
	tag := Parse(res.Data)

	if len(tag.Frames) != 2 {
		t.Fatalf("got %d frames", len(tag.Frames))
	}
	if enc := tag.Frames[0].Payload[0]; enc != EncodingISO88591 {
		t.Errorf("latin-1 title used encoding %d", enc)
	}
	artist := tag.Frames[1].Payload
	if artist[0] != EncodingUTF16 || artist[1] != 0xFF || artist[2] != 0xFE {
		t.Errorf("non latin-1 artist should be UTF-16LE with BOM, got % x", artist[:3])
	}
}

func TestWrite_PreservesAudio(t *testing.T) {
	existing := withAudio(buildTag(4, 0, 100,
		v4Frame("TIT2", 0, latin1("Old")),
		v4Frame("APIC", 0, apicPayload("image/png", 3, "", []byte{1, 2, 3})),
	))

	tests := []struct {
		name string
		buf  []byte
	}{
		{"untagged", fakeAudio},
		{"tagged", existing},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustWrite(t, tt.buf, types.TagRecord{Title: "New"}, nil)
			if !bytes.Equal(Strip(res.Data), Strip(tt.buf)) {
				t.Error("audio payload changed")
			}
			if len(res.Data) != res.TagSize+len(Strip(tt.buf)) {
				t.Errorf("len = %d, want tag %d + audio %d", len(res.Data), res.TagSize, len(Strip(tt.buf)))
			}
		})
	}
}

func TestWrite_IdempotentRetag(t *testing.T) {
	a := types.TagRecord{Title: "A", Artist: "Artist A", Comment: "first"}
	b := types.TagRecord{Title: "B", Album: "Album B"}

	once := mustWrite(t, fakeAudio, a, nil)
	twice := mustWrite(t, once.Data, b, nil)

	if !bytes.Equal(Strip(twice.Data), fakeAudio) {
		t.Error("audio payload changed after re-tagging")
	}
	got := Read(twice.Data).Tags
	if !got.Equal(b) {
		t.Errorf("re-tagged record = %+v, want %+v (no merge with old tag)", got, b)
	}

	again := mustWrite(t, twice.Data, b, nil)
	if !bytes.Equal(again.Data, twice.Data) {
		t.Error("writing the same record twice should be byte-stable")
	}
}

func TestWrite_SkipsBlankFields(t *testing.T) {
	res := mustWrite(t, nil, types.TagRecord{Title: "Only", Artist: "   ", Album: "\t"}, nil)
	if strings.Join(res.Frames, ",") != "TIT2" {
		t.Errorf("Frames = %v, want only TIT2", res.Frames)
	}

	// Values are stored verbatim, surrounding spaces included
	res = mustWrite(t, nil, types.TagRecord{Title: " padded "}, nil)
	if got := Read(res.Data).Tags.Title; got != " padded " {
		t.Errorf("Title = %q", got)
	}
}

func TestWrite_EmptyRecord(t *testing.T) {
	res := mustWrite(t, fakeAudio, types.TagRecord{}, nil)
	want := append([]byte{'I', 'D', '3', 3, 0, 0, 0, 0, 0, 0}, fakeAudio...)
	if !bytes.Equal(res.Data, want) {
		t.Errorf("empty record = % x", res.Data)
	}
}

func TestWrite_FrameOrder(t *testing.T) {
	var tags types.TagRecord
	for f := range types.Fields() {
		tags = tags.With(f, "x")
	}
	res := mustWrite(t, nil, tags, &types.Cover{Data: testPNG(t, 1, 1)})

	want := "TIT2,TPE1,TALB,TCON,TYER,TPE2,TCOM,TRCK,COMM,TCOP,APIC"
	if got := strings.Join(res.Frames, ","); got != want {
		t.Errorf("Frames = %s\nwant   %s", got, want)
	}
}

func TestWrite_CommentLayout(t *testing.T) {
	res := mustWrite(t, nil, types.TagRecord{Comment: "hi"}, nil)
	tag := Parse(res.Data)

	want := []byte{0x00, 'e', 'n', 'g', 0x00, 'h', 'i'}
	if !bytes.Equal(tag.Frames[0].Payload, want) {
		t.Errorf("COMM payload = % x, want % x", tag.Frames[0].Payload, want)
	}
}

func TestWrite_CoverRoundTrip(t *testing.T) {
	img := testPNG(t, 5, 4)

	res := mustWrite(t, fakeAudio, types.TagRecord{Title: "With art"}, types.NewCover(img, "image/png"))
	got := Read(res.Data).Tags.Cover

	if got == nil {
		t.Fatal("cover missing after round trip")
	}
	if got.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q", got.MIMEType)
	}
	if !bytes.Equal(got.Data, img) {
		t.Errorf("cover bytes differ: %d vs %d bytes", len(got.Data), len(img))
	}
	if got.PictureType != types.PictureFrontCover {
		t.Errorf("PictureType = %v, want front cover", got.PictureType)
	}
	if got.Description != DefaultCoverDescription {
		t.Errorf("Description = %q, want %q", got.Description, DefaultCoverDescription)
	}
	if w, h := got.Dimensions(); w != 5 || h != 4 {
		t.Errorf("Dimensions = %dx%d", w, h)
	}
}

func TestWrite_CoverSniffsMIME(t *testing.T) {
	res := mustWrite(t, nil, types.TagRecord{}, &types.Cover{Data: testPNG(t, 1, 1)})
	pic, err := DecodePicture(Parse(res.Data).Frames[0].Payload)
	if err != nil {
		t.Fatal(err)
	}
	if pic.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want sniffed image/png", pic.MIMEType)
	}
}

func TestWrite_DropsOldCoverWithoutOverride(t *testing.T) {
	withCover := mustWrite(t, fakeAudio, types.TagRecord{Title: "x"}, types.NewCover(testPNG(t, 1, 1), ""))
	rec := Read(withCover.Data).Tags

	// The record still carries the cover, but only the argument counts
	res := mustWrite(t, withCover.Data, rec, nil)
	if Read(res.Data).Tags.Cover != nil {
		t.Error("cover should be dropped when no override is passed")
	}
}

func TestWrite_InvalidCover(t *testing.T) {
	bad := &types.Cover{MIMEType: "image/jpeg", Data: []byte("this is not a jpeg")}
	tags := types.TagRecord{Title: "Kept"}

	res, err := Write(fakeAudio, tags, bad)
	if err != nil {
		t.Fatalf("default policy should not fail, got %v", err)
	}
	if strings.Join(res.Frames, ",") != "TIT2" {
		t.Errorf("Frames = %v, APIC should be omitted", res.Frames)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Stage != "cover" {
		t.Errorf("Warnings = %v", res.Warnings)
	}

	_, err = Write(fakeAudio, tags, bad, WithStrictCover())
	var coverErr *types.InvalidCoverError
	if !errors.As(err, &coverErr) {
		t.Fatalf("strict policy error = %v, want *InvalidCoverError", err)
	}
	if coverErr.MIMEType != "text/plain" {
		t.Errorf("MIMEType = %q, want sniffed text/plain", coverErr.MIMEType)
	}
}

func TestWrite_KeepsExistingUndecodableCover(t *testing.T) {
	// JPEG signature but truncated: sniffs as an image, fails DecodeConfig
	broken := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	tagged := withAudio(buildTag(3, 0, 0,
		v3Frame("TIT2", latin1("Old")),
		v3Frame("APIC", apicPayload("image/jpeg", 3, "", broken)),
	))

	rec := Read(tagged).Tags
	if rec.Cover == nil {
		t.Fatal("existing cover not read")
	}

	res := mustWrite(t, tagged, rec.With(types.FieldTitle, "New"), rec.Cover)
	if strings.Join(res.Frames, ",") != "TIT2,APIC" {
		t.Errorf("Frames = %v, existing cover should be kept", res.Frames)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v", res.Warnings)
	}
	got := Read(res.Data).Tags.Cover
	if got == nil || !bytes.Equal(got.Data, broken) {
		t.Errorf("cover after rewrite = %v", got)
	}

	// The same bytes arriving as a new cover are still validated
	fresh := mustWrite(t, fakeAudio, rec, rec.Cover)
	if len(fresh.Warnings) != 1 || strings.Contains(strings.Join(fresh.Frames, ","), "APIC") {
		t.Errorf("new invalid cover: Frames = %v, Warnings = %v", fresh.Frames, fresh.Warnings)
	}
}

func TestWrite_NormalizesNULAndBOM(t *testing.T) {
	tags := types.TagRecord{
		Title:     "\ufeffZZ",
		Artist:    "A\x00B",
		Copyright: " \x00Z",
		Comment:   "note\x00\ufeff",
		Album:     "\x00",
	}
	want := types.TagRecord{
		Title:     "ZZ",
		Artist:    "AB",
		Copyright: " Z",
		Comment:   "note",
	}

	res := mustWrite(t, fakeAudio, tags, nil)
	got := Read(res.Data).Tags
	if !got.Equal(want) {
		t.Errorf("read back %+v, want %+v", got, want)
	}
	if strings.Contains(strings.Join(res.Frames, ","), "TALB") {
		t.Errorf("Frames = %v, an album of only NUL should be blank", res.Frames)
	}

	again := mustWrite(t, res.Data, got, nil)
	if !bytes.Equal(again.Data, res.Data) {
		t.Error("rewriting the normalized record changed the bytes")
	}
}

func TestWrite_AudioCheck(t *testing.T) {
	if _, err := Write(fakeAudio, types.TagRecord{Title: "x"}, nil, WithAudioCheck()); err != nil {
		t.Errorf("valid audio rejected: %v", err)
	}

	_, err := Write([]byte("not audio"), types.TagRecord{Title: "x"}, nil, WithAudioCheck())
	var corrupt *types.CorruptedFileError
	if !errors.As(err, &corrupt) {
		t.Errorf("error = %v, want *CorruptedFileError", err)
	}

	// Off by default
	if _, err := Write([]byte("not audio"), types.TagRecord{Title: "x"}, nil); err != nil {
		t.Errorf("audio check should be opt-in, got %v", err)
	}
}

func TestWriteHeader_SynchsafeBoundary(t *testing.T) {
	var buf bytes.Buffer
	if err := writeHeader(binutil.NewSafeWriter(&buf), binutil.MaxSynchsafe); err != nil {
		t.Fatalf("writeHeader(max) error = %v", err)
	}

	h, ok := ParseHeader(buf.Bytes())
	if !ok || !h.SizeOK {
		t.Fatalf("header not parseable: % x", buf.Bytes())
	}
	if h.Size != binutil.MaxSynchsafe {
		t.Errorf("Size = %#x, want %#x", h.Size, binutil.MaxSynchsafe)
	}
	if !bytes.Equal(buf.Bytes()[6:], []byte{0x7F, 0x7F, 0x7F, 0x7F}) {
		t.Errorf("size bytes = % x", buf.Bytes()[6:])
	}

	err := writeHeader(binutil.NewSafeWriter(&bytes.Buffer{}), binutil.MaxSynchsafe+1)
	var tooLarge *types.TagTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Errorf("error = %v, want *TagTooLargeError", err)
	}
}

func TestTextFrame_MultiValue(t *testing.T) {
	tests := []struct {
		id     string
		values []string
		want   string
	}{
		{"TPE1", []string{"One", "Two"}, "One/Two"},
		{"TCOM", []string{"A", "B", "C"}, "A/B/C"},
		{"TCON", []string{"Rock", "Pop"}, "Rock;Pop"},
		{"TPE1", []string{"Solo"}, "Solo"},
	}

	for _, tt := range tests {
		f, err := TextFrame(tt.id, tt.values...)
		if err != nil {
			t.Fatal(err)
		}
		if got := DecodeText(f); got != tt.want {
			t.Errorf("TextFrame(%s, %q) = %q, want %q", tt.id, tt.values, got, tt.want)
		}
	}
}

func TestFrameTable(t *testing.T) {
	tests := map[types.Field]string{
		types.FieldTitle:       "TIT2",
		types.FieldArtist:      "TPE1",
		types.FieldAlbum:       "TALB",
		types.FieldGenre:       "TCON",
		types.FieldYear:        "TYER",
		types.FieldAlbumArtist: "TPE2",
		types.FieldComposer:    "TCOM",
		types.FieldTrack:       "TRCK",
		types.FieldComment:     "COMM",
		types.FieldCopyright:   "TCOP",
	}

	for field, id := range tests {
		if got := FrameID(field); got != id {
			t.Errorf("FrameID(%v) = %q, want %q", field, got, id)
		}
		if got, ok := FieldFor(id); !ok || got != field {
			t.Errorf("FieldFor(%q) = %v, %v", id, got, ok)
		}
	}

	if _, ok := FieldFor("APIC"); ok {
		t.Error("APIC is not a text field")
	}
}

func TestRawFrame_Bytes(t *testing.T) {
	f := RawFrame{ID: "TXXX", Flags: 0x0040, Payload: []byte{1, 2}}
	got, err := f.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{'T', 'X', 'X', 'X', 0, 0, 0, 2, 0x00, 0x40, 1, 2}
	if !bytes.Equal(got, want) {
		t.Errorf("Bytes() = % x, want % x", got, want)
	}

	if _, err := (RawFrame{ID: "bad"}).Bytes(); err == nil {
		t.Error("invalid ID should fail")
	}
}

func TestValidID(t *testing.T) {
	for _, id := range []string{"TIT2", "APIC", "XYZ1", "0000"} {
		if !ValidID(id) {
			t.Errorf("ValidID(%q) = false", id)
		}
	}
	for _, id := range []string{"", "TIT", "TIT22", "tit2", "TI T", "\x00\x00\x00\x00"} {
		if ValidID(id) {
			t.Errorf("ValidID(%q) = true", id)
		}
	}
}
