package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/simonhull/tagedit/internal/id3"
	"github.com/simonhull/tagedit/internal/mpeg"
	"github.com/simonhull/tagedit/internal/types"
)

// rawPreview is how many bytes of each re-encoded frame -raw prints.
const rawPreview = 32

// Debug helper: prints every frame of an ID3v2 tag and the first MPEG frame
// after it.
func main() {
	raw := flag.Bool("raw", false, "print the v2.3 encoding of each frame in hex")
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Println("Usage: id3-dump [-raw] <file.mp3>")
		os.Exit(1)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	dump(os.Stdout, data, *raw)
}

func dump(w io.Writer, data []byte, raw bool) {
	tag := id3.Parse(data)
	if !tag.Present {
		fmt.Fprintln(w, "no ID3v2 tag")
	} else {
		h := tag.Header
		fmt.Fprintf(w, "ID3v2.%d.%d flags=%#02x size=%d (tag %d bytes)\n",
			h.Version, h.Revision, h.Flags, h.Size, tag.Size)

		seen := make(map[string]bool)
		for i, f := range tag.Frames {
			seen[f.ID] = true
			label := ""
			if field, ok := id3.FieldFor(f.ID); ok {
				label = " " + field.String() + ":"
			}
			fmt.Fprintf(w, "  %s (size: %d, offset: %d)%s %s\n",
				f.ID, len(f.Payload), tag.Offsets[i], label, preview(f))
			if raw {
				fmt.Fprintf(w, "    %s\n", rawHex(f))
			}
		}

		var missing []string
		for field := range types.Fields() {
			if !seen[id3.FrameID(field)] {
				missing = append(missing, field.String())
			}
		}
		if len(missing) > 0 {
			fmt.Fprintf(w, "  not set: %s\n", strings.Join(missing, ", "))
		}
		for _, warn := range tag.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warn)
		}
	}

	info, err := mpeg.Probe(data, tag.Size)
	if err != nil {
		fmt.Fprintf(w, "audio: %v\n", err)
		return
	}
	mode := "CBR"
	if info.VBR {
		mode = fmt.Sprintf("VBR, %d frames", info.Frames)
	}
	fmt.Fprintf(w, "audio: %s at offset %d, %d kbps, %d Hz, %d ch, %s, %s\n",
		info.Version, info.Offset, info.Bitrate, info.SampleRate, info.Channels, mode, info.Duration)
}

func rawHex(f id3.RawFrame) string {
	b, err := f.Bytes()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	if len(b) > rawPreview {
		return hex.EncodeToString(b[:rawPreview]) + "..."
	}
	return hex.EncodeToString(b)
}

func preview(f id3.RawFrame) string {
	switch {
	case f.ID == "COMM":
		c, err := id3.DecodeComment(f.Payload)
		if err != nil {
			return "<" + err.Error() + ">"
		}
		return fmt.Sprintf("[%s] %q: %q", c.Language, c.Description, c.Text)
	case f.ID == "APIC":
		c, err := id3.DecodePicture(f.Payload)
		if err != nil {
			return "<" + err.Error() + ">"
		}
		return c.String()
	case strings.HasPrefix(f.ID, "T"):
		return fmt.Sprintf("%q", id3.DecodeText(f))
	default:
		return ""
	}
}
