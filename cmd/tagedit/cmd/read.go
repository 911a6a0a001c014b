package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/simonhull/tagedit"
)

// readCmd represents the read command
var readCmd = &cobra.Command{
	Use:   "read <file.mp3>...",
	Short: "Print the tags of MP3 files",
	Example: `  tagedit read song.mp3
  tagedit read --json --warnings *.mp3`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		showWarnings, _ := cmd.Flags().GetBool("warnings")
		skipCover, _ := cmd.Flags().GetBool("no-cover")

		var opts []tagedit.ReadOption
		if skipCover {
			opts = append(opts, tagedit.WithoutCover())
		}

		for _, path := range args {
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			res := tagedit.Inspect(data, opts...)
			var audio *tagedit.AudioInfo
			if info, err := tagedit.ProbeAudio(data); err == nil {
				audio = &info
			}

			if asJSON {
				if err := printJSON(cmd, path, res, audio); err != nil {
					return err
				}
				continue
			}
			printRecord(cmd, path, res, audio, showWarnings)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().Bool("json", false, "print JSON")
	readCmd.Flags().BoolP("warnings", "w", false, "print codec warnings")
	readCmd.Flags().Bool("no-cover", false, "skip cover decoding")
}

type readOutput struct {
	File     string            `json:"file"`
	Version  int               `json:"version"`
	TagSize  int64             `json:"tagSize"`
	Tags     tagedit.TagRecord `json:"tags"`
	Cover    string            `json:"cover,omitempty"`
	Audio    string            `json:"audio,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

func printJSON(cmd *cobra.Command, path string, res *tagedit.ReadResult, audio *tagedit.AudioInfo) error {
	out := readOutput{
		File:    path,
		Version: int(res.Version),
		TagSize: res.TagSize,
		Tags:    res.Tags,
	}
	if res.Tags.Cover != nil {
		out.Cover = res.Tags.Cover.String()
	}
	if audio != nil {
		out.Audio = describeAudio(*audio)
	}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, w.String())
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printRecord(cmd *cobra.Command, path string, res *tagedit.ReadResult, audio *tagedit.AudioInfo, showWarnings bool) {
	w := cmd.OutOrStdout()
	if res.Version == 0 {
		fmt.Fprintf(w, "%s: no ID3v2 tag\n", path)
	} else {
		fmt.Fprintf(w, "%s: ID3v2.%d, %d bytes\n", path, res.Version, res.TagSize)
	}
	for field, value := range res.Tags.All() {
		fmt.Fprintf(w, "  %-12s %s\n", field.String()+":", value)
	}
	if res.Tags.Cover != nil {
		fmt.Fprintf(w, "  %-12s %s\n", "cover:", res.Tags.Cover)
	}
	if audio != nil {
		fmt.Fprintf(w, "  %-12s %s\n", "audio:", describeAudio(*audio))
	}
	if showWarnings {
		for _, warn := range res.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warn)
		}
	}
}

func describeAudio(info tagedit.AudioInfo) string {
	mode := "CBR"
	if info.VBR {
		mode = "VBR"
	}
	return fmt.Sprintf("%s %s, %d kbps, %d Hz, %d ch, %s",
		info.Version, mode, info.Bitrate, info.SampleRate, info.Channels, info.Duration.Round(time.Second))
}
