package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonhull/tagedit/internal/transcode"
)

// transcodeCmd represents the transcode command
var transcodeCmd = &cobra.Command{
	Use:   "transcode <in> [out.mp3]",
	Short: "Convert an audio file to MP3 with ffmpeg",
	Example: `  tagedit transcode track.flac
  tagedit transcode --bitrate 320k track.wav track.mp3`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		bitrate := cfg.Bitrate
		if cmd.Flags().Changed("bitrate") {
			bitrate, _ = cmd.Flags().GetString("bitrate")
		}
		quiet, _ := cmd.Flags().GetBool("quiet")

		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		tm := transcode.NewManager(cfg.FFmpegPath,
			transcode.WithBitrate(bitrate),
			transcode.WithLogger(loggerFrom(cmd)),
		)
		tr, err := tm.Acquire(cmd.Context())
		if err != nil {
			return err
		}

		errOut := cmd.ErrOrStderr()
		out, err := tr.ToMP3(cmd.Context(), src, filepath.Ext(args[0]), func(p float64) {
			if !quiet {
				fmt.Fprintf(errOut, "\r%3.0f%%", p*100)
			}
		})
		if !quiet {
			fmt.Fprintln(errOut)
		}
		if err != nil {
			return err
		}

		dst := strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".mp3"
		if len(args) == 2 {
			dst = args[1]
		}
		if dst == args[0] {
			return fmt.Errorf("output %s would overwrite the input", dst)
		}
		if err := os.WriteFile(dst, out, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes\n", dst, len(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(transcodeCmd)
	transcodeCmd.Flags().String("bitrate", "", "MP3 bitrate (default: bitrate from config)")
	transcodeCmd.Flags().String("ffmpeg-path", "", "ffmpeg binary name or path")
	transcodeCmd.Flags().BoolP("quiet", "q", false, "hide progress")
}
