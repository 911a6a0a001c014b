package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonhull/tagedit/internal/watermark"
)

// watermarkCmd represents the watermark command
var watermarkCmd = &cobra.Command{
	Use:   "watermark <in> [out]",
	Short: "Stamp text onto a cover image",
	Long: `Stamp a line of bold text onto an image. PNG and GIF input is written as
PNG, everything else as JPEG. Without [out] the result is written next to
the input with a -watermarked suffix.`,
	Example: `  tagedit watermark cover.jpg
  tagedit watermark --color white --position top cover.png stamped.png`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		color, _ := cmd.Flags().GetString("color")
		position, _ := cmd.Flags().GetString("position")

		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		if text == "" {
			text = cfg.Watermark.Text
		}

		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		out, mimeType, err := watermark.Apply(src, watermark.Options{
			Text:      text,
			Color:     color,
			Position:  watermark.Position(position),
			MaxPixels: cfg.Watermark.MaxPixels,
		})
		if err != nil {
			return err
		}

		dst := ""
		if len(args) == 2 {
			dst = args[1]
		} else {
			ext := ".jpg"
			if mimeType == "image/png" {
				ext = ".png"
			}
			base := strings.TrimSuffix(args[0], filepath.Ext(args[0]))
			dst = base + "-watermarked" + ext
		}
		if err := os.WriteFile(dst, out, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %d bytes\n", dst, mimeType, len(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watermarkCmd)
	watermarkCmd.Flags().String("text", "", "text to stamp (default: watermark.text from config)")
	watermarkCmd.Flags().String("color", "yellow", "text colour: yellow, white, red or black")
	watermarkCmd.Flags().String("position", string(watermark.PositionBottom), "top, center or bottom")
}
