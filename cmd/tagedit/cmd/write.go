package cmd

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/simonhull/tagedit"
)

// writeCmd represents the write command
var writeCmd = &cobra.Command{
	Use:   "write <file.mp3>...",
	Short: "Rewrite the tags of MP3 files",
	Long: `Rewrite the ID3v2 tag of one or more MP3 files in place.

Fields given as flags replace the existing values; every other field and
the existing cover are kept unless --clear or --remove-cover is set. The
new tag is always ID3v2.3. Files are written atomically and in parallel.`,
	Example: `  tagedit write --title "Song" --artist "Band" song.mp3
  tagedit write --album "Live" --cover front.jpg --backup .bak *.mp3
  tagedit write --clear --title "Only this" song.mp3`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		clearTags, _ := flags.GetBool("clear")
		coverPath, _ := flags.GetString("cover")
		removeCover, _ := flags.GetBool("remove-cover")
		backup, _ := flags.GetString("backup")
		validate, _ := flags.GetBool("validate")
		preserve, _ := flags.GetBool("preserve-mtime")
		strict, _ := flags.GetBool("strict-cover")

		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		logger := loggerFrom(cmd)

		if coverPath != "" && removeCover {
			return fmt.Errorf("--cover and --remove-cover are mutually exclusive")
		}

		var newCover *tagedit.Cover
		if coverPath != "" {
			data, err := os.ReadFile(coverPath)
			if err != nil {
				return fmt.Errorf("read cover: %w", err)
			}
			newCover = tagedit.NewCover(data, "")
		}

		jobs := make([]tagedit.Job, 0, len(args))
		for _, path := range args {
			var current tagedit.TagRecord
			if !clearTags {
				res, err := tagedit.ReadFile(path)
				if err != nil {
					return err
				}
				current = res.Tags
			}

			rec := current
			for f := range tagedit.Fields() {
				name := fieldFlag(f)
				if flags.Changed(name) {
					v, _ := flags.GetString(name)
					rec = rec.With(f, v)
				}
			}
			if cfg.Branding.TitleSuffix != "" || cfg.Branding.Fill != "" {
				rec = rec.Branded(cfg.Branding.TitleSuffix, cfg.Branding.Fill)
			}

			cover := current.Cover
			switch {
			case newCover != nil:
				cover = newCover
			case removeCover:
				cover = nil
			}
			jobs = append(jobs, tagedit.Job{Path: path, Tags: rec, Cover: cover})
		}

		var writeOpts []tagedit.WriteOption
		if strict {
			writeOpts = append(writeOpts, tagedit.WithStrictCover())
		}
		saveOpts := []tagedit.SaveOption{
			tagedit.WithWriteOptions(writeOpts...),
			tagedit.WithWarningHandler(func(path string, warnings []tagedit.Warning) {
				for _, w := range warnings {
					logger.WithFields(log.Fields{"file": path, "stage": w.Stage}).Warn(w.Message)
				}
			}),
		}
		if backup != "" {
			saveOpts = append(saveOpts, tagedit.WithBackup(backup))
		}
		if validate {
			saveOpts = append(saveOpts, tagedit.WithValidation())
		}
		if preserve {
			saveOpts = append(saveOpts, tagedit.WithPreserveModTime())
		}

		if err := tagedit.TagManyWithOptions(cmd.Context(), jobs, saveOpts...); err != nil {
			return err
		}
		logger.WithField("files", len(jobs)).Info("Tags written")
		for _, j := range jobs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: tagged\n", j.Path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(writeCmd)
	for f := range tagedit.Fields() {
		writeCmd.Flags().String(fieldFlag(f), "", fmt.Sprintf("set the %s field", f))
	}
	writeCmd.Flags().Bool("clear", false, "start from an empty record instead of the current tags")
	writeCmd.Flags().String("cover", "", "image file to embed as the front cover")
	writeCmd.Flags().Bool("remove-cover", false, "drop the embedded cover")
	writeCmd.Flags().String("backup", "", "keep the original file with this suffix")
	writeCmd.Flags().Bool("validate", false, "re-read each file after writing and compare")
	writeCmd.Flags().Bool("preserve-mtime", false, "keep the original modification time")
	writeCmd.Flags().Bool("strict-cover", false, "fail instead of skipping an invalid cover")
}

// fieldFlag turns a field key such as albumArtist into album-artist.
func fieldFlag(f tagedit.Field) string {
	var b strings.Builder
	for i, r := range f.String() {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
