package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/simonhull/tagedit/internal/blobstore"
	"github.com/simonhull/tagedit/internal/config"
	"github.com/simonhull/tagedit/internal/metrics"
	"github.com/simonhull/tagedit/internal/server"
	"github.com/simonhull/tagedit/internal/transcode"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the tagedit HTTP API.

Routes:
  GET    /api/v1/health
  POST   /api/v1/tags/read       read tags from an uploaded MP3
  POST   /api/v1/tags/write      return the upload with a new tag
  POST   /api/v1/files           store an upload
  GET    /api/v1/files           list stored uploads
  DELETE /api/v1/files/:id       delete a stored upload
  POST   /api/v1/transcode       convert any audio file to MP3
  GET    /uploads/{mp3,covers}/:name
  GET    /metrics

Every setting can also come from the config file or TAGEDIT_* variables.`,
	Example: `  tagedit serve --listen-addr :8080 --upload-dir ./uploads
  TAGEDIT_BRANDING_TITLE_SUFFIX=" [demo]" tagedit serve`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		logger := loggerFrom(cmd)
		m := metrics.New()

		store, err := blobstore.New(cfg.UploadDir,
			blobstore.WithMaxSize(cfg.MaxUploadSize),
			blobstore.WithPublicURL(cfg.PublicURL),
			blobstore.WithLogger(logger),
			blobstore.WithRecorder(m),
		)
		if err != nil {
			return fmt.Errorf("open upload store: %w", err)
		}

		tm := transcode.NewManager(cfg.FFmpegPath,
			transcode.WithBitrate(cfg.Bitrate),
			transcode.WithLogger(logger),
		)

		srv := server.New(server.Config{
			AllowedOrigins: cfg.AllowedOrigins,
			MaxUploadSize:  cfg.MaxUploadSize,
			WatermarkText:  cfg.Watermark.Text,
			WatermarkMax:   cfg.Watermark.MaxPixels,
			TitleSuffix:    cfg.Branding.TitleSuffix,
			Fill:           cfg.Branding.Fill,
		}, store,
			server.WithTranscoder(tm),
			server.WithMetrics(m),
			server.WithLogger(logger),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger.WithField("upload_dir", store.Root()).Info("Starting tagedit server")
		return srv.Run(ctx, cfg.ListenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	config.RegisterFlags(serveCmd.Flags())
}
