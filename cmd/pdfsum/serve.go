package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-summarizer/internal/config"
	"github.com/thywilljoshua/pdf-summarizer/internal/server"
)

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the session-based HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := config.Load(a.v)
			if s.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			seg, err := newSegmenter(a.v.GetString("pattern"))
			if err != nil {
				return err
			}

			srv := server.New(server.Options{
				Pipeline:       pipelineOptions(s),
				MaxUploadBytes: int64(s.MaxUploadMB) << 20,
				Keys: map[config.Provider]string{
					config.ProviderOpenAI:    a.v.GetString("openai-api-key"),
					config.ProviderAnthropic: a.v.GetString("anthropic-api-key"),
					config.ProviderGemini:    a.v.GetString("gemini-api-key"),
					config.ProviderCustom:    a.v.GetString("custom-api-key"),
				},
				Hosts: map[config.Provider]string{
					config.ProviderCustom: a.v.GetString("custom-api-host"),
				},
				Segmenter: seg,
			}, a.log)

			hs := &http.Server{
				Addr:              s.Addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errc := make(chan error, 1)
			go func() {
				a.log.Info("server starting", zap.String("addr", hs.Addr))
				if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)
			select {
			case err := <-errc:
				return err
			case <-quit:
			}

			a.log.Info("shutting down server...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := hs.Shutdown(ctx); err != nil {
				return err
			}
			a.log.Info("server exited")
			return nil
		},
	}

	f := cmd.Flags()
	f.String("addr", ":8080", "listen address")
	f.Int("max-upload-mb", server.DefaultMaxUploadBytes>>20, "largest accepted PDF upload in MiB")
	f.String("pattern", "", "extra regular expression matching chapter heading lines")
	f.String("custom-api-host", "", "host used with the server's custom-provider key")
	pipelineFlags(f)
	return cmd
}
