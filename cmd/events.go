/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nexo-rrhh/portal/config"
	"github.com/nexo-rrhh/portal/internal/log"
	"github.com/nexo-rrhh/portal/internal/mq"
	"github.com/nexo-rrhh/portal/types"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect upload events on the message broker",
}

var eventsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Log every upload event until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := log.New(cfg.Environment, cfg.LogLevel)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		bus, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return fmt.Errorf("open mq: %w", err)
		}
		if bus == nil {
			return errors.New("MQ_BACKEND is none; nothing to watch")
		}
		defer bus.Close()

		logger.Info().Str("channel", cfg.MQ.UploadsChannel).Msg("watching upload events")
		err = bus.Subscribe(ctx, cfg.MQ.UploadsChannel, uploadEventLogger(logger))
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("subscribe failed: %w", err)
		}
		return nil
	},
}

// uploadEventLogger acknowledges every message. Undecodable payloads are
// logged and dropped so they are not redelivered forever.
func uploadEventLogger(logger zerolog.Logger) mq.Handler {
	return func(ctx context.Context, msg mq.Message) error {
		var event types.UploadEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping malformed upload event")
			return nil
		}
		logger.Info().
			Str("message_id", msg.ID).
			Int("upload_id", event.UploadID).
			Str("stored_name", event.StoredName).
			Str("original_name", event.OriginalName).
			Int("uploaded_by", event.UploadedBy).
			Time("uploaded_at", event.UploadedAt).
			Msg("upload recorded")
		return nil
	}
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsWatchCmd)
}
