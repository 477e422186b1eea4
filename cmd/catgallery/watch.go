package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/CatGallery/internal/domain"
	"github.com/CatGallery/internal/infra/queue"
	"github.com/spf13/cobra"
)

func newWatchCommand(flags *globalFlags) *cobra.Command {
	var (
		brokers []string
		topic   string
		group   string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Tail gallery snapshots published by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			closeLog, err := setupLogging(flags, false)
			if err != nil {
				return err
			}
			defer closeLog()

			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if len(brokers) == 0 {
				brokers = cfg.Kafka.Brokers
			}
			if topic == "" {
				topic = cfg.Kafka.Topic
			}
			if len(brokers) == 0 {
				return errors.New("no kafka brokers: set KAFKA_BROKERS or --brokers")
			}

			consumer := queue.NewSnapshotConsumer(brokers, topic, group)
			defer consumer.Close()

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			return consumer.Start(cmd.Context(), func(_ context.Context, snap *domain.Snapshot) error {
				if asJSON {
					return enc.Encode(snap)
				}
				_, err := fmt.Fprintln(out, formatSnapshot(snap))
				return err
			})
		},
	}

	cmd.Flags().StringSliceVar(&brokers, "brokers", nil, "Kafka brokers (overrides KAFKA_BROKERS)")
	cmd.Flags().StringVar(&topic, "topic", "", "Snapshot topic (overrides KAFKA_TOPIC)")
	cmd.Flags().StringVar(&group, "group", "", "Consumer group; empty tails every partition from the latest offset")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw snapshots as JSON lines")
	return cmd
}

func formatSnapshot(snap *domain.Snapshot) string {
	st := snap.State
	status := "idle"
	switch {
	case st.IsLoading:
		status = "loading"
	case st.IsLoadingMore:
		status = "loading-more"
	case st.HasError():
		status = "error: " + st.Error
	}
	return fmt.Sprintf("%s %s #%d page=%d images=%d %s",
		snap.At.Format("15:04:05"), snap.SessionID, snap.Version, st.CurrentPage, len(st.Images), status)
}
