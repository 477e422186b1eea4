package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/CatGallery/internal/domain"
	"github.com/spf13/cobra"
)

type outcomeLine struct {
	Kind    string            `json:"kind"`
	Page    int               `json:"page"`
	Images  []domain.CatImage `json:"images,omitempty"`
	Message string            `json:"message,omitempty"`
}

func newFetchCommand(flags *globalFlags) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch one page and print each outcome as a JSON line",
		Long: `Fetch one page of cat images through the gateway and print every outcome
(loading, then success or error) as one JSON object per line.

Exits non-zero when the fetch ends in an error.`,
		Args: cobra.NoArgs,
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
			gw, err := newGateway(cfg)
			if err != nil {
				return err
			}

			req := domain.NewPageRequest(cfg.CatAPI.PageSize, page)
			if err := req.Validate(); err != nil {
				return err
			}
			return printOutcomes(cmd, gw, req)
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "Zero-based page to fetch")
	return cmd
}

func printOutcomes(cmd *cobra.Command, gw domain.Gateway, req domain.PageRequest) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	var failure error
	for outcome := range gw.Fetch(cmd.Context(), req) {
		line := outcomeLine{
			Kind:    outcome.Kind.String(),
			Page:    req.Page,
			Images:  outcome.Images,
			Message: outcome.Message,
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("write outcome: %w", err)
		}
		if outcome.Kind == domain.OutcomeError {
			failure = errors.New(outcome.Message)
		}
	}
	return failure
}
