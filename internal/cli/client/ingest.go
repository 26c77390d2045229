package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// IngestStatsResponse mirrors the ingestion stats returned by the API.
type IngestStatsResponse struct {
	TotalPages   int   `json:"totalPages"`
	Spans        int   `json:"spans"`
	Figures      int   `json:"figures"`
	Tables       int   `json:"tables"`
	Sections     int   `json:"sections"`
	Chunks       int   `json:"chunks"`
	SkippedPages []int `json:"skippedPages,omitempty"`
}

type ingestResponse struct {
	Success bool                 `json:"success"`
	Stats   *IngestStatsResponse `json:"stats"`
}

// IngestCmd creates the manual ingest command.
func IngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <manual-id>",
		Short: "Process an uploaded manual",
		Long:  "Extract text, figures, sections, and chunks from an uploaded manual so it can be searched.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(args[0])
		},
	}
}

func runIngest(manualID string) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post("/manuals/"+manualID+"/ingest", nil)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	var result ingestResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Println("Ingestion complete")
	if result.Stats != nil {
		fmt.Printf("  Pages:    %d\n", result.Stats.TotalPages)
		fmt.Printf("  Spans:    %d\n", result.Stats.Spans)
		fmt.Printf("  Figures:  %d\n", result.Stats.Figures)
		fmt.Printf("  Tables:   %d\n", result.Stats.Tables)
		fmt.Printf("  Sections: %d\n", result.Stats.Sections)
		fmt.Printf("  Chunks:   %d\n", result.Stats.Chunks)
		if len(result.Stats.SkippedPages) > 0 {
			fmt.Printf("  Skipped pages: %v\n", result.Stats.SkippedPages)
		}
	}

	return nil
}
