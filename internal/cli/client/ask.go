package client

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dang-hang/fleet-wise-aide/internal/stream"
	"github.com/spf13/cobra"
)

type askRequest struct {
	Query    string `json:"query"`
	ManualID string `json:"manual_id,omitempty"`
}

type askCitation struct {
	ManualTitle string `json:"manualTitle"`
	Page        int    `json:"page"`
	Snippet     string `json:"snippet,omitempty"`
	IsFigure    bool   `json:"isFigure,omitempty"`
	FigureURL   string `json:"figureUrl,omitempty"`
}

type askFrame struct {
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Choices []struct {
		Delta struct {
			Content   string                 `json:"content"`
			Citations map[string]askCitation `json:"citations,omitempty"`
		} `json:"delta"`
	} `json:"choices"`
}

// AskCmd creates the question answering command.
func AskCmd() *cobra.Command {
	var manualID string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about your vehicle manuals",
		Long:  "Streams an answer grounded in the ingested manuals, with page-level citations.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(strings.Join(args, " "), manualID)
		},
	}

	cmd.Flags().StringVarP(&manualID, "manual", "m", "", "Restrict the answer to a single manual ID")

	return cmd
}

func runAsk(question, manualID string) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.PostStream("/query/answer", askRequest{
		Query:    question,
		ManualID: manualID,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer resp.Body.Close()

	var citations map[string]askCitation

	sc := stream.NewFrameScanner(resp.Body)
	for sc.Next() {
		var frame askFrame
		if err := json.Unmarshal(sc.Frame(), &frame); err != nil {
			continue
		}
		if frame.Error != "" {
			fmt.Println()
			if frame.Code != "" {
				return fmt.Errorf("answer failed: %s (%s)", frame.Code, frame.Error)
			}
			return fmt.Errorf("answer failed: %s", frame.Error)
		}
		for _, choice := range frame.Choices {
			fmt.Print(choice.Delta.Content)
			if len(choice.Delta.Citations) > 0 {
				citations = choice.Delta.Citations
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("stream failed: %w", err)
	}
	if !sc.Done() {
		fmt.Println()
		return fmt.Errorf("stream ended before completion")
	}

	fmt.Println()
	if len(citations) > 0 {
		fmt.Println("\nSources:")
		labels := make([]string, 0, len(citations))
		for label := range citations {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			c := citations[label]
			kind := ""
			if c.IsFigure {
				kind = " (figure)"
			}
			fmt.Printf("  [%s] %s, p.%d%s\n", label, c.ManualTitle, c.Page, kind)
		}
	}

	return nil
}
