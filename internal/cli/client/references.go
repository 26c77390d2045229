package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type referenceItem struct {
	Label       string `json:"label"`
	ManualTitle string `json:"manualTitle"`
	Page        int    `json:"page"`
	Snippet     string `json:"snippet,omitempty"`
	IsFigure    bool   `json:"isFigure,omitempty"`
	DeepLink    string `json:"deepLink"`
}

type referencesResponse struct {
	Vehicle struct {
		Year  int    `json:"year,omitempty"`
		Make  string `json:"make,omitempty"`
		Model string `json:"model,omitempty"`
	} `json:"vehicle"`
	References []referenceItem `json:"references"`
}

// ReferencesCmd creates the citation lookup command.
func ReferencesCmd() *cobra.Command {
	var manualID string

	cmd := &cobra.Command{
		Use:   "refs <question>",
		Short: "Look up manual passages for a question without generating an answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := args[0]
			for _, a := range args[1:] {
				question += " " + a
			}
			return runReferences(question, manualID)
		},
	}

	cmd.Flags().StringVarP(&manualID, "manual", "m", "", "Restrict lookup to a single manual ID")

	return cmd
}

func runReferences(question, manualID string) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post("/query/references", askRequest{
		Query:    question,
		ManualID: manualID,
	})
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	var refs referencesResponse
	if err := json.Unmarshal(resp.Data, &refs); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if refs.Vehicle.Make != "" || refs.Vehicle.Year > 0 {
		fmt.Printf("Vehicle: %d %s %s\n\n", refs.Vehicle.Year, refs.Vehicle.Make, refs.Vehicle.Model)
	}

	if len(refs.References) == 0 {
		fmt.Println("No matching passages found.")
		return nil
	}

	for _, ref := range refs.References {
		kind := ""
		if ref.IsFigure {
			kind = " (figure)"
		}
		fmt.Printf("[%s] %s, p.%d%s\n", ref.Label, ref.ManualTitle, ref.Page, kind)
		if ref.Snippet != "" {
			fmt.Printf("    %s\n", ref.Snippet)
		}
		fmt.Printf("    %s\n", ref.DeepLink)
	}

	return nil
}
