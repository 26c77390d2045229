package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// ManualListResponse represents the manual list API response.
type ManualListResponse struct {
	Items   []ManualResponse `json:"items"`
	Cursor  string           `json:"cursor,omitempty"`
	HasMore bool             `json:"has_more"`
}

// ListCmd creates the manual list command.
func ListCmd() *cobra.Command {
	var (
		limit      int
		cursor     string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List uploaded manuals",
		Long:  "Lists the authenticated owner's manuals with their processing status.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(limit, cursor, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output raw JSON")

	return cmd
}

func runList(limit int, cursor string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	resp, err := api.Get("/manuals?" + query.Encode())
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var listResp ManualListResponse
	if err := json.Unmarshal(resp.Data, &listResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(listResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(listResp.Items) == 0 {
		fmt.Println("No manuals found.")
		return nil
	}

	for _, m := range listResp.Items {
		vehicle := ""
		if m.Year > 0 || m.Make != "" {
			vehicle = fmt.Sprintf(" (%d %s %s)", m.Year, m.Make, m.Model)
		}
		fmt.Printf("  %s: %s%s [%s, %d pages]\n", m.ID, m.Title, vehicle, m.Status, m.PageCount)
	}

	if listResp.HasMore && listResp.Cursor != "" {
		fmt.Printf("\nMore results available. Use --cursor %s\n", listResp.Cursor)
	}

	return nil
}
