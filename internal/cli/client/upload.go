package client

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// ManualResponse represents a manual returned by the API.
type ManualResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Year        int    `json:"year,omitempty"`
	Make        string `json:"make,omitempty"`
	Model       string `json:"model,omitempty"`
	VehicleType string `json:"vehicle_type,omitempty"`
	PageCount   int    `json:"page_count"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// UploadCmd creates the manual upload command.
func UploadCmd() *cobra.Command {
	var (
		title       string
		year        int
		vehicleMake string
		model       string
		vehicleType string
		ingest      bool
	)

	cmd := &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Upload a vehicle manual PDF",
		Long:  "Upload a PDF manual and register it for the authenticated owner.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(args[0], title, year, vehicleMake, model, vehicleType, ingest)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Manual title (defaults to file name)")
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Vehicle model year")
	cmd.Flags().StringVar(&vehicleMake, "make", "", "Vehicle make")
	cmd.Flags().StringVar(&model, "model", "", "Vehicle model")
	cmd.Flags().StringVar(&vehicleType, "type", "", "Vehicle type (e.g. SUV, sedan, truck)")
	cmd.Flags().BoolVar(&ingest, "ingest", false, "Start ingestion immediately after upload")

	return cmd
}

func runUpload(filePath, title string, year int, vehicleMake, model, vehicleType string, ingest bool) error {
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("cannot read %s: %w", filePath, err)
	}

	if title == "" {
		title = strings.TrimSuffix(filePath[strings.LastIndex(filePath, "/")+1:], ".pdf")
	}

	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	fields := map[string]string{
		"title":        title,
		"make":         vehicleMake,
		"model":        model,
		"vehicle_type": vehicleType,
	}
	if year > 0 {
		fields["year"] = strconv.Itoa(year)
	}

	fmt.Printf("Uploading %s...\n", filePath)
	resp, err := api.PostMultipart("/manuals", filePath, fields)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	var manual ManualResponse
	if err := json.Unmarshal(resp.Data, &manual); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Manual uploaded: %s\n", manual.ID)
	fmt.Printf("  Title: %s\n", manual.Title)
	if manual.Year > 0 {
		fmt.Printf("  Vehicle: %d %s %s\n", manual.Year, manual.Make, manual.Model)
	}
	fmt.Printf("  Status: %s\n", manual.Status)

	if ingest {
		fmt.Println("\nStarting ingestion (this can take a while for large manuals)...")
		return runIngest(manual.ID)
	}

	return nil
}
