package domain

import (
	"fmt"
	"strings"
)

// VehicleContext is the {year, make, model} extracted from a query and
// used to scope retrieval. Any field may be absent.
type VehicleContext struct {
	Year  int    `json:"year,omitempty"`
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
}

// IsEmpty reports whether no field was extracted.
func (v VehicleContext) IsEmpty() bool {
	return v.Year == 0 && v.Make == "" && v.Model == ""
}

// String renders the context for prompts and logs, e.g. "2019 Chevrolet Tahoe".
func (v VehicleContext) String() string {
	parts := make([]string, 0, 3)
	if v.Year != 0 {
		parts = append(parts, fmt.Sprintf("%d", v.Year))
	}
	if v.Make != "" {
		parts = append(parts, v.Make)
	}
	if v.Model != "" {
		parts = append(parts, v.Model)
	}
	return strings.Join(parts, " ")
}
