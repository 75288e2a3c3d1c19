/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the store's records from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/warp/mdf-accruals/store/sqlite"
)

// RunDTO is one report-generation run as reported to clients.
type RunDTO struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	InputRows   int    `json:"input_rows"`
	OutputRows  int    `json:"output_rows"`
	OutputName  string `json:"output_name,omitempty"`
	Error       string `json:"error,omitempty"`
}

// HealthDTO is the liveness response.
type HealthDTO struct {
	Status      string `json:"status"`
	AccrualYear int    `json:"accrual_year"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toRunDTO(run sqlite.Run) RunDTO {
	dto := RunDTO{
		ID:         run.ID,
		Status:     string(run.Status),
		StartedAt:  run.StartedAt.Format(time.RFC3339),
		InputRows:  run.InputRows,
		OutputRows: run.OutputRows,
		OutputName: run.OutputPath,
		Error:      run.Error,
	}
	if run.CompletedAt != nil {
		dto.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}
	return dto
}

func toRunDTOs(runs []sqlite.Run) []RunDTO {
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	return dtos
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
