// Package response writes the flat JSON wire shapes the dashboard and
// reporter consume. Success bodies are endpoint-specific objects; every
// failure body is {"error": "..."}.
package response

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Error string `json:"error"`
}

type successBody struct {
	Success bool `json:"success"`
}

// JSON writes v with a 200 status.
func JSON(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, v)
}

// Success writes the {"success": true} acknowledgement.
func Success(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

// Error writes {"error": message} with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
