package handlers

import (
	"encoding/json"
	"net/http"
)

// Tenant and user identity arrive on every request as headers set by the
// authenticating edge proxy.
const (
	HeaderCompanyID = "X-Company-ID"
	HeaderUserID    = "X-User-ID"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// RequireTenant extracts the company id header. Returns empty string and
// writes a 400 response when the header is missing.
func RequireTenant(w http.ResponseWriter, r *http.Request) string {
	companyID := r.Header.Get(HeaderCompanyID)
	if companyID == "" {
		WriteError(w, http.StatusBadRequest, "X-Company-ID header is required")
	}
	return companyID
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}
