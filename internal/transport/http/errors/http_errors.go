package errors

import (
	"encoding/json"
	"net/http"
)

type APIError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type RateLimitError struct {
	Success       bool   `json:"success"`
	Error         string `json:"error"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

func NewAPIError(message string) APIError {
	return APIError{Success: false, Error: message}
}

func NewRateLimitError(message string, retryAfterSec int64) RateLimitError {
	return RateLimitError{Success: false, Error: message, RetryAfterSec: retryAfterSec}
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
