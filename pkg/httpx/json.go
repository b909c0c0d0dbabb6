package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
)

// MessagePayload is the body of every JSON action response.
type MessagePayload struct {
	Message string `json:"message"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write json response")
	}
}

// WriteMessage writes {"message": msg}.
func WriteMessage(w http.ResponseWriter, statusCode int, msg string) {
	WriteJSON(w, statusCode, MessagePayload{Message: msg})
}

// WriteRetryAfter writes a 429 message with a Retry-After header.
func WriteRetryAfter(w http.ResponseWriter, msg string, retryAfterSec int) {
	if retryAfterSec > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	}
	WriteMessage(w, http.StatusTooManyRequests, msg)
}
