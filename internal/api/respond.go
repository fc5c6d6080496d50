package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// respondWithJSON is a helper function to write JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// recovererJSON converts panics anywhere in the request pipeline into a 500
// response carrying the panic text. This is the sole top-level failure
// containment for the webhook pipeline.
func recovererJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("Panic while handling %s %s: %v", r.Method, r.URL.Path, rec)
				respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{
					"error":   "internal server error",
					"details": fmt.Sprint(rec),
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
