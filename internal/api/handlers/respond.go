package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/radezheng/marco/internal/contracts"
)

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes a JSON error payload
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// parseDateParam reads an optional YYYY-MM-DD query parameter.
// 缺省返回 nil（表示"最新"），格式错误返回 ok=false。
func parseDateParam(r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, false
	}
	d := contracts.DateOf(t)
	return &d, true
}
