package handlers

import (
	"net/http"
	"time"
)

// GetWeather serves current conditions for the dashboard widget. Failures
// degrade to a placeholder rather than erroring the dashboard.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	if h.Weather == nil {
		respondData(w, http.StatusOK, map[string]interface{}{
			"summary":     "Weather unavailable",
			"lastUpdated": time.Now().UTC(),
		})
		return
	}

	weather, err := h.Weather.Current(r.Context())
	if err != nil {
		respondData(w, http.StatusOK, map[string]interface{}{
			"summary":     "Weather unavailable",
			"lastUpdated": time.Now().UTC(),
		})
		return
	}
	respondData(w, http.StatusOK, weather)
}
