package handlers

import (
	"net/http"
)

// CheckWeather handles POST /flights/{id}/weather-check.
// It fetches current weather for the departure airport, evaluates it against the
// student's minimums and cancels the flight when unsafe.
func (h *Handlers) CheckWeather(w http.ResponseWriter, r *http.Request) {
	flightID, ok := h.pathID(w, r, "flight")
	if !ok {
		return
	}

	res, err := h.engine.CheckWeatherForFlight(r.Context(), flightID)
	if err != nil {
		h.fail(w, r, "weather check", err)
		return
	}
	h.respondJson(w, http.StatusOK, toAPICheckResult(flightID.String(), res))
}

// LatestWeatherCheck handles GET /flights/{id}/weather-checks/latest.
func (h *Handlers) LatestWeatherCheck(w http.ResponseWriter, r *http.Request) {
	flightID, ok := h.pathID(w, r, "flight")
	if !ok {
		return
	}

	check, err := h.reader.GetLatestWeatherCheck(r.Context(), flightID)
	if err != nil {
		if isNotFound(err) {
			h.httpError(w, "No weather check for flight", http.StatusNotFound)
			return
		}
		h.fail(w, r, "latest weather check", err)
		return
	}
	h.respondJson(w, http.StatusOK, toAPIWeatherCheck(check))
}

// WeatherBriefing handles GET /flights/{id}/weather-briefing.
func (h *Handlers) WeatherBriefing(w http.ResponseWriter, r *http.Request) {
	flightID, ok := h.pathID(w, r, "flight")
	if !ok {
		return
	}

	b, err := h.engine.WeatherBriefing(r.Context(), flightID)
	if err != nil {
		h.fail(w, r, "weather briefing", err)
		return
	}
	h.respondJson(w, http.StatusOK, toAPIBriefing(b))
}

// GenerateOptions handles POST /flights/{id}/reschedule-options.
func (h *Handlers) GenerateOptions(w http.ResponseWriter, r *http.Request) {
	flightID, ok := h.pathID(w, r, "flight")
	if !ok {
		return
	}

	req, err := h.engine.GenerateRescheduleOptions(r.Context(), flightID)
	if err != nil {
		h.fail(w, r, "generate reschedule options", err)
		return
	}
	h.respondJson(w, http.StatusCreated, toAPIRequest(req))
}
