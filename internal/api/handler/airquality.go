// Package handler provides HTTP handlers for the read API.
package handler

import (
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/asthmaguardian/asthmaguardian/internal/api/models"
	"github.com/asthmaguardian/asthmaguardian/internal/api/response"
	"github.com/asthmaguardian/asthmaguardian/internal/store"
)

var postcodePattern = regexp.MustCompile(`^\d{4}$`)

const dateLayout = "2006-01-02"

// AirQualityHandler serves stored readings.
type AirQualityHandler struct {
	store store.Store
}

// NewAirQualityHandler creates a new AirQualityHandler.
func NewAirQualityHandler(s store.Store) *AirQualityHandler {
	return &AirQualityHandler{store: s}
}

// Current handles GET /v1/air-quality/current?postcode= - the most recent
// reading for one location.
func (h *AirQualityHandler) Current(w http.ResponseWriter, r *http.Request) {
	postcode := r.URL.Query().Get("postcode")
	if !postcodePattern.MatchString(postcode) {
		response.BadRequest(w, r, "postcode must be a four-digit NSW postcode")
		return
	}

	reading, err := h.store.Latest(r.Context(), postcode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(w, r, "no reading recorded for postcode "+postcode)
			return
		}
		response.InternalError(w, r, "failed to load reading")
		return
	}

	response.JSON(w, r, http.StatusOK, reading)
}

// History handles GET /v1/air-quality/history?postcode=&start_date=&end_date=
// - readings for one location across a date range, oldest first.
func (h *AirQualityHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	postcode := q.Get("postcode")
	if !postcodePattern.MatchString(postcode) {
		response.BadRequest(w, r, "postcode must be a four-digit NSW postcode")
		return
	}

	// Defaults cover the full retention window ending today.
	endDate := time.Now().UTC().Truncate(24 * time.Hour)
	startDate := endDate.AddDate(0, 0, -7)

	var err error
	if s := q.Get("start_date"); s != "" {
		if startDate, err = time.ParseInLocation(dateLayout, s, time.UTC); err != nil {
			response.BadRequest(w, r, "start_date must be formatted YYYY-MM-DD")
			return
		}
	}
	if s := q.Get("end_date"); s != "" {
		if endDate, err = time.ParseInLocation(dateLayout, s, time.UTC); err != nil {
			response.BadRequest(w, r, "end_date must be formatted YYYY-MM-DD")
			return
		}
	}
	if endDate.Before(startDate) {
		response.BadRequest(w, r, "end_date must not precede start_date")
		return
	}

	// The end bound is inclusive of the whole end day.
	readings, err := h.store.Range(r.Context(), postcode, startDate, endDate.AddDate(0, 0, 1).Add(-time.Nanosecond))
	if err != nil {
		response.InternalError(w, r, "failed to load readings")
		return
	}

	response.JSON(w, r, http.StatusOK, models.HistoryResponse{
		Postcode:  postcode,
		StartDate: startDate.Format(dateLayout),
		EndDate:   endDate.Format(dateLayout),
		Count:     len(readings),
		Readings:  readings,
	})
}

// Day handles GET /v1/air-quality/day?date= - every reading recorded on
// one UTC calendar day, across all locations.
func (h *AirQualityHandler) Day(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format(dateLayout)
	} else if _, err := time.ParseInLocation(dateLayout, date, time.UTC); err != nil {
		response.BadRequest(w, r, "date must be formatted YYYY-MM-DD")
		return
	}

	readings, err := h.store.ListForDay(r.Context(), date)
	if err != nil {
		response.InternalError(w, r, "failed to load readings")
		return
	}

	response.JSON(w, r, http.StatusOK, models.DayResponse{
		Date:     date,
		Count:    len(readings),
		Readings: readings,
	})
}
