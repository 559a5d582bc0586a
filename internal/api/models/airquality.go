package models

import (
	"time"

	"github.com/asthmaguardian/asthmaguardian/internal/airquality"
)

// HistoryResponse is the payload for a time-ranged reading query.
type HistoryResponse struct {
	Postcode  string                `json:"postcode"`
	StartDate string                `json:"start_date"`
	EndDate   string                `json:"end_date"`
	Count     int                   `json:"count"`
	Readings  []*airquality.Reading `json:"readings"`
}

// DayResponse is the payload for a whole-day listing across postcodes.
type DayResponse struct {
	Date     string                `json:"date"`
	Count    int                   `json:"count"`
	Readings []*airquality.Reading `json:"readings"`
}

// Health is the liveness payload.
type Health struct {
	Status  string         `json:"status"`
	Time    time.Time      `json:"time"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthStatusOK is the healthy status value.
const HealthStatusOK = "ok"
