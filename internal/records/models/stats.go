package models

import (
	"time"

	"github.com/google/uuid"
)

// DashboardStats summarises the three collections for the console landing page.
type DashboardStats struct {
	TotalFarmers      int         `json:"total_farmers"`
	TotalInspections  int         `json:"total_inspections"`
	PassedInspections int         `json:"passed_inspections"`
	FailedInspections int         `json:"failed_inspections"`
	PendingApprovals  int         `json:"pending_approvals"`
	VehicleCount      int         `json:"vehicle_count"`
	FarmersReached    int         `json:"farmers_reached"`
	VillagesCovered   int         `json:"villages_covered"`
	FarmerTrend       Trend       `json:"farmer_trend"`
	Gender            GenderSplit `json:"gender"`
	GeneratedAt       time.Time   `json:"generated_at"`
}

// Trend compares registrations this calendar month with the previous one.
type Trend struct {
	ThisMonth int     `json:"this_month"`
	LastMonth int     `json:"last_month"`
	Percent   float64 `json:"percent"`
}

type GenderSplit struct {
	Male   int `json:"male"`
	Female int `json:"female"`
	Other  int `json:"other"`
}

// Activity is one entry of the recent activity feed.
type Activity struct {
	ID        uuid.UUID  `json:"id"`
	Type      Collection `json:"type"`
	Title     string     `json:"title"`
	Detail    string     `json:"detail"`
	Status    string     `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
}
