package models

// DashboardStats holds the aggregate counts shown on the admin dashboard.
// The counts are computed independently and may reflect different instants.
type DashboardStats struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Sold      int64 `json:"sold"`
	Inquiries int64 `json:"inquiries"`
}
