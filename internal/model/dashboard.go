package model

// DashboardMetrics summarizes tracking activity over a trailing window.
type DashboardMetrics struct {
	Days           int             `json:"days"`
	TotalProcesses int             `json:"total_processes"`
	NewProcesses   int             `json:"new_processes"`
	NewMovements   int             `json:"new_movements"`
	PreviousTotal  int             `json:"previous_total"`
	Priorities     []PriorityCount `json:"priorities"`
	DailyActivity  []DailyCount    `json:"daily_activity"`
}

// PriorityCount is the number of processes sharing a case-folded priority.
type PriorityCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// DailyCount is the number of movements discovered on one day (YYYY-MM-DD).
type DailyCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}
