package dto

// DayDTO renders a schedule resolution.
type DayDTO struct {
	Date         string `json:"date"`
	Weekday      string `json:"weekday"`
	Bookable     bool   `json:"bookable"`
	Reason       string `json:"reason,omitempty"`
	StartTime    string `json:"start_time,omitempty"`
	EndTime      string `json:"end_time,omitempty"`
	SlotDuration int    `json:"slot_duration,omitempty"`
}
