package models

// CalendarMonth - сетка месяца для GET /api/calendar/{year}/{month}.
// Недели содержат номера дней; 0 - пустая ячейка.
type CalendarMonth struct {
	Year      int      `json:"year"`
	Month     int      `json:"month"`
	Title     string   `json:"title"`
	WeekStart string   `json:"weekStart"`
	Headers   []string `json:"headers"`
	Weeks     [][7]int `json:"weeks"`
	Selected  string   `json:"selected,omitempty"`
	// Events - события месяца по номеру дня.
	Events map[int][]Event `json:"events"`
}
