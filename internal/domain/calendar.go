package domain

type Reminder struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

// CalendarEvent is an all-day deadline reminder. Start and End are YYYY-MM-DD dates.
type CalendarEvent struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Start       string     `json:"start"`
	End         string     `json:"end"`
	Reminders   []Reminder `json:"reminders"`
	Link        string     `json:"link,omitempty"`
}
