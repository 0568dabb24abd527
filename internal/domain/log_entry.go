package domain

// PushMessage is one raw message delivered by the push channel.
type PushMessage struct {
	EventType string `json:"event_type"`
	Time      string `json:"time"`
}

// PushTimeLayout is the layout producers use for PushMessage.Time.
const PushTimeLayout = "2006-01-02 15:04:05.000"

// LogEntry is a display-ready live feed line.
type LogEntry struct {
	ID        string `json:"id"`
	Time      string `json:"time"`
	EventType string `json:"event_type"`
	Message   string `json:"message"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
}
