package domain

// EventNewLog is the only live event type.
const EventNewLog = "new-log"

// LiveEvent announces a freshly persisted entry together with the day
// bucket it belongs to.
type LiveEvent struct {
	Entry    *Entry `json:"entry"`
	DayLabel string `json:"dayLabel"`
}
