package models

// LocationUpdate is the payload of the location feed.
type LocationUpdate struct {
	CityName string `json:"city_name" validate:"required"`
}

// DailyUpdate is the payload of the daily feed. Pointers distinguish a
// missing field from a zero reading.
type DailyUpdate struct {
	Temperature     *float64 `json:"temperature" validate:"required"`
	PrevTemperature *float64 `json:"prev_temperature" validate:"required"`
}

// HistoricalPayload is published, retained, on the history feed.
type HistoricalPayload struct {
	Historical DaySeries `json:"historical"`
}

// TopicQuery is the payload of the twitter query feed.
type TopicQuery struct {
	Q1 string `json:"q1"`
	Q2 string `json:"q2"`
}

// TopicSentiment is one element of the sentiment feed payload.
type TopicSentiment struct {
	Topic    string             `json:"topic"`
	Emotions map[string]float64 `json:"emotions"`
}
