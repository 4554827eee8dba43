package models

import "time"

// Observation is the bot's current view of the monitored location. It is
// replaced wholesale on every relevant inbound event.
type Observation struct {
	Location        string
	Temperature     float64
	PrevTemperature float64
	// LastPosted is the calendar date (YYYY-MM-DD) of the last successful
	// image post.
	LastPosted string
}

// WithLocation returns a copy of o for a new location.
func (o Observation) WithLocation(name string) Observation {
	o.Location = name
	return o
}

// WithDaily returns a copy of o carrying the latest forecast high and the
// previous day's high.
func (o Observation) WithDaily(temperature, prevTemperature float64) Observation {
	o.Temperature = temperature
	o.PrevTemperature = prevTemperature
	return o
}

// WithPosted returns a copy of o marking day as posted.
func (o Observation) WithPosted(day time.Time) Observation {
	o.LastPosted = day.Format(DateLayout)
	return o
}

// PostedOn reports whether an image was already posted on day.
func (o Observation) PostedOn(day time.Time) bool {
	return o.LastPosted == day.Format(DateLayout)
}
