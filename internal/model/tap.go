package model

type Tap struct {
	ID             string  `json:"id"`
	VenueID        string  `json:"venue_id"`
	TapNumber      int     `json:"tap_number"`
	BeerID         string  `json:"beer_id"`
	Status         string  `json:"status"`
	OzRemaining    float64 `json:"oz_remaining"`
	LowThresholdOz float64 `json:"low_threshold_oz"`
	TempF          float64 `json:"temp_f"`
	TempOK         bool    `json:"temp_ok"`
	TempThresholdF float64 `json:"temp_threshold_f"`
}
