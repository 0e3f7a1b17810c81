package model

// Feedback is forwarded to the backend as-is; it is never stored here.
type Feedback struct {
	Zone                  string   `json:"zone" binding:"required"`
	Datetime              string   `json:"datetime" binding:"required"`
	PredictedOccupancy    *float64 `json:"predicted_occupancy"`
	PredictedAvailable    *int     `json:"predicted_available"`
	FoundParking          *bool    `json:"found_parking" binding:"required"`
	SearchDurationMinutes *int     `json:"search_duration_minutes,omitempty"`
}

type FeedbackAck struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	ThankYou string `json:"thank_you,omitempty"`
}

type ZoneFeedbackStats struct {
	Zone          string  `json:"zone"`
	TotalSearches int     `json:"total_searches"`
	Successful    float64 `json:"successful"`
	SuccessRate   float64 `json:"success_rate"`
}

type FeedbackStats struct {
	TotalFeedback      int                 `json:"total_feedback"`
	OverallSuccessRate float64             `json:"overall_success_rate,omitempty"`
	ByZone             []ZoneFeedbackStats `json:"by_zone,omitempty"`
	Message            string              `json:"message,omitempty"`
}
