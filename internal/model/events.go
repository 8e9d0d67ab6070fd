package model

// ValuationLog is one row of the valuation_logs table
type ValuationLog struct {
	SessionID      string     `db:"session_id"`
	City           string     `db:"city"`
	Locality       string     `db:"locality"`
	BHK            int        `db:"bhk"`
	Area           float64    `db:"area"`
	Furnishing     Furnishing `db:"furnishing"`
	FairRentLow    *float64   `db:"fair_rent_low"`
	FairRentHigh   *float64   `db:"fair_rent_high"`
	Outcome        string     `db:"outcome"`
	Error          *string    `db:"error"`
	ResponseTimeMs int        `db:"response_time_ms"`
}

// ChatLog is one row of the chat_logs table
type ChatLog struct {
	SessionID      string  `db:"session_id"`
	ExchangeID     string  `db:"exchange_id"`
	Outcome        string  `db:"outcome"`
	Error          *string `db:"error"`
	ResponseTimeMs int     `db:"response_time_ms"`
}
