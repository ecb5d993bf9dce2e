package gammaapi

// Market represents a Gamma API market
type Market struct {
	ID               string  `json:"id"`
	ConditionID      string  `json:"conditionId"`
	Slug             string  `json:"slug"`
	Question         string  `json:"question"`
	Description      string  `json:"description"`
	ResolutionSource string  `json:"resolutionSource"`
	StartDate        string  `json:"startDate"`
	EndDate          string  `json:"endDate"`
	CreatedAt        string  `json:"createdAt"`
	Category         string  `json:"category"`
	VolumeNum        float64 `json:"volumeNum"`
	LiquidityNum     float64 `json:"liquidityNum"`
	Active           bool    `json:"active"`
	Closed           bool    `json:"closed"`
	Outcomes         string  `json:"outcomes"`      // JSON encoded, e.g. "[\"Yes\", \"No\"]"
	OutcomePrices    string  `json:"outcomePrices"` // JSON encoded, e.g. "[\"0.02\", \"0.98\"]"
}
