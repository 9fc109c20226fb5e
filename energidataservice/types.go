package energidataservice

// record mirrors one Elspotprices row. SpotPriceDKK is null whenever the
// exchange-rate dependent DKK series has not been filled in yet.
type record struct {
	HourUTC      string   `json:"HourUTC"`
	HourDK       string   `json:"HourDK"`
	PriceArea    string   `json:"PriceArea"`
	SpotPriceDKK *float64 `json:"SpotPriceDKK"`
	SpotPriceEUR *float64 `json:"SpotPriceEUR"`
}

type response struct {
	Total   int      `json:"total"`
	Limit   int      `json:"limit"`
	Dataset string   `json:"dataset"`
	Records []record `json:"records"`
}
