package models

// InvocationPayload is the raw JSON payload accepted by every entry point.
// Date is an alias of TradingDate.
type InvocationPayload struct {
	Mode        string `json:"mode" query:"mode"`
	TradingDate string `json:"tradingDate" query:"tradingDate" validate:"omitempty,datetime=2006-01-02"`
	Date        string `json:"date" query:"date" validate:"omitempty,datetime=2006-01-02"`
	StartDate   string `json:"startDate" query:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string `json:"endDate" query:"endDate" validate:"omitempty,datetime=2006-01-02"`
}

// MoversRequest is the read API query. A zero Limit means the configured window size.
type MoversRequest struct {
	Limit int `query:"limit" json:"limit" validate:"omitempty,gte=1,lte=90"`
}
