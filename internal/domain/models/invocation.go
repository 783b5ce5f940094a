package models

// Mode selects one of the three run shapes.
type Mode string

const (
	ModeScheduled  Mode = "scheduled"
	ModeSingleDate Mode = "single-date"
	ModeBackfill   Mode = "backfill"
)

// Invocation is a validated payload. Exactly the fields of its Mode are set.
type Invocation struct {
	Mode        Mode
	TradingDate string // ModeSingleDate
	StartDate   string // ModeBackfill
	EndDate     string // ModeBackfill
}

func Scheduled() Invocation { return Invocation{Mode: ModeScheduled} }

func SingleDate(date string) Invocation {
	return Invocation{Mode: ModeSingleDate, TradingDate: date}
}

func Backfill(start, end string) Invocation {
	return Invocation{Mode: ModeBackfill, StartDate: start, EndDate: end}
}
