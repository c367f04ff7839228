package property

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	currencyScale int32 = 2
	secondsPerDay       = 24 * 60 * 60
)

type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type Quote struct {
	Nights        int             `json:"nights"`
	PricePerNight decimal.Decimal `json:"pricePerNight"`
	Total         decimal.Decimal `json:"total"`
}

// QuoteStay prices a stay as whole nights between the calendar dates of
// checkIn and checkOut (UTC). Times of day are ignored.
func QuoteStay(pricePerNight decimal.Decimal, checkIn, checkOut time.Time) (Quote, error) {
	if pricePerNight.LessThan(decimal.Zero) {
		return Quote{}, ValidationError{Code: "PRICE_INVALID", Message: "price per night must be >= 0"}
	}
	nights := daysBetween(checkIn, checkOut)
	if nights < 1 {
		return Quote{}, ValidationError{Code: "STAY_INVALID", Message: "checkOut must be at least one night after checkIn"}
	}
	total := pricePerNight.Mul(decimal.NewFromInt(int64(nights))).Round(currencyScale)
	return Quote{Nights: nights, PricePerNight: pricePerNight.Round(currencyScale), Total: total}, nil
}

func daysBetween(from, to time.Time) int {
	f := time.Date(from.UTC().Year(), from.UTC().Month(), from.UTC().Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.UTC().Year(), to.UTC().Month(), to.UTC().Day(), 0, 0, 0, 0, time.UTC)
	// Unix seconds, not t.Sub: Duration saturates past ~292 years.
	return int((t.Unix() - f.Unix()) / secondsPerDay)
}
