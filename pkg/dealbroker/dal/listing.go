package dal

import (
	"fmt"
	"math"
)

// Listing defines a deal or demo vehicle with its lease terms
type Listing struct {
	ID          int64    `json:"id"`
	Make        string   `json:"make" validate:"required,max=50"`
	Model       string   `json:"model" validate:"required,max=50"`
	Year        int      `json:"year" validate:"gte=1900,lte=2100"`
	ImageURL    string   `json:"image_url"`
	LeasePrice  float64  `json:"lease_price" validate:"gte=0"`
	Term        int      `json:"term" validate:"gt=0"`
	DownPayment float64  `json:"down_payment" validate:"gte=0"`
	Mileage     int      `json:"mileage" validate:"gte=0"`
	MSRP        float64  `json:"msrp" validate:"gte=0"`
	Savings     *float64 `json:"savings,omitempty" validate:"omitempty,gte=0"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,dive,required"`
	Description string   `json:"description,omitempty"`
}

// Clone returns a copy that shares no memory with l.
func (l Listing) Clone() Listing {
	c := l
	if l.Savings != nil {
		s := *l.Savings
		c.Savings = &s
	}
	if l.Tags != nil {
		c.Tags = append([]string(nil), l.Tags...)
	}
	return c
}

// SavingsBadge returns the "Save $X" label. A missing or zero savings value
// yields no badge; zero is still a legitimate stored value.
func (l Listing) SavingsBadge() (string, bool) {
	if l.Savings == nil || *l.Savings <= 0 {
		return "", false
	}
	return "Save " + FormatDollars(*l.Savings), true
}

// Title is the "<year> <make> <model>" heading used on cards and in logs.
func (l Listing) Title() string {
	return fmt.Sprintf("%d %s %s", l.Year, l.Make, l.Model)
}

// Savings is a helper for building listings with an advertised discount.
func Savings(v float64) *float64 {
	return &v
}

// FormatDollars renders whole dollar amounts without decimals and
// anything else with cents.
func FormatDollars(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("$%.0f", v)
	}
	return fmt.Sprintf("$%.2f", v)
}
