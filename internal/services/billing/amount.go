package billing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseRate reads a decimal rate. Anything that is not a number counts as 0
// so totals can always be computed.
func ParseRate(rate string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(rate))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// HoursFromEntry returns the time of a line item in fractional hours.
func HoursFromEntry(e InvoiceEntry) float64 {
	return e.To.Sub(e.From).Hours()
}

// CalculateEntryAmount returns hours times rate rounded to cents. Removed
// line items are worth exactly 0.
func CalculateEntryAmount(e InvoiceEntry) decimal.Decimal {
	if e.Removed() {
		return decimal.Zero
	}
	return amount(e.From, e.To, e.Rate)
}

// CalculateTotalFromEntries sums the amount of every line item.
func CalculateTotalFromEntries(entries []InvoiceEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(CalculateEntryAmount(e))
	}
	return total
}

// FormatQtyEntry renders the time of a line item as HH:MM. Minutes are
// rounded up so billable time is never under-reported.
func FormatQtyEntry(e InvoiceEntry) string {
	return formatQty(e.From, e.To)
}

// SetHoursAndMinutesFromEntry returns a copy of e ending hours and minutes
// after it starts.
func SetHoursAndMinutesFromEntry(e InvoiceEntry, hours, minutes int) InvoiceEntry {
	d := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	if d < 0 {
		d = 0
	}
	e.To = e.From.Add(d)
	return e
}

// ParseQty reads an HH:MM quantity. Missing or non-numeric parts are 0.
func ParseQty(value string) (hours, minutes int) {
	parts := strings.SplitN(value, ":", 2)
	hours, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
	if len(parts) == 2 {
		minutes, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	}
	return hours, minutes
}

func amount(from, to time.Time, rate string) decimal.Decimal {
	hours := decimal.NewFromFloat(to.Sub(from).Hours())
	return ParseRate(rate).Mul(hours).Round(2)
}

func formatQty(from, to time.Time) string {
	d := to.Sub(from)
	if d < 0 {
		d = 0
	}
	hours := int64(d / time.Hour)
	minutes := int64(math.Ceil((d % time.Hour).Minutes()))
	if minutes == 60 {
		hours++
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}
