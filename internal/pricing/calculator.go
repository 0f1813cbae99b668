package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"rentaldesk-backend/internal/domain"
)

// Quote is the result of pricing a start/end pair against a schedule.
type Quote struct {
	AmountPaise  int64                 `json:"amount_paise"`
	Breakdown    []domain.PricingBlock `json:"breakdown"`
	TotalMinutes int                   `json:"total_minutes"`
}

// Price converts a start/end timestamp pair into a money amount under the
// given schedule. It is a pure function: no clock reads, no I/O, identical
// output for identical input.
//
// The first block spans 60 + grace minutes at the full hourly rate, charged
// in full regardless of how much of it was used. Every subsequent block spans
// BlockMinutes at half rate, also charged in full when partially used. A
// block is surcharged with the night multiplier when its nominal span
// contains the night-charge instant of the block's start day.
//
// end before start is clamped to zero duration, never an error: callers pass
// "now" as a provisional end for active rentals.
func Price(start, end time.Time, s Schedule) Quote {
	if end.Before(start) {
		end = start
	}
	totalMinutes := int(end.Sub(start) / time.Minute)
	if totalMinutes <= 0 {
		return Quote{AmountPaise: 0, Breakdown: nil, TotalMinutes: 0}
	}

	nightHour, nightMinute, err := s.nightClock()
	if err != nil {
		// Validated schedules cannot reach this; fall back to no surcharge.
		nightHour, nightMinute = -1, -1
	}

	firstBlockMinutes := 60 + s.GraceMinutes
	halfRate := s.halfRatePaise()

	var (
		amount    int64
		breakdown []domain.PricingBlock
	)

	offset := 0
	for offset < totalMinutes {
		blockMinutes := s.BlockMinutes
		rate := halfRate
		if offset == 0 {
			blockMinutes = firstBlockMinutes
			rate = s.HourlyRatePaise
		}

		blockStart := start.Add(time.Duration(offset) * time.Minute)
		blockEnd := blockStart.Add(time.Duration(blockMinutes) * time.Minute)

		consumed := totalMinutes - offset
		if consumed > blockMinutes {
			consumed = blockMinutes
		}

		night := overlapsNightCharge(blockStart, blockEnd, nightHour, nightMinute)
		charge := rate
		if night {
			charge = mulRound(rate, s.NightMultiplier)
		}

		breakdown = append(breakdown, domain.PricingBlock{
			Start:         blockStart,
			End:           blockEnd,
			Minutes:       consumed,
			RatePaise:     rate,
			ChargePaise:   charge,
			IsNightCharge: night,
		})
		amount += charge
		offset += blockMinutes
	}

	return Quote{AmountPaise: amount, Breakdown: breakdown, TotalMinutes: totalMinutes}
}

// Adjusted applies the discount/extra-charge layer on top of a tiered amount.
// Adjustments compose after the calculation, never inside it, and the result
// is clamped at zero.
func Adjusted(amountPaise, discountPaise, additionalPaise int64) int64 {
	adjusted := amountPaise - discountPaise + additionalPaise
	if adjusted < 0 {
		return 0
	}
	return adjusted
}

// overlapsNightCharge reports whether the night-charge instant on the block's
// start day falls within [blockStart, blockEnd]. Evaluated per block: one
// rental can mix day-rate and night-rate blocks.
func overlapsNightCharge(blockStart, blockEnd time.Time, hour, minute int) bool {
	if hour < 0 {
		return false
	}
	threshold := time.Date(
		blockStart.Year(), blockStart.Month(), blockStart.Day(),
		hour, minute, 0, 0, blockStart.Location(),
	)
	return !blockStart.After(threshold) && !blockEnd.Before(threshold)
}

// mulRound multiplies an integer paise amount by a decimal factor, rounding
// to the nearest paise exactly once.
func mulRound(paise int64, factor decimal.Decimal) int64 {
	return decimal.NewFromInt(paise).Mul(factor).Round(0).IntPart()
}
