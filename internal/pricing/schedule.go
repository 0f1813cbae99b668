package pricing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Schedule is the rate configuration a price calculation runs against. It is
// treated as an immutable snapshot: callers fetch one from a Provider and
// pass it into Price explicitly, so historical recalculation can run with an
// arbitrary schedule.
type Schedule struct {
	HourlyRatePaise int64           `json:"hourly_rate_paise" yaml:"hourly_rate_paise"`
	GraceMinutes    int             `json:"grace_minutes" yaml:"grace_minutes"`
	BlockMinutes    int             `json:"block_minutes" yaml:"block_minutes"`
	NightChargeTime string          `json:"night_charge_time" yaml:"night_charge_time"` // "HH:MM", business-local
	NightMultiplier decimal.Decimal `json:"night_multiplier" yaml:"night_multiplier"`
}

func (s Schedule) Validate() error {
	if s.HourlyRatePaise <= 0 {
		return fmt.Errorf("hourly rate must be positive, got %d", s.HourlyRatePaise)
	}
	if s.GraceMinutes < 0 || s.GraceMinutes > 60 {
		return fmt.Errorf("grace minutes must be in [0, 60], got %d", s.GraceMinutes)
	}
	if s.BlockMinutes <= 0 || s.BlockMinutes > 120 {
		return fmt.Errorf("block minutes must be in (0, 120], got %d", s.BlockMinutes)
	}
	if _, _, err := s.nightClock(); err != nil {
		return err
	}
	one := decimal.NewFromInt(1)
	five := decimal.NewFromInt(5)
	if s.NightMultiplier.LessThan(one) || s.NightMultiplier.GreaterThan(five) {
		return fmt.Errorf("night multiplier must be in [1, 5], got %s", s.NightMultiplier)
	}
	return nil
}

// nightClock parses NightChargeTime into hour and minute.
func (s Schedule) nightClock() (hour, minute int, err error) {
	parts := strings.Split(s.NightChargeTime, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("night charge time must be HH:MM, got %q", s.NightChargeTime)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid night charge hour in %q", s.NightChargeTime)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid night charge minute in %q", s.NightChargeTime)
	}
	return hour, minute, nil
}

// halfRatePaise is the subsequent-block rate: half the hourly rate, rounded
// to the nearest paise.
func (s Schedule) halfRatePaise() int64 {
	return (s.HourlyRatePaise + 1) / 2
}
