package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	defaultMinLead    = 24 * time.Hour
	defaultMaxHorizon = 30 * 24 * time.Hour
)

// StoreLayout is the textual form of every date written to the appointment table:
// UTC, second precision, fixed width, so string order matches time order.
const StoreLayout = "2006-01-02T15:04:05Z"

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

type Config struct {
	Timezone             string        `default:"UTC"`
	MinLeadTime          time.Duration `split_words:"true" default:"24h"`
	MaxHorizon           time.Duration `split_words:"true" default:"720h"`
	CancellationLeadTime time.Duration `split_words:"true" default:"24h"`
	SlotMinutes          []int         `split_words:"true" default:"0,30"`
	StoreTimeout         time.Duration `split_words:"true" default:"5s"`
}

func (c *Config) Validate() error {
	if _, err := time.LoadLocation(strings.TrimSpace(c.Timezone)); err != nil {
		return fmt.Errorf("invalid booking timezone %q: %w", c.Timezone, err)
	}
	if c.MinLeadTime < 0 || c.CancellationLeadTime < 0 {
		return errors.New("lead times must be >= 0")
	}
	if c.MaxHorizon <= c.MinLeadTime {
		return errors.New("max horizon must be greater than min lead time")
	}
	if len(c.SlotMinutes) == 0 {
		return errors.New("at least one slot minute is required")
	}
	for _, m := range c.SlotMinutes {
		if m < 0 || m > 59 {
			return fmt.Errorf("slot minute %d out of range", m)
		}
	}
	return nil
}

// Policy holds the scheduling rules. Windows are open on both ends: a date is
// valid only when now+MinLead < d < now+MaxHorizon, and a cancellation is too late
// when scheduled-CancellationLead <= now.
type Policy struct {
	loc        *time.Location
	minLead    time.Duration
	maxHorizon time.Duration
	cancelLead time.Duration
	slots      map[int]bool
}

func DefaultPolicy() *Policy {
	return &Policy{
		loc:        time.UTC,
		minLead:    defaultMinLead,
		maxHorizon: defaultMaxHorizon,
		cancelLead: defaultMinLead,
		slots:      map[int]bool{0: true, 30: true},
	}
}

func NewPolicy(cfg Config) (*Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, _ := time.LoadLocation(strings.TrimSpace(cfg.Timezone))

	slots := make(map[int]bool, len(cfg.SlotMinutes))
	for _, m := range cfg.SlotMinutes {
		slots[m] = true
	}
	return &Policy{
		loc:        loc,
		minLead:    cfg.MinLeadTime,
		maxHorizon: cfg.MaxHorizon,
		cancelLead: cfg.CancellationLeadTime,
		slots:      slots,
	}, nil
}

func (p *Policy) Location() *time.Location {
	return p.loc
}

// ParseDate accepts RFC3339 or an offset-less local datetime, which is read in the
// policy timezone.
func (p *Policy) ParseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, newError(KindMalformedInput, "Appointment date is required.")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.In(p.loc), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, p.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, newError(KindMalformedInput,
		"Invalid date format: %q is not an ISO-8601 datetime (expected e.g. 2006-01-02T15:04:00Z).", value)
}

func (p *Policy) ValidateSchedule(d, now time.Time) error {
	earliest := now.Add(p.minLead)
	latest := now.Add(p.maxHorizon)
	if !d.After(earliest) || !d.Before(latest) {
		return newError(KindInvalidSchedule,
			"Appointment date must be more than %s in the future and within the next %s.",
			humanDuration(p.minLead), humanDuration(p.maxHorizon))
	}
	if !p.slots[d.In(p.loc).Minute()] || d.Second() != 0 || d.Nanosecond() != 0 {
		return newError(KindInvalidSchedule, "Appointments can only be booked at %s.", p.slotDescription())
	}
	return nil
}

func (p *Policy) ValidateCancellation(scheduled, now time.Time) error {
	if !scheduled.Add(-p.cancelLead).After(now) {
		return newError(KindCancellationTooLate,
			"Appointments can only be cancelled at least %s in advance.", humanDuration(p.cancelLead))
	}
	return nil
}

// FormatStore renders t in StoreLayout.
func FormatStore(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(StoreLayout)
}

// ParseStore reads a date written with FormatStore. Any other form is rejected,
// since active-appointment queries compare the stored text lexically.
func ParseStore(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	t, err := time.Parse(StoreLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored date %q: %w", value, err)
	}
	return t, nil
}

func (p *Policy) slotDescription() string {
	if len(p.slots) == 2 && p.slots[0] && p.slots[30] {
		return "full or half-hour intervals"
	}
	mins := make([]string, 0, len(p.slots))
	for m := 0; m < 60; m++ {
		if p.slots[m] {
			mins = append(mins, fmt.Sprintf(":%02d", m))
		}
	}
	return "minutes " + strings.Join(mins, ", ")
}

func humanDuration(d time.Duration) string {
	const day = 24 * time.Hour
	switch {
	case d >= 2*day && d%day == 0:
		return fmt.Sprintf("%d days", d/day)
	case d%time.Hour == 0:
		h := d / time.Hour
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	default:
		return d.String()
	}
}
