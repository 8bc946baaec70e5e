package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultStoreTimeout = 5 * time.Second

type CheckRequest struct {
	SubscriptionID string `json:"subscription_id"`
}

type CreateRequest struct {
	SubscriptionID  string `json:"subscription_id"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentType string `json:"appointment_type"`
}

type ModifyRequest struct {
	SubscriptionID     string `json:"subscription_id"`
	NewAppointmentDate string `json:"new_appointment_date"`
	NewAppointmentType string `json:"new_appointment_type"`
}

type CancelRequest struct {
	SubscriptionID string `json:"subscription_id"`
}

// CheckPayload is the success payload of CheckAppointments.
type CheckPayload struct {
	SubscriptionID string        `json:"subscription_id"`
	Appointments   []Appointment `json:"appointments"`
}

// ChangePayload is the success payload of create, modify and cancel.
type ChangePayload struct {
	SubscriptionID  string `json:"subscription_id"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentType string `json:"appointment_type,omitempty"`
}

// Engine validates and applies appointment operations. It holds no appointment
// state of its own: every call re-reads the store.
type Engine struct {
	store    Store
	policy   *Policy
	locks    *keyedLocker
	notifier Notifier
	timeout  time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

func WithStoreTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

func NewEngine(store Store, policy *Policy, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("appointment store is required")
	}
	if policy == nil {
		policy = DefaultPolicy()
	}

	e := &Engine{
		store:    store,
		policy:   policy,
		locks:    newKeyedLocker(),
		notifier: noopNotifier{},
		timeout:  defaultStoreTimeout,
		now:      time.Now,
		log:      log.Logger.With().Str("component", "booking").Logger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Now returns the engine clock in the policy timezone.
func (e *Engine) Now() time.Time {
	return e.now().In(e.policy.Location())
}

func (e *Engine) CheckAppointments(ctx context.Context, req CheckRequest) Result {
	return e.run(ctx, "check", req.SubscriptionID, false, func(ctx context.Context, subID string, _ time.Time) (Result, error) {
		records, err := e.store.ListBySubscription(ctx, subID)
		if err != nil {
			return Result{}, storeError("list appointments", err)
		}
		out := make([]Appointment, 0, len(records))
		for _, r := range records {
			out = append(out, e.localize(r))
		}

		message := fmt.Sprintf("Found %d appointment(s).", len(out))
		if len(out) == 0 {
			message = "No appointments found."
		}
		return success(message, CheckPayload{SubscriptionID: subID, Appointments: out}), nil
	})
}

func (e *Engine) CreateAppointment(ctx context.Context, req CreateRequest) Result {
	now := e.Now()
	scheduledAt, err := e.validateCandidate(req.AppointmentDate, now)
	if err != nil {
		return e.reject("create", req.SubscriptionID, err)
	}
	apptType := strings.TrimSpace(req.AppointmentType)

	return e.run(ctx, "create", req.SubscriptionID, true, func(ctx context.Context, subID string, now time.Time) (Result, error) {
		created, err := e.store.CreateIfNoActive(ctx, Appointment{
			SubscriptionID:  subID,
			CreatedAt:       now,
			ScheduledAt:     scheduledAt,
			AppointmentType: apptType,
		}, now)
		if errors.Is(err, ErrActiveExists) {
			return Result{}, newError(KindConflictActiveAppointment,
				"User already has an active appointment and cannot book another.")
		}
		if err != nil {
			return Result{}, storeError("create appointment", err)
		}

		e.notify(ctx, newEvent(EventCreated, subID, created.ScheduledAt, apptType, now))
		return success("Appointment created successfully.", ChangePayload{
			SubscriptionID:  subID,
			AppointmentDate: e.formatLocal(created.ScheduledAt),
			AppointmentType: apptType,
		}), nil
	})
}

// ModifyAppointment moves the subscription's active appointment. When there is
// nothing active to update the result is NotFound.
func (e *Engine) ModifyAppointment(ctx context.Context, req ModifyRequest) Result {
	now := e.Now()
	scheduledAt, err := e.validateCandidate(req.NewAppointmentDate, now)
	if err != nil {
		return e.reject("modify", req.SubscriptionID, err)
	}
	apptType := strings.TrimSpace(req.NewAppointmentType)

	return e.run(ctx, "modify", req.SubscriptionID, true, func(ctx context.Context, subID string, now time.Time) (Result, error) {
		n, err := e.store.UpdateActive(ctx, subID, now, scheduledAt, apptType)
		if err != nil {
			return Result{}, storeError("update appointment", err)
		}
		if n == 0 {
			return Result{}, newError(KindNotFound, "No active appointment found for subscription_id %s.", subID)
		}

		e.notify(ctx, newEvent(EventModified, subID, scheduledAt, apptType, now))
		return success("Appointment modified successfully.", ChangePayload{
			SubscriptionID:  subID,
			AppointmentDate: e.formatLocal(scheduledAt),
			AppointmentType: apptType,
		}), nil
	})
}

func (e *Engine) CancelAppointment(ctx context.Context, req CancelRequest) Result {
	return e.run(ctx, "cancel", req.SubscriptionID, true, func(ctx context.Context, subID string, now time.Time) (Result, error) {
		active, err := e.store.ListActive(ctx, subID, now)
		if err != nil {
			return Result{}, storeError("fetch active appointment", err)
		}
		if len(active) == 0 {
			return Result{}, newError(KindNotFound, "No appointment found with subscription_id %s.", subID)
		}

		next := active[0]
		for _, a := range active[1:] {
			if a.ScheduledAt.Before(next.ScheduledAt) {
				next = a
			}
		}
		if err := e.policy.ValidateCancellation(next.ScheduledAt, now); err != nil {
			return Result{}, err
		}

		n, err := e.store.DeleteActive(ctx, subID, now)
		if err != nil {
			return Result{}, storeError("delete appointment", err)
		}
		if n == 0 {
			return Result{}, newError(KindNotFound, "No appointment found with subscription_id %s.", subID)
		}

		e.notify(ctx, newEvent(EventCancelled, subID, next.ScheduledAt, next.AppointmentType, now))
		return success("Appointment cancelled successfully.", ChangePayload{
			SubscriptionID:  subID,
			AppointmentDate: e.formatLocal(next.ScheduledAt),
			AppointmentType: next.AppointmentType,
		}), nil
	})
}

func (e *Engine) validateCandidate(raw string, now time.Time) (time.Time, error) {
	d, err := e.policy.ParseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	if err := e.policy.ValidateSchedule(d, now); err != nil {
		return time.Time{}, err
	}
	return d, nil
}

type opFunc func(ctx context.Context, subscriptionID string, now time.Time) (Result, error)

// run applies the shared boundary: input check, bounded timeout, optional
// per-subscription lock, and conversion of every failure into a Result.
func (e *Engine) run(ctx context.Context, op string, rawSubID string, exclusive bool, fn opFunc) (res Result) {
	subID := strings.TrimSpace(rawSubID)
	if subID == "" {
		return e.reject(op, rawSubID, newError(KindMalformedInput, "subscription_id is required."))
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("op", op).Str("subscription_id", subID).Interface("panic", r).Msg("booking operation panicked")
			res = failure(storeError(op, fmt.Errorf("panic: %v", r)))
		}
	}()

	if exclusive {
		unlock, err := e.locks.Lock(ctx, subID)
		if err != nil {
			return e.reject(op, subID, storeError("acquire subscription lock", err))
		}
		defer unlock()
	}

	out, err := fn(ctx, subID, e.Now())
	if err != nil {
		return e.reject(op, subID, err)
	}

	e.log.Info().Str("op", op).Str("subscription_id", subID).Msg(out.Message)
	return out
}

func (e *Engine) reject(op, subID string, err error) Result {
	res := failure(err)
	ev := e.log.Info()
	if res.Kind == KindStoreUnavailable {
		ev = e.log.Error()
	}
	ev.Err(err).
		Str("op", op).
		Str("subscription_id", strings.TrimSpace(subID)).
		Str("kind", string(res.Kind)).
		Msg("booking operation rejected")
	return res
}

func (e *Engine) notify(ctx context.Context, evt Event) {
	if err := e.notifier.Notify(ctx, evt); err != nil {
		e.log.Warn().Err(err).
			Str("event", string(evt.Type)).
			Str("subscription_id", evt.SubscriptionID).
			Msg("booking event not published")
	}
}

func (e *Engine) localize(a Appointment) Appointment {
	a.CreatedAt = a.CreatedAt.In(e.policy.Location())
	a.ScheduledAt = a.ScheduledAt.In(e.policy.Location())
	return a
}

func (e *Engine) formatLocal(t time.Time) string {
	return t.In(e.policy.Location()).Format(time.RFC3339)
}

func storeError(action string, err error) *Error {
	return &Error{
		Kind:    KindStoreUnavailable,
		Message: storeUnavailableMessage,
		Cause:   fmt.Errorf("%s: %w", action, err),
	}
}
