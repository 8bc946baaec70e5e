package booking

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeStore struct {
	mu     sync.Mutex
	rows   []Appointment
	nextID int64
	err    error
	delay  time.Duration
}

func (f *fakeStore) wait(ctx context.Context) error {
	if f.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeStore) ListBySubscription(ctx context.Context, sub string) ([]Appointment, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []Appointment
	for _, r := range f.rows {
		if r.SubscriptionID == sub {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (f *fakeStore) ListActive(ctx context.Context, sub string, now time.Time) ([]Appointment, error) {
	all, err := f.ListBySubscription(ctx, sub)
	if err != nil {
		return nil, err
	}
	var out []Appointment
	for _, r := range all {
		if r.Active(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateIfNoActive(ctx context.Context, appt Appointment, now time.Time) (Appointment, error) {
	if err := f.wait(ctx); err != nil {
		return Appointment{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return Appointment{}, f.err
	}
	for _, r := range f.rows {
		if r.SubscriptionID == appt.SubscriptionID && r.Active(now) {
			return Appointment{}, ErrActiveExists
		}
	}
	f.nextID++
	appt.ID = f.nextID
	f.rows = append(f.rows, appt)
	return appt, nil
}

func (f *fakeStore) UpdateActive(ctx context.Context, sub string, now, scheduledAt time.Time, apptType string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for i, r := range f.rows {
		if r.SubscriptionID == sub && r.Active(now) {
			f.rows[i].ScheduledAt = scheduledAt
			f.rows[i].AppointmentType = apptType
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) DeleteActive(ctx context.Context, sub string, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	kept := f.rows[:0]
	var n int64
	for _, r := range f.rows {
		if r.SubscriptionID == sub && r.Active(now) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept
	return n, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return r.err
}

var engineNow = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, store Store, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return engineNow })}, opts...)
	e, err := NewEngine(store, DefaultPolicy(), opts...)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestEngineBookingLifecycle(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	notifier := &recordingNotifier{}
	e := newTestEngine(t, store, WithNotifier(notifier))
	ctx := context.Background()

	res := e.CheckAppointments(ctx, CheckRequest{SubscriptionID: "SUB100"})
	if !res.OK() || res.Message != "No appointments found." {
		t.Fatalf("unexpected empty check: %+v", res)
	}

	res = e.CreateAppointment(ctx, CreateRequest{
		SubscriptionID:  "SUB100",
		AppointmentDate: "2024-05-12T10:30:00",
		AppointmentType: "installation",
	})
	if !res.OK() {
		t.Fatalf("CreateAppointment() = %+v", res)
	}
	if res.Message != "Appointment created successfully." {
		t.Fatalf("unexpected message: %s", res.Message)
	}

	res = e.CreateAppointment(ctx, CreateRequest{SubscriptionID: "SUB100", AppointmentDate: "2024-05-13T10:00:00"})
	if res.OK() || res.Kind != KindConflictActiveAppointment {
		t.Fatalf("expected conflict, got %+v", res)
	}

	res = e.ModifyAppointment(ctx, ModifyRequest{
		SubscriptionID:     "SUB100",
		NewAppointmentDate: "2024-05-14T16:00:00Z",
		NewAppointmentType: "repair",
	})
	if !res.OK() {
		t.Fatalf("ModifyAppointment() = %+v", res)
	}

	res = e.CheckAppointments(ctx, CheckRequest{SubscriptionID: "SUB100"})
	payload, ok := res.Payload.(CheckPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", res.Payload)
	}
	if len(payload.Appointments) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(payload.Appointments))
	}
	got := payload.Appointments[0]
	if !got.ScheduledAt.Equal(time.Date(2024, 5, 14, 16, 0, 0, 0, time.UTC)) || got.AppointmentType != "repair" {
		t.Fatalf("unexpected appointment after modify: %+v", got)
	}

	res = e.CancelAppointment(ctx, CancelRequest{SubscriptionID: "SUB100"})
	if !res.OK() || res.Message != "Appointment cancelled successfully." {
		t.Fatalf("CancelAppointment() = %+v", res)
	}

	res = e.CancelAppointment(ctx, CancelRequest{SubscriptionID: "SUB100"})
	if res.Kind != KindNotFound {
		t.Fatalf("expected NotFound on second cancel, got %+v", res)
	}

	if len(notifier.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(notifier.events))
	}
	wantTypes := []EventType{EventCreated, EventModified, EventCancelled}
	for i, evt := range notifier.events {
		if evt.Type != wantTypes[i] {
			t.Fatalf("event %d type = %s, want %s", i, evt.Type, wantTypes[i])
		}
		if evt.ID == "" {
			t.Fatalf("event %d has no id", i)
		}
	}
}

func TestEngineRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	e := newTestEngine(t, store)
	ctx := context.Background()

	tests := []struct {
		name string
		res  Result
		want ErrorKind
	}{
		{
			name: "blank subscription",
			res:  e.CheckAppointments(ctx, CheckRequest{SubscriptionID: "  "}),
			want: KindMalformedInput,
		},
		{
			name: "bad date",
			res:  e.CreateAppointment(ctx, CreateRequest{SubscriptionID: "SUB1", AppointmentDate: "tomorrow"}),
			want: KindMalformedInput,
		},
		{
			name: "too soon",
			res:  e.CreateAppointment(ctx, CreateRequest{SubscriptionID: "SUB1", AppointmentDate: "2024-05-11T09:00:00"}),
			want: KindInvalidSchedule,
		},
		{
			name: "too far",
			res:  e.CreateAppointment(ctx, CreateRequest{SubscriptionID: "SUB1", AppointmentDate: "2024-06-09T09:00:00"}),
			want: KindInvalidSchedule,
		},
		{
			name: "off grid",
			res:  e.CreateAppointment(ctx, CreateRequest{SubscriptionID: "SUB1", AppointmentDate: "2024-05-12T09:15:00"}),
			want: KindInvalidSchedule,
		},
		{
			name: "modify without active",
			res:  e.ModifyAppointment(ctx, ModifyRequest{SubscriptionID: "SUB1", NewAppointmentDate: "2024-05-12T09:00:00"}),
			want: KindNotFound,
		},
	}

	for _, tc := range tests {
		if tc.res.OK() || tc.res.Kind != tc.want {
			t.Fatalf("%s: got %+v, want kind %s", tc.name, tc.res, tc.want)
		}
	}
	if len(store.rows) != 0 {
		t.Fatalf("rejected operations must not write, got %d rows", len(store.rows))
	}
}

func TestEngineCancelTooLate(t *testing.T) {
	t.Parallel()

	store := &fakeStore{rows: []Appointment{{
		ID:             1,
		SubscriptionID: "SUB7",
		CreatedAt:      engineNow.Add(-48 * time.Hour),
		ScheduledAt:    engineNow.Add(24 * time.Hour),
	}}}
	e := newTestEngine(t, store)

	res := e.CancelAppointment(context.Background(), CancelRequest{SubscriptionID: "SUB7"})
	if res.Kind != KindCancellationTooLate {
		t.Fatalf("expected CancellationTooLate, got %+v", res)
	}
	if res.Message != "Appointments can only be cancelled at least 24 hours in advance." {
		t.Fatalf("unexpected message: %s", res.Message)
	}
	if len(store.rows) != 1 {
		t.Fatal("appointment must survive a rejected cancel")
	}
}

func TestEnginePastAppointmentsAreNotActive(t *testing.T) {
	t.Parallel()

	store := &fakeStore{rows: []Appointment{{
		ID:             1,
		SubscriptionID: "SUB8",
		CreatedAt:      engineNow.Add(-10 * 24 * time.Hour),
		ScheduledAt:    engineNow.Add(-time.Hour),
	}}}
	e := newTestEngine(t, store)
	ctx := context.Background()

	if res := e.CancelAppointment(ctx, CancelRequest{SubscriptionID: "SUB8"}); res.Kind != KindNotFound {
		t.Fatalf("expected NotFound, got %+v", res)
	}
	res := e.CreateAppointment(ctx, CreateRequest{SubscriptionID: "SUB8", AppointmentDate: "2024-05-20T13:00:00"})
	if !res.OK() {
		t.Fatalf("CreateAppointment() = %+v", res)
	}
	check := e.CheckAppointments(ctx, CheckRequest{SubscriptionID: "SUB8"})
	if n := len(check.Payload.(CheckPayload).Appointments); n != 2 {
		t.Fatalf("expected history plus new appointment, got %d", n)
	}
}

func TestEngineStoreFailureIsGeneric(t *testing.T) {
	t.Parallel()

	store := &fakeStore{err: errors.New("dial tcp 10.0.0.1:5432: connection refused")}
	e := newTestEngine(t, store)

	res := e.CheckAppointments(context.Background(), CheckRequest{SubscriptionID: "SUB1"})
	if res.Kind != KindStoreUnavailable {
		t.Fatalf("expected StoreUnavailable, got %+v", res)
	}
	if res.Message != storeUnavailableMessage {
		t.Fatalf("store detail leaked: %s", res.Message)
	}
	if !errors.Is(res.Err(), ErrStoreUnavailable) {
		t.Fatalf("Err() = %v", res.Err())
	}
}

func TestEngineStoreTimeout(t *testing.T) {
	t.Parallel()

	store := &fakeStore{delay: time.Second}
	e := newTestEngine(t, store, WithStoreTimeout(20*time.Millisecond))

	start := time.Now()
	res := e.CreateAppointment(context.Background(), CreateRequest{SubscriptionID: "SUB1", AppointmentDate: "2024-05-12T10:00:00"})
	if res.Kind != KindStoreUnavailable {
		t.Fatalf("expected StoreUnavailable, got %+v", res)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("timeout was not applied")
	}
}

func TestEngineNotifierFailureDoesNotFailOperation(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, &fakeStore{}, WithNotifier(&recordingNotifier{err: errors.New("publish failed")}))
	res := e.CreateAppointment(context.Background(), CreateRequest{SubscriptionID: "SUB2", AppointmentDate: "2024-05-12T10:00:00"})
	if !res.OK() {
		t.Fatalf("CreateAppointment() = %+v", res)
	}
}

func TestEngineConcurrentCreatesAllowOne(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	e := newTestEngine(t, store)

	var wg sync.WaitGroup
	var ok, conflicts int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := e.CreateAppointment(context.Background(), CreateRequest{
				SubscriptionID:  "SUB9",
				AppointmentDate: "2024-05-15T11:00:00",
			})
			switch {
			case res.OK():
				atomic.AddInt32(&ok, 1)
			case res.Kind == KindConflictActiveAppointment:
				atomic.AddInt32(&conflicts, 1)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || conflicts != 15 {
		t.Fatalf("ok=%d conflicts=%d", ok, conflicts)
	}
	if len(store.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(store.rows))
	}
}
