package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/millkeeper/internal/models"
	"github.com/dmitrijs2005/millkeeper/internal/remotestore"
	"github.com/dmitrijs2005/millkeeper/internal/timex"
)

type fakeRemote struct {
	mu      sync.Mutex
	records map[string]models.Record
	calls   []string

	fetchErr  error
	deleteErr error

	// when set, FetchAll signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func newFakeRemote(records ...models.Record) *fakeRemote {
	f := &fakeRemote{records: map[string]models.Record{}}
	for _, r := range records {
		f.records[r.ID] = r
	}
	return f
}

func (f *fakeRemote) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRemote) IDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.records))
	for id := range f.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (f *fakeRemote) FetchAll(ctx context.Context) ([]models.Record, error) {
	f.record("fetch_all")
	if f.entered != nil {
		f.entered <- struct{}{}
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.records))
	for id := range f.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]models.Record, 0, len(ids))
	for _, id := range ids {
		r := f.records[id]
		r.Origin = models.OriginRemote
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRemote) UpdatePayment(_ context.Context, id, method string) error {
	f.record("update_payment")
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return &remotestore.TransportError{Op: "update payment", StatusCode: 404, Err: remotestore.ErrRecordNotFound}
	}
	r.PaymentMethod = method
	f.records[id] = r
	return nil
}

func (f *fakeRemote) DeleteMany(_ context.Context, ids []string) error {
	f.record("delete_many")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.records, id)
	}
	return nil
}

func (f *fakeRemote) DeleteOne(ctx context.Context, id string) error {
	f.record("delete_one")
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

type fakeArchive struct {
	mu      sync.Mutex
	cal     *timex.Calendar
	records map[string]models.Record
	calls   []string

	upsertErr error
}

func newFakeArchive(cal *timex.Calendar, records ...models.Record) *fakeArchive {
	f := &fakeArchive{cal: cal, records: map[string]models.Record{}}
	for _, r := range records {
		f.records[r.ID] = r
	}
	return f
}

func (f *fakeArchive) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeArchive) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeArchive) Get(id string) (models.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	return r, ok
}

func (f *fakeArchive) FetchDay(_ context.Context, d timex.Date) ([]models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("fetch_day")
	out := []models.Record{}
	for _, r := range f.records {
		if f.cal.InDay(r.EventTimeMs, d) {
			r.Origin = models.OriginLocal
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventTimeMs < out[j].EventTimeMs })
	return out, nil
}

func (f *fakeArchive) UpsertMany(_ context.Context, records []models.Record) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("upsert_many")
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	var n int64
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		r.Origin = ""
		f.records[r.ID] = r
		n++
	}
	return n, nil
}

func (f *fakeArchive) UpdatePayment(_ context.Context, id, method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update_payment")
	if r, ok := f.records[id]; ok {
		r.PaymentMethod = method
		f.records[id] = r
	}
	return nil
}

func (f *fakeArchive) DeleteOne(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete_one")
	delete(f.records, id)
	return nil
}

var rome = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		panic(err)
	}
	return loc
}()

// fixedCalendar pins today to 2024-06-10 noon in Rome.
func fixedCalendar() *timex.Calendar {
	return timex.NewCalendar(rome, func() time.Time {
		return time.Date(2024, time.June, 10, 12, 0, 0, 0, rome)
	})
}

func ms(year int, month time.Month, day, hour, min, sec, milli int) int64 {
	return time.Date(year, month, day, hour, min, sec, milli*int(time.Millisecond), rome).UnixMilli()
}
