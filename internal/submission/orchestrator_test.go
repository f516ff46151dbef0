package submission

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/Freeeeeet/reservation_series/internal/model"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var firstDay = time.Date(2026, time.November, 2, 0, 0, 0, 0, time.UTC)

// fakeClient считает вызовы; behaviour решает исход попытки по индексу вхождения
type fakeClient struct {
	mu          sync.Mutex
	seriesErr   error
	seriesCalls int
	calls       int
	attempts    map[int]int
	inputs      map[int]model.StaffReservationInput
	behaviour   func(index, attempt int) error

	// для проверки проходов
	firstPassDone      int
	secondPassObserved []int
}

func newFakeClient(behaviour func(index, attempt int) error) *fakeClient {
	return &fakeClient{
		attempts:  make(map[int]int),
		inputs:    make(map[int]model.StaffReservationInput),
		behaviour: behaviour,
	}
}

func (f *fakeClient) CreateRecurringSeries(_ context.Context, _ model.SeriesMetadata) mo.Result[int64] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seriesCalls++
	if f.seriesErr != nil {
		return mo.Err[int64](f.seriesErr)
	}
	return mo.Ok[int64](77)
}

func (f *fakeClient) CreateStaffReservation(_ context.Context, in model.StaffReservationInput) mo.Result[int64] {
	index := int(in.Begin.Sub(firstDay).Hours() / 24)

	f.mu.Lock()
	f.calls++
	f.attempts[index]++
	attempt := f.attempts[index]
	f.inputs[index] = in
	if index >= DefaultFirstPassSize {
		f.secondPassObserved = append(f.secondPassObserved, f.firstPassDone)
	}
	f.mu.Unlock()

	var err error
	if f.behaviour != nil {
		err = f.behaviour(index, attempt)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if index < DefaultFirstPassSize && (err == nil || attempt == 2 || KindOf(err) != FailureNetwork) {
		f.firstPassDone++
	}
	if err != nil {
		return mo.Err[int64](err)
	}
	return mo.Ok[int64](int64(1000 + index))
}

func instances(n int) []model.ReservationInstance {
	out := make([]model.ReservationInstance, n)
	for i := range out {
		out[i] = model.ReservationInstance{
			Date:      firstDay.AddDate(0, 0, i),
			StartTime: "00:00",
			EndTime:   "01:00",
		}
	}
	return out
}

func request(n int) Request {
	return Request{
		Series: model.SeriesMetadata{
			Name:              "Floorball",
			Description:       "Weekly practice",
			ReservationUnitID: 5,
			Type:              model.ReservationTypeStaff,
		},
		Instances:         instances(n),
		ReservationUnitID: 5,
	}
}

func newTestOrchestrator(client MutationClient, cfg Config) *Orchestrator {
	cfg.RetryDelay = time.Millisecond
	return NewOrchestrator(client, nil, cfg)
}

func TestSubmit_AllSucceed(t *testing.T) {
	client := newFakeClient(nil)
	o := newTestOrchestrator(client, Config{})

	seriesID, results, err := o.Submit(context.Background(), request(10))

	require.NoError(t, err)
	assert.Equal(t, int64(77), seriesID)
	require.Len(t, results, 10)
	for i, r := range results {
		require.NotNil(t, r.ReservationPk, "index %d", i)
		assert.Equal(t, int64(1000+i), *r.ReservationPk)
		assert.Empty(t, r.Error)
		assert.Equal(t, firstDay.AddDate(0, 0, i), r.Date)
	}
	assert.Equal(t, 10, client.calls)
	assert.Equal(t, int64(77), client.inputs[3].RecurringSeriesID)
}

func TestSubmit_RetriesNetworkErrorOnce(t *testing.T) {
	client := newFakeClient(func(index, attempt int) error {
		if index == 2 && attempt == 1 {
			return NetworkError(errors.New("connection reset"))
		}
		return nil
	})
	o := newTestOrchestrator(client, Config{})

	_, results, err := o.Submit(context.Background(), request(10))

	require.NoError(t, err)
	require.Len(t, results, 10)
	for i, r := range results {
		assert.NotNil(t, r.ReservationPk, "index %d", i)
		assert.Empty(t, r.Error, "index %d", i)
	}
	assert.Equal(t, 2, client.attempts[2])
	assert.Equal(t, 11, client.calls)
}

func TestSubmit_SecondNetworkErrorIsPermanent(t *testing.T) {
	client := newFakeClient(func(index, attempt int) error {
		if index == 2 {
			return NetworkError(errors.New("connection reset"))
		}
		return nil
	})
	o := newTestOrchestrator(client, Config{})

	_, results, err := o.Submit(context.Background(), request(10))

	require.NoError(t, err)
	require.Len(t, results, 10)

	failed := 0
	for i, r := range results {
		assert.Equal(t, firstDay.AddDate(0, 0, i), r.Date)
		if i == 2 {
			assert.Nil(t, r.ReservationPk)
			assert.Contains(t, r.Error, "connection reset")
			failed++
			continue
		}
		require.NotNil(t, r.ReservationPk)
		assert.Equal(t, int64(1000+i), *r.ReservationPk)
		assert.Empty(t, r.Error)
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 2, client.attempts[2])
}

func TestSubmit_ValidationErrorIsNotRetried(t *testing.T) {
	client := newFakeClient(func(index, attempt int) error {
		if index == 4 {
			return ValidationError("begin", "reservation unit is closed")
		}
		return nil
	})
	o := newTestOrchestrator(client, Config{})

	_, results, err := o.Submit(context.Background(), request(6))

	require.NoError(t, err)
	assert.Equal(t, 1, client.attempts[4])
	assert.Nil(t, results[4].ReservationPk)
	assert.Contains(t, results[4].Error, "reservation unit is closed")
	assert.NotNil(t, results[5].ReservationPk)
}

func TestSubmit_SeriesFailureAborts(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "field errors", err: ValidationError("name", "required")},
		{name: "network error", err: NetworkError(errors.New("timeout"))},
		{name: "unexpected error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient(nil)
			client.seriesErr = tt.err
			o := newTestOrchestrator(client, Config{})

			seriesID, results, err := o.Submit(context.Background(), request(10))

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSeriesCreation)
			assert.ErrorIs(t, err, tt.err)
			assert.Zero(t, seriesID)
			assert.Nil(t, results)
			assert.Equal(t, 1, client.seriesCalls+client.calls)
		})
	}
}

func TestSubmit_SecondPassStartsAfterFirst(t *testing.T) {
	client := newFakeClient(func(index, attempt int) error {
		if index < DefaultFirstPassSize {
			time.Sleep(time.Duration(DefaultFirstPassSize-index) * time.Millisecond)
		}
		if index == 1 && attempt == 1 {
			return NetworkError(errors.New("reset"))
		}
		return nil
	})
	o := newTestOrchestrator(client, Config{})

	_, results, err := o.Submit(context.Background(), request(25))

	require.NoError(t, err)
	require.Len(t, results, 25)
	require.Len(t, client.secondPassObserved, 15)
	for _, done := range client.secondPassObserved {
		assert.Equal(t, DefaultFirstPassSize, done)
	}
	for i, r := range results {
		require.NotNil(t, r.ReservationPk)
		assert.Equal(t, int64(1000+i), *r.ReservationPk)
	}
}

func TestSubmit_AbortOnTotalFailure(t *testing.T) {
	client := newFakeClient(func(index, attempt int) error {
		return ValidationError("", "permission denied")
	})
	o := newTestOrchestrator(client, Config{Continue: AbortOnTotalFailure})

	_, results, err := o.Submit(context.Background(), request(25))

	require.NoError(t, err)
	require.Len(t, results, 25)
	assert.Equal(t, DefaultFirstPassSize, client.calls)
	for i, r := range results {
		assert.Nil(t, r.ReservationPk)
		if i < DefaultFirstPassSize {
			assert.Contains(t, r.Error, "permission denied")
		} else {
			assert.Equal(t, ErrNotAttempted.Error(), r.Error)
		}
	}
}

func TestSubmit_CustomFirstPassSize(t *testing.T) {
	client := newFakeClient(nil)
	o := newTestOrchestrator(client, Config{FirstPassSize: 3})

	_, results, err := o.Submit(context.Background(), request(4))

	require.NoError(t, err)
	assert.Len(t, results, 4)
	assert.Equal(t, 4, client.calls)
}

func TestSubmit_ReservationPayload(t *testing.T) {
	helsinki := time.FixedZone("EET", 2*60*60)
	client := newFakeClient(nil)
	o := newTestOrchestrator(client, Config{})

	req := request(1)
	req.Instances[0].StartTime = "02:00"
	req.Instances[0].EndTime = "03:30"
	req.Location = helsinki
	req.Buffers = model.Buffers{Before: 15 * time.Minute, After: 30 * time.Minute}
	req.MetadataFields = []string{"reserveeFirstName", "reserveePhone"}
	req.Details = map[string]string{
		"reserveeFirstName":  "Aino",
		"reserveePhone":      "+358401234567",
		"freeOfChargeReason": "not supported",
	}

	_, results, err := o.Submit(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, results[0].ReservationPk)

	in := client.inputs[0]
	assert.Equal(t, int64(5), in.ReservationUnitID)
	assert.Equal(t, time.Date(2026, time.November, 2, 0, 0, 0, 0, time.UTC), in.Begin.UTC())
	assert.Equal(t, 90*time.Minute, in.End.Sub(in.Begin))
	assert.Equal(t, model.ReservationTypeStaff, in.Type)
	assert.Equal(t, 15*time.Minute, in.BufferBefore)
	assert.Equal(t, 30*time.Minute, in.BufferAfter)
	assert.Equal(t, "Floorball", in.Name)
	assert.Equal(t, map[string]string{
		"reserveeFirstName": "Aino",
		"reserveePhone":     "+358401234567",
	}, in.Metadata)
}

func TestSubmit_PayloadKeepsWallClockOnDaylightSavingDay(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)

	client := newFakeClient(nil)
	o := newTestOrchestrator(client, Config{})

	req := request(1)
	req.Location = helsinki
	req.Instances[0] = model.ReservationInstance{
		Date:      time.Date(2026, time.March, 29, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00",
		EndTime:   "11:00",
	}

	_, results, err := o.Submit(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, results[0].ReservationPk)

	require.Len(t, client.inputs, 1)
	for _, in := range client.inputs {
		assert.Equal(t, 10, in.Begin.In(helsinki).Hour())
		assert.Equal(t, 11, in.End.In(helsinki).Hour())
		assert.True(t, time.Date(2026, time.March, 29, 7, 0, 0, 0, time.UTC).Equal(in.Begin))
	}
}

func TestSubmit_BlockedSeriesHasNoBuffers(t *testing.T) {
	client := newFakeClient(nil)
	o := newTestOrchestrator(client, Config{})

	req := request(1)
	req.Series.Type = model.ReservationTypeBlocked
	req.Buffers = model.Buffers{Before: time.Hour, After: time.Hour}

	_, _, err := o.Submit(context.Background(), req)
	require.NoError(t, err)

	assert.Zero(t, client.inputs[0].BufferBefore)
	assert.Zero(t, client.inputs[0].BufferAfter)
	assert.Equal(t, model.ReservationTypeBlocked, client.inputs[0].Type)
}

func TestSubmit_EmptyInstances(t *testing.T) {
	client := newFakeClient(nil)
	o := newTestOrchestrator(client, Config{})

	seriesID, results, err := o.Submit(context.Background(), request(0))

	require.NoError(t, err)
	assert.Equal(t, int64(77), seriesID)
	assert.Empty(t, results)
	assert.Equal(t, 1, client.seriesCalls)
	assert.Zero(t, client.calls)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, FailureNetwork, KindOf(NetworkError(errors.New("x"))))
	assert.Equal(t, FailureValidation, KindOf(ValidationError("f", "m")))
	assert.Equal(t, FailureValidation, KindOf(errors.New("plain")))

	wrapped := errors.Join(errors.New("outer"), NetworkError(errors.New("inner")))
	assert.Equal(t, FailureNetwork, KindOf(wrapped))

	assert.Equal(t, "validation error on f: m", ValidationError("f", "m").Error())
	assert.Equal(t, "network error: x", NetworkError(errors.New("x")).Error())
}
