package weather_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/i474232898/weathercity/internal/store"
	"github.com/i474232898/weathercity/internal/weather"
)

var (
	paris  = weather.NewLocation("Paris, France", weather.Coordinate{Latitude: 48.856788, Longitude: 2.351077})
	sydney = weather.NewLocation("Sydney, Australia", weather.Coordinate{Latitude: -33.872710, Longitude: 151.205694})

	clockNow = time.Date(2024, time.July, 1, 15, 0, 0, 0, time.UTC)
)

type fakeResponse struct {
	snapshot weather.WeatherSnapshot
	err      error
	gate     chan struct{}
}

type fakeProvider struct {
	mu        sync.Mutex
	responses map[weather.Coordinate]fakeResponse
	calls     map[weather.Coordinate]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		responses: map[weather.Coordinate]fakeResponse{},
		calls:     map[weather.Coordinate]int{},
	}
}

func (f *fakeProvider) set(coord weather.Coordinate, resp fakeResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[coord] = resp
}

func (f *fakeProvider) callCount(coord weather.Coordinate) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[coord]
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) FetchWeather(ctx context.Context, coord weather.Coordinate) (weather.WeatherSnapshot, error) {
	f.mu.Lock()
	resp, ok := f.responses[coord]
	f.calls[coord]++
	f.mu.Unlock()

	if !ok {
		return weather.WeatherSnapshot{}, weather.NewProviderError("fake", weather.CodeUpstream, errors.New("no fixture"))
	}
	if resp.gate != nil {
		select {
		case <-resp.gate:
		case <-ctx.Done():
			return weather.WeatherSnapshot{}, ctx.Err()
		}
	}
	return resp.snapshot, resp.err
}

type utcZones struct{}

func (utcZones) ResolveTimeZone(weather.Coordinate) *time.Location { return time.UTC }

func sampleSnapshot(temp float64) weather.WeatherSnapshot {
	day0 := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	snapshot := weather.WeatherSnapshot{
		Current: weather.CurrentReading{Temperature: temp, ConditionText: "Clear", IconID: "sun.max"},
	}
	for i := 0; i < 48; i++ {
		snapshot.Hourly = append(snapshot.Hourly, weather.HourlyReading{
			Timestamp:   day0.Add(time.Duration(i) * time.Hour),
			Temperature: temp,
			IconID:      "sun.max",
		})
	}
	for i := 0; i < 3; i++ {
		snapshot.Daily = append(snapshot.Daily, weather.DailyReading{Date: day0.AddDate(0, 0, i)})
	}
	return snapshot
}

type harness struct {
	controller *weather.Controller
	store      *store.MemoryStore
	results    chan weather.Result
	cancel     context.CancelFunc
}

func startController(t *testing.T, provider weather.Provider) *harness {
	t.Helper()

	h := &harness{
		store:   store.NewMemoryStore(),
		results: make(chan weather.Result, 16),
	}
	h.controller = weather.NewController(provider, utcZones{}, h.store, zaptest.NewLogger(t),
		weather.WithClock(func() time.Time { return clockNow }),
		weather.WithResultHook(func(r weather.Result) { h.results <- r }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go h.controller.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.controller.Done()
	})
	return h
}

func (h *harness) nextResult(t *testing.T) weather.Result {
	t.Helper()
	select {
	case r := <-h.results:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a fetch result")
		return weather.Result{}
	}
}

func TestControllerStartsIdle(t *testing.T) {
	h := startController(t, newFakeProvider())

	state, err := h.controller.State()
	require.NoError(t, err)
	require.Equal(t, weather.StatusIdle, state.Status)
	require.Nil(t, state.Location)
	require.Empty(t, state.Days)

	published, err := h.store.Latest()
	require.NoError(t, err)
	require.Equal(t, weather.StatusIdle, published.Status)
}

func TestControllerSelectLocationCommitsWeather(t *testing.T) {
	provider := newFakeProvider()
	provider.set(paris.Coordinate, fakeResponse{snapshot: sampleSnapshot(21.6)})
	h := startController(t, provider)

	require.NoError(t, h.controller.SelectLocation(paris))

	r := h.nextResult(t)
	require.Equal(t, paris.ID, r.LocationID)
	require.True(t, r.Committed)
	require.NoError(t, r.Err)

	state, err := h.controller.State()
	require.NoError(t, err)
	require.Equal(t, weather.StatusReady, state.Status)
	require.False(t, state.Loading())
	require.Equal(t, paris.ID, state.Location.ID)
	require.Equal(t, "UTC", state.TimeZone)
	require.Equal(t, "Monday, 3 PM", state.Headline)
	require.Equal(t, &weather.CurrentWeatherSummary{
		TemperatureLabel: "22°",
		ConditionText:    "Clear",
		IconID:           "sun.max",
	}, state.Current)
	require.Len(t, state.Days, 3)
	require.True(t, state.Days[0].IsExpanded)
	require.Equal(t, "3 PM", state.Days[0].Rows[0].TimeLabel)
	require.True(t, state.Days[0].Rows[0].IsCurrentHour)
	require.Equal(t, clockNow, state.UpdatedAt)
	require.Equal(t, &weather.TemperatureRange{HighLabel: "22°", LowLabel: "22°"}, state.Range)
	require.Len(t, state.Daily, 3)
	require.Equal(t, "Jul 1, 2024", state.Daily[0].DateLabel)
	require.Equal(t, "Monday", state.Daily[0].WeekdayLabel)

	published, err := h.store.Latest()
	require.NoError(t, err)
	require.Equal(t, state.Status, published.Status)
	require.Equal(t, state.Days, published.Days)
	require.Equal(t, state.Daily, published.Daily)
}

func TestControllerSelectLocationPublishesLoadingBeforeReturning(t *testing.T) {
	provider := newFakeProvider()
	provider.set(paris.Coordinate, fakeResponse{snapshot: sampleSnapshot(10), gate: make(chan struct{})})
	h := startController(t, provider)

	for i := 0; i < 10; i++ {
		require.NoError(t, h.controller.SelectLocation(paris))

		published, err := h.store.Latest()
		require.NoError(t, err)
		require.Equal(t, weather.StatusLoading, published.Status)
		require.Equal(t, paris.ID, published.Location.ID)
	}
}

func TestControllerSwitchingLocationDropsPreviousWeather(t *testing.T) {
	gate := make(chan struct{})
	provider := newFakeProvider()
	provider.set(paris.Coordinate, fakeResponse{snapshot: sampleSnapshot(10)})
	provider.set(sydney.Coordinate, fakeResponse{snapshot: sampleSnapshot(20), gate: gate})
	h := startController(t, provider)

	require.NoError(t, h.controller.SelectLocation(paris))
	require.True(t, h.nextResult(t).Committed)

	require.NoError(t, h.controller.SelectLocation(sydney))

	state, err := h.controller.State()
	require.NoError(t, err)
	require.True(t, state.Loading())
	require.Equal(t, sydney.ID, state.Location.ID)
	require.Nil(t, state.Current)
	require.Nil(t, state.Range)
	require.Empty(t, state.Days)
	require.Empty(t, state.Daily)
	require.Empty(t, state.Headline)
	require.Empty(t, state.TimeZone)

	published, err := h.store.Latest()
	require.NoError(t, err)
	require.Equal(t, sydney.ID, published.Location.ID)
	require.Nil(t, published.Current)
	require.Empty(t, published.Days)

	_, err = h.controller.ToggleDay(0)
	require.ErrorIs(t, err, weather.ErrDayOutOfRange)

	close(gate)
	require.True(t, h.nextResult(t).Committed)

	state, err = h.controller.State()
	require.NoError(t, err)
	require.Equal(t, "20°", state.Current.TemperatureLabel)
}

func TestControllerReselectingKeepsWeatherWhileLoading(t *testing.T) {
	provider := newFakeProvider()
	provider.set(paris.Coordinate, fakeResponse{snapshot: sampleSnapshot(10)})
	h := startController(t, provider)

	require.NoError(t, h.controller.SelectLocation(paris))
	require.True(t, h.nextResult(t).Committed)

	gate := make(chan struct{})
	provider.set(paris.Coordinate, fakeResponse{snapshot: sampleSnapshot(12), gate: gate})
	require.NoError(t, h.controller.SelectLocation(paris))

	state, err := h.controller.State()
	require.NoError(t, err)
	require.True(t, state.Loading())
	require.Equal(t, "10°", state.Current.TemperatureLabel)
	require.Len(t, state.Days, 3)

	close(gate)
	require.True(t, h.nextResult(t).Committed)
}

func TestControllerPrefersProviderTimeZone(t *testing.T) {
	snapshot := sampleSnapshot(18)
	snapshot.TimeZone = time.FixedZone("AEST", 10*60*60)

	provider := newFakeProvider()
	provider.set(sydney.Coordinate, fakeResponse{snapshot: snapshot})
	h := startController(t, provider)

	require.NoError(t, h.controller.SelectLocation(sydney))
	require.True(t, h.nextResult(t).Committed)

	state, err := h.controller.State()
	require.NoError(t, err)
	require.Equal(t, "AEST", state.TimeZone)
	// 15:00 UTC on Monday is 01:00 on Tuesday in Sydney.
	require.Equal(t, "Tuesday, 1 AM", state.Headline)
	require.False(t, state.Days[0].IsExpanded)
	require.Equal(t, "Tuesday", state.Days[1].Title)
	require.True(t, state.Days[1].IsExpanded)
	require.Equal(t, "1 AM", state.Days[1].Rows[0].TimeLabel)
	require.True(t, state.Days[1].Rows[0].IsCurrentHour)
}

func TestControllerIsLoadingWhileFetching(t *testing.T) {
	gate := make(chan struct{})
	provider := newFakeProvider()
	provider.set(paris.Coordinate, fakeResponse{snapshot: sampleSnapshot(10), gate: gate})
	h := startController(t, provider)

	require.NoError(t, h.controller.SelectLocation(paris))

	state, err := h.controller.State()
	require.NoError(t, err)
	require.True(t, state.Loading())
	require.Equal(t, paris.ID, state.Location.ID)

	published, err := h.store.Latest()
	require.NoError(t, err)
	require.Equal(t, weather.StatusLoading, published.Status)

	close(gate)
	require.True(t, h.nextResult(t).Committed)

	state, err = h.controller.State()
	require.NoError(t, err)
	require.False(t, state.Loading())
}

func TestControllerLastSelectionWins(t *testing.T) {
	slow := make(chan struct{})
	provider := newFakeProvider()
	provider.set(paris.Coordinate, fakeResponse{snapshot: sampleSnapshot(10), gate: slow})
	provider.set(sydney.Coordinate, fakeResponse{snapshot: sampleSnapshot(20)})
	h := startController(t, provider)

	require.NoError(t, h.controller.SelectLocation(paris))
	require.NoError(t, h.controller.SelectLocation(sydney))

	r := h.nextResult(t)
	require.Equal(t, sydney.ID, r.LocationID)
	require.True(t, r.Committed)

	// Paris completes after Sydney and must not overwrite it.
	close(slow)
	r = h.nextResult(t)
	require.Equal(t, paris.ID, r.LocationID)
	require.False(t, r.Committed)

	state, err := h.controller.State()
	require.NoError(t, err)
	require.Equal(t, weather.StatusReady, state.Status)
	require.Equal(t, sydney.ID, state.Location.ID)
	require.Equal(t, "20°", state.Current.TemperatureLabel)

	published, err := h.store.Latest()
	require.NoError(t, err)
	require.Equal(t, sydney.ID, published.Location.ID)
	require.Equal(t, "20°", published.Current.TemperatureLabel)
}

func TestControllerDiscardsStaleFailure(t *testing.T) {
	slow := make(chan struct{})
	provider := newFakeProvider()
	provider.set(paris.Coordinate, fakeResponse{
		err:  weather.NewProviderError("fake", weather.CodeNetwork, errors.New("connection reset")),
		gate: slow,
	})
	provider.set(sydney.Coordinate, fakeResponse{snapshot: sampleSnapshot(20)})
	h := startController(t, provider)

	require.NoError(t, h.controller.SelectLocation(paris))
	require.NoError(t, h.controller.SelectLocation(sydney))
	require.True(t, h.nextResult(t).Committed)

	close(slow)
	r := h.nextResult(t)
	require.False(t, r.Committed)
	require.ErrorIs(t, r.Err, weather.ErrProvider)

	state, err := h.controller.State()
	require.NoError(t, err)
	require.Equal(t, weather.StatusReady, state.Status)
	require.NoError(t, state.Err)
}

func TestControllerFailureClearsWeather(t *testing.T) {
	provider := newFakeProvider()
	provider.set(paris.Coordinate, fakeResponse{snapshot: sampleSnapshot(10)})
	h := startController(t, provider)

	require.NoError(t, h.controller.SelectLocation(paris))
	require.True(t, h.nextResult(t).Committed)

	provider.set(paris.Coordinate, fakeResponse{
		err: weather.NewProviderError("fake", weather.CodeAuth, errors.New("invalid key")),
	})
	require.NoError(t, h.controller.Refresh())

	r := h.nextResult(t)
	require.True(t, r.Committed)
	require.Error(t, r.Err)

	state, err := h.controller.State()
	require.NoError(t, err)
	require.Equal(t, weather.StatusFailed, state.Status)
	require.False(t, state.Loading())
	require.Equal(t, paris.ID, state.Location.ID)
	require.Nil(t, state.Current)
	require.Empty(t, state.Days)
	require.Empty(t, state.Headline)
	require.Nil(t, state.Range)
	require.Empty(t, state.Daily)
	require.True(t, errors.Is(state.Err, weather.ErrProvider))
	require.True(t, weather.IsCode(state.Err, weather.CodeAuth))
}

func TestControllerRefresh(t *testing.T) {
	provider := newFakeProvider()
	provider.set(paris.Coordinate, fakeResponse{snapshot: sampleSnapshot(10)})
	h := startController(t, provider)

	require.ErrorIs(t, h.controller.Refresh(), weather.ErrNoActiveLocation)
	require.Zero(t, provider.callCount(paris.Coordinate))

	require.NoError(t, h.controller.SelectLocation(paris))
	require.True(t, h.nextResult(t).Committed)

	provider.set(paris.Coordinate, fakeResponse{snapshot: sampleSnapshot(30)})
	require.NoError(t, h.controller.Refresh())
	require.True(t, h.nextResult(t).Committed)
	require.Equal(t, 2, provider.callCount(paris.Coordinate))

	state, err := h.controller.State()
	require.NoError(t, err)
	require.Equal(t, "30°", state.Current.TemperatureLabel)
}

func TestControllerToggleDay(t *testing.T) {
	provider := newFakeProvider()
	provider.set(paris.Coordinate, fakeResponse{snapshot: sampleSnapshot(10)})
	h := startController(t, provider)

	_, err := h.controller.ToggleDay(0)
	require.ErrorIs(t, err, weather.ErrDayOutOfRange)

	require.NoError(t, h.controller.SelectLocation(paris))
	require.True(t, h.nextResult(t).Committed)

	group, err := h.controller.ToggleDay(0)
	require.NoError(t, err)
	require.False(t, group.IsExpanded)
	require.Equal(t, "chevron.down", group.Icon())

	group, err = h.controller.ToggleDay(1)
	require.NoError(t, err)
	require.True(t, group.IsExpanded)

	_, err = h.controller.ToggleDay(3)
	require.ErrorIs(t, err, weather.ErrDayOutOfRange)
	_, err = h.controller.ToggleDay(-1)
	require.ErrorIs(t, err, weather.ErrDayOutOfRange)

	published, err := h.store.Latest()
	require.NoError(t, err)
	require.False(t, published.Days[0].IsExpanded)
	require.True(t, published.Days[1].IsExpanded)

	// A rebuild starts over from the default expansion.
	require.NoError(t, h.controller.Refresh())
	require.True(t, h.nextResult(t).Committed)

	state, err := h.controller.State()
	require.NoError(t, err)
	require.True(t, state.Days[0].IsExpanded)
	require.False(t, state.Days[1].IsExpanded)
}

func TestControllerStateIsACopy(t *testing.T) {
	provider := newFakeProvider()
	provider.set(paris.Coordinate, fakeResponse{snapshot: sampleSnapshot(10)})
	h := startController(t, provider)

	require.NoError(t, h.controller.SelectLocation(paris))
	require.True(t, h.nextResult(t).Committed)

	state, err := h.controller.State()
	require.NoError(t, err)
	state.Days[0].Rows[0].TimeLabel = "mutated"
	state.Current.TemperatureLabel = "mutated"

	again, err := h.controller.State()
	require.NoError(t, err)
	require.Equal(t, "3 PM", again.Days[0].Rows[0].TimeLabel)
	require.Equal(t, "10°", again.Current.TemperatureLabel)
}

func TestControllerStopped(t *testing.T) {
	h := startController(t, newFakeProvider())

	h.cancel()
	<-h.controller.Done()

	require.ErrorIs(t, h.controller.SelectLocation(paris), weather.ErrControllerStopped)
	require.ErrorIs(t, h.controller.Refresh(), weather.ErrControllerStopped)
	_, err := h.controller.ToggleDay(0)
	require.ErrorIs(t, err, weather.ErrControllerStopped)
	_, err = h.controller.State()
	require.ErrorIs(t, err, weather.ErrControllerStopped)
}
