package weather

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrControllerStopped is returned once Run has exited.
var ErrControllerStopped = errors.New("controller stopped")

// Status is the lifecycle of the fetch cycle: idle -> loading -> ready | failed.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// State is everything the UI renders for the selected location.
type State struct {
	Status    Status                 `json:"status"`
	Location  *Location              `json:"location,omitempty"`
	TimeZone  string                 `json:"timeZone,omitempty"`
	Headline  string                 `json:"headline,omitempty"`
	Current   *CurrentWeatherSummary `json:"current,omitempty"`
	Range     *TemperatureRange      `json:"range,omitempty"`
	Days      []DayForecastGroup     `json:"days"`
	Daily     []DailyRow             `json:"daily"`
	UpdatedAt time.Time              `json:"updatedAt,omitempty"`

	// Err is the classified reason of the last failure; never rendered.
	Err error `json:"-"`
}

// Loading reports whether a fetch for the active location is pending.
func (s State) Loading() bool {
	return s.Status == StatusLoading
}

func (s State) clone() State {
	out := s
	if s.Location != nil {
		loc := *s.Location
		out.Location = &loc
	}
	if s.Current != nil {
		cur := *s.Current
		out.Current = &cur
	}
	if s.Range != nil {
		r := *s.Range
		out.Range = &r
	}
	if s.Daily != nil {
		out.Daily = append([]DailyRow(nil), s.Daily...)
	}
	if s.Days != nil {
		out.Days = make([]DayForecastGroup, len(s.Days))
		for i, d := range s.Days {
			d.Rows = append([]HourRow(nil), d.Rows...)
			out.Days[i] = d
		}
	}
	return out
}

func (s *State) clearWeather() {
	s.Current = nil
	s.Range = nil
	s.Days = nil
	s.Daily = nil
	s.TimeZone = ""
	s.Headline = ""
}

// Result reports what happened to a finished fetch.
type Result struct {
	LocationID string
	Committed  bool
	Err        error
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithResultHook registers fn to be called from the owner loop after each
// fetch result is committed or discarded.
func WithResultHook(fn func(Result)) Option {
	return func(c *Controller) { c.onResult = fn }
}

// Controller owns the view model of the one selected location. Every state
// mutation runs on the goroutine executing Run; fetches run concurrently and
// post their outcome back to it. A result is committed only if its location
// is still the active one when it arrives.
type Controller struct {
	provider Provider
	zones    TimeZoneResolver
	store    Store
	logger   *zap.Logger
	now      func() time.Time
	onResult func(Result)

	inbox chan func()
	done  chan struct{}

	// owned by the Run goroutine
	ctx   context.Context
	state State
}

// NewController creates a Controller. zones and store may be nil.
// Run must be started before any other method is called.
func NewController(provider Provider, zones TimeZoneResolver, store Store, logger *zap.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		provider: provider,
		zones:    zones,
		store:    store,
		logger:   logger.Named("controller"),
		now:      time.Now,
		inbox:    make(chan func()),
		done:     make(chan struct{}),
		state:    State{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes commands and fetch results until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) {
	c.ctx = ctx
	defer close(c.done)

	c.publish()
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-c.inbox:
			op()
		}
	}
}

// Done is closed when Run returns.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// SelectLocation makes loc the active location and starts fetching its weather.
// It returns once the loading state for loc has been published. Weather of a
// previously selected location is dropped rather than shown under loc.
func (c *Controller) SelectLocation(loc Location) error {
	started := make(chan struct{})
	if err := c.send(func() {
		if prev := c.state.Location; prev == nil || prev.ID != loc.ID {
			c.state.clearWeather()
			c.state.Err = nil
		}
		c.state.Location = &loc
		c.logger.Info("location selected", zap.String("location_id", loc.ID), zap.String("name", loc.Name))
		c.startFetch(loc)
		close(started)
	}); err != nil {
		return err
	}
	<-started
	return nil
}

// Refresh re-fetches the active location with a fresh "now".
func (c *Controller) Refresh() error {
	errc := make(chan error, 1)
	if err := c.send(func() {
		if c.state.Location == nil {
			errc <- ErrNoActiveLocation
			return
		}
		c.startFetch(*c.state.Location)
		errc <- nil
	}); err != nil {
		return err
	}
	return <-errc
}

// ToggleDay flips the expanded flag of the day group at index.
func (c *Controller) ToggleDay(index int) (DayForecastGroup, error) {
	type reply struct {
		group DayForecastGroup
		err   error
	}
	replies := make(chan reply, 1)
	if err := c.send(func() {
		if index < 0 || index >= len(c.state.Days) {
			replies <- reply{err: ErrDayOutOfRange}
			return
		}
		c.state.Days[index].IsExpanded = !c.state.Days[index].IsExpanded
		c.publish()
		replies <- reply{group: c.state.Days[index]}
	}); err != nil {
		return DayForecastGroup{}, err
	}
	r := <-replies
	return r.group, r.err
}

// State returns a copy of the current state.
func (c *Controller) State() (State, error) {
	states := make(chan State, 1)
	if err := c.send(func() { states <- c.state.clone() }); err != nil {
		return State{}, err
	}
	return <-states, nil
}

func (c *Controller) send(op func()) error {
	select {
	case c.inbox <- op:
		return nil
	case <-c.done:
		return ErrControllerStopped
	}
}

type fetchResult struct {
	location  Location
	timeZone  *time.Location
	now       time.Time
	current   CurrentWeatherSummary
	tempRange *TemperatureRange
	days      []DayForecastGroup
	daily     []DailyRow
	err       error
}

func (c *Controller) startFetch(loc Location) {
	c.state.Status = StatusLoading
	c.publish()

	ctx := c.ctx
	go func() {
		res := c.fetch(ctx, loc)
		_ = c.send(func() { c.apply(res) })
	}()
}

func (c *Controller) fetch(ctx context.Context, loc Location) fetchResult {
	res := fetchResult{location: loc}

	snapshot, err := c.provider.FetchWeather(ctx, loc.Coordinate)
	if err != nil {
		res.err = err
		return res
	}

	tz := zoneFor(snapshot, c.zones, loc.Coordinate)

	res.timeZone = tz
	res.now = c.now()
	res.current = BuildCurrentSummary(snapshot.Current)
	if r, ok := BuildTemperatureRange(snapshot, res.now); ok {
		res.tempRange = &r
	}
	res.days = BuildDayGroups(snapshot, res.now, tz)
	res.daily = BuildDailyRows(snapshot, tz)
	return res
}

func (c *Controller) apply(res fetchResult) {
	active := c.state.Location
	if active == nil || active.ID != res.location.ID {
		c.logger.Debug("discarding stale weather result",
			zap.String("location_id", res.location.ID),
			zap.Error(res.err))
		c.report(Result{LocationID: res.location.ID, Err: res.err})
		return
	}

	if res.err != nil {
		c.logger.Warn("weather fetch failed",
			zap.String("location_id", res.location.ID),
			zap.String("provider", c.provider.Name()),
			zap.Error(res.err))
		c.state.Status = StatusFailed
		c.state.clearWeather()
		c.state.Err = res.err
	} else {
		current := res.current
		c.state.Status = StatusReady
		c.state.Current = &current
		c.state.Range = res.tempRange
		c.state.Days = res.days
		c.state.Daily = res.daily
		c.state.TimeZone = res.timeZone.String()
		c.state.Headline = Headline(res.now, res.timeZone)
		c.state.Err = nil
		c.logger.Info("weather updated",
			zap.String("location_id", res.location.ID),
			zap.Int("days", len(res.days)))
	}
	c.state.UpdatedAt = c.now()

	c.publish()
	c.report(Result{LocationID: res.location.ID, Committed: true, Err: res.err})
}

func (c *Controller) publish() {
	if c.store != nil {
		c.store.Save(c.state.clone())
	}
}

func (c *Controller) report(r Result) {
	if c.onResult != nil {
		c.onResult(r)
	}
}
