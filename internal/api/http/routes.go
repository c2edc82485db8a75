package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/weathercity/internal/store"
	"github.com/i474232898/weathercity/internal/weather"
)

const (
	messageLoading = "Fetching..."
	messageNoData  = "No Weather"
)

var validate = validator.New()

// Dependencies are the collaborators the routes need.
type Dependencies struct {
	Controller *weather.Controller
	Store      *store.MemoryStore
	Catalog    *weather.Catalog
	Device     weather.LocationResolver
	// Cities fills the city list with current weather; nil lists names only.
	Cities     *weather.CityDirectory
	Logger     *zap.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	h := &handlers{deps: deps}

	v1 := app.Group("/api/v1")

	v1.Get("/locations", h.listLocations)
	v1.Post("/locations/select", h.selectLocation)
	v1.Post("/locations/device", h.selectDeviceLocation)

	v1.Get("/weather", h.getWeather)
	v1.Post("/weather/refresh", h.refresh)
	v1.Post("/weather/days/:index/toggle", h.toggleDay)
}

// ErrorHandler renders every error as the JSON envelope used by the API.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fErr *fiber.Error
	if errors.As(err, &fErr) {
		code = fErr.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

type handlers struct {
	deps Dependencies
}

type locationsResponse struct {
	Cities  []weather.CityRow `json:"cities"`
	Current *weather.CityRow  `json:"current,omitempty"`
}

func (h *handlers) listLocations(c *fiber.Ctx) error {
	locations := h.deps.Catalog.All()

	device, hasDevice := h.deviceLocation(c.UserContext())
	if hasDevice {
		locations = append([]weather.Location{device}, locations...)
	}

	var rows []weather.CityRow
	if h.deps.Cities != nil {
		rows = h.deps.Cities.Rows(c.UserContext(), locations)
	} else {
		rows = make([]weather.CityRow, 0, len(locations))
		for _, loc := range locations {
			rows = append(rows, weather.CityRow{Location: loc})
		}
	}

	var resp locationsResponse
	if hasDevice {
		resp.Current = &rows[0]
		rows = rows[1:]
	}
	resp.Cities = rows
	return c.JSON(resp)
}

func (h *handlers) deviceLocation(ctx context.Context) (weather.Location, bool) {
	if h.deps.Device == nil {
		return weather.Location{}, false
	}
	loc, err := h.deps.Device.ResolveDeviceLocation(ctx)
	if err != nil {
		h.deps.Logger.Debug("device location unavailable", zap.Error(err))
		return weather.Location{}, false
	}
	return loc, true
}

// selectRequest picks a listed location by ID or an arbitrary named coordinate.
type selectRequest struct {
	ID        string   `json:"id" validate:"omitempty,uuid"`
	Name      string   `json:"name" validate:"omitempty,max=120"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

func (h *handlers) toLocation(ctx context.Context, r selectRequest) (weather.Location, error) {
	if r.ID != "" {
		if loc, ok := h.deps.Catalog.ByID(r.ID); ok {
			return loc, nil
		}
		if loc, ok := h.deviceLocation(ctx); ok && loc.ID == r.ID {
			return loc, nil
		}
		return weather.Location{}, fiber.NewError(fiber.StatusNotFound, "unknown location id")
	}
	if r.Name == "" || r.Latitude == nil || r.Longitude == nil {
		return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, "either id or name, latitude and longitude are required")
	}
	return weather.NewLocation(r.Name, weather.Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude}), nil
}

func (h *handlers) selectLocation(c *fiber.Ctx) error {
	var req selectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	loc, err := h.toLocation(c.UserContext(), req)
	if err != nil {
		return err
	}

	if err := h.deps.Controller.SelectLocation(loc); err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return c.Status(fiber.StatusAccepted).JSON(loc)
}

func (h *handlers) selectDeviceLocation(c *fiber.Ctx) error {
	if h.deps.Device == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, weather.ErrLocationUnavailable.Error())
	}
	loc, err := h.deps.Device.ResolveDeviceLocation(c.UserContext())
	if err != nil {
		if errors.Is(err, weather.ErrLocationUnavailable) {
			return fiber.NewError(fiber.StatusServiceUnavailable, weather.ErrLocationUnavailable.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to resolve device location")
	}

	if err := h.deps.Controller.SelectLocation(loc); err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return c.Status(fiber.StatusAccepted).JSON(loc)
}

type dayResponse struct {
	Title      string            `json:"title"`
	IsExpanded bool              `json:"isExpanded"`
	Icon       string            `json:"icon"`
	Rows       []weather.HourRow `json:"rows"`
}

func newDayResponse(g weather.DayForecastGroup) dayResponse {
	rows := g.Rows
	if rows == nil {
		rows = []weather.HourRow{}
	}
	return dayResponse{Title: g.Title, IsExpanded: g.IsExpanded, Icon: g.Icon(), Rows: rows}
}

type weatherResponse struct {
	Status    weather.Status                 `json:"status"`
	Loading   bool                           `json:"loading"`
	Message   string                         `json:"message,omitempty"`
	Location  *weather.Location              `json:"location,omitempty"`
	TimeZone  string                         `json:"timeZone,omitempty"`
	Headline  string                         `json:"headline,omitempty"`
	Current   *weather.CurrentWeatherSummary `json:"current,omitempty"`
	Range     string                         `json:"range,omitempty"`
	Days      []dayResponse                  `json:"days"`
	Daily     []weather.DailyRow             `json:"daily"`
	UpdatedAt string                         `json:"updatedAt,omitempty"`
}

func (h *handlers) getWeather(c *fiber.Ctx) error {
	state, err := h.deps.Store.Latest()
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read weather state")
		}
		state = weather.State{Status: weather.StatusIdle}
	}

	resp := weatherResponse{
		Status:   state.Status,
		Loading:  state.Loading(),
		Location: state.Location,
		TimeZone: state.TimeZone,
		Headline: state.Headline,
		Current:  state.Current,
		Days:     make([]dayResponse, 0, len(state.Days)),
		Daily:    state.Daily,
	}
	if resp.Daily == nil {
		resp.Daily = []weather.DailyRow{}
	}
	if state.Range != nil {
		resp.Range = state.Range.Label()
	}
	for _, d := range state.Days {
		resp.Days = append(resp.Days, newDayResponse(d))
	}
	if !state.UpdatedAt.IsZero() {
		resp.UpdatedAt = state.UpdatedAt.Format(time.RFC3339)
	}

	switch {
	case state.Loading():
		resp.Message = messageLoading
	case state.Status != weather.StatusReady || len(resp.Days) == 0:
		resp.Message = messageNoData
	}

	return c.JSON(resp)
}

func (h *handlers) refresh(c *fiber.Ctx) error {
	if err := h.deps.Controller.Refresh(); err != nil {
		if errors.Is(err, weather.ErrNoActiveLocation) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return c.SendStatus(fiber.StatusAccepted)
}

func (h *handlers) toggleDay(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "day index must be an integer")
	}

	group, err := h.deps.Controller.ToggleDay(index)
	if err != nil {
		if errors.Is(err, weather.ErrDayOutOfRange) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(newDayResponse(group))
}
