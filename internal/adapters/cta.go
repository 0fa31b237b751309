// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package adapters

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/homedash/internal/cache"
	"github.com/tomtom215/homedash/internal/config"
	"github.com/tomtom215/homedash/internal/logging"
	"github.com/tomtom215/homedash/internal/models"
)

// Messages returned when a CTA key is missing.
const (
	CTANotConfiguredMessage      = "CTA API key not configured"
	CTATrainNotConfiguredMessage = "CTA Train API key not configured"
)

const (
	ctaKeyArrivals   = "cta.arrivals"
	ctaCacheKey      = "arrivals"
	ctaMaxConcurrent = 8

	// Bus Tracker and Train Tracker timestamps, Chicago local time.
	ctaBusTimeLayout   = "20060102 15:04"
	ctaTrainTimeLayout = "2006-01-02T15:04:05"
)

// Train Tracker direction codes (trDr) for the common cardinal names.
var ctaTrainDirections = map[string]string{
	"northbound": "1",
	"southbound": "5",
}

type ctaBusPrediction struct {
	Timestamp   string `json:"tmstmp"`
	Type        string `json:"typ"`
	StopName    string `json:"stpnm"`
	StopID      string `json:"stpid"`
	Route       string `json:"rt"`
	Direction   string `json:"rtdir"`
	Destination string `json:"des"`
	PredictedAt string `json:"prdtm"`
	Delayed     bool   `json:"dly"`
	Countdown   string `json:"prdctdn"`
}

type ctaBusError struct {
	Route  string `json:"rt"`
	StopID string `json:"stpid"`
	Msg    string `json:"msg"`
}

type ctaBusResponse struct {
	Body struct {
		Predictions []ctaBusPrediction `json:"prd"`
		Errors      []ctaBusError      `json:"error"`
	} `json:"bustime-response"`
}

type ctaTrainETA struct {
	StationID   string `json:"staId"`
	StopID      string `json:"stpId"`
	StationName string `json:"staNm"`
	StopDesc    string `json:"stpDe"`
	Route       string `json:"rt"`
	Destination string `json:"destNm"`
	Direction   string `json:"trDr"`
	PredictedAt string `json:"prdt"`
	ArrivalAt   string `json:"arrT"`
	Approaching string `json:"isApp"`
	Delayed     string `json:"isDly"`
}

type ctaTrainResponse struct {
	Body struct {
		ErrCode string        `json:"errCd"`
		ErrName *string       `json:"errNm"`
		ETAs    []ctaTrainETA `json:"eta"`
	} `json:"ctatt"`
}

// ctaRoute is one parsed "route:stop:direction" entry.
type ctaRoute struct {
	mode      string
	route     string
	stop      string
	direction string
	invalid   string
}

// CTAAdapter reads bus and train predictions from the CTA trackers.
type CTAAdapter struct {
	cfg         config.CTAConfig
	http        vendorHTTP
	breaker     *Breaker
	snapshots   snapshots
	cache       *cache.Cache
	ownsCache   bool
	location    *time.Location
	now         func() time.Time
	busRoutes   []ctaRoute
	trainRoutes []ctaRoute
}

// CTAOption configures a CTAAdapter.
type CTAOption func(*CTAAdapter)

func WithCTAHTTPClient(c *http.Client) CTAOption {
	return func(a *CTAAdapter) { a.http = newVendorHTTP(ServiceCTA, c, a.cfg.Timeout) }
}

func WithCTASnapshots(store SnapshotStore, mode ModeReporter) CTAOption {
	return func(a *CTAAdapter) { a.snapshots = snapshots{store: store, mode: mode} }
}

// WithCTACache replaces the response cache. The caller keeps ownership.
func WithCTACache(c *cache.Cache) CTAOption {
	return func(a *CTAAdapter) { a.cache = c }
}

func WithCTAClock(now func() time.Time) CTAOption {
	return func(a *CTAAdapter) { a.now = now }
}

// NewCTAAdapter creates a CTA adapter. Route strings that cannot be parsed
// are reported per route on every query rather than failing construction.
func NewCTAAdapter(cfg config.CTAConfig, opts ...CTAOption) *CTAAdapter {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	a := &CTAAdapter{
		cfg:         cfg,
		http:        newVendorHTTP(ServiceCTA, nil, cfg.Timeout),
		breaker:     NewBreaker(ServiceCTA, BreakerSettings{}),
		location:    chicagoLocation(),
		now:         time.Now,
		busRoutes:   parseCTARoutes(models.TransitBus, cfg.BusRoutes),
		trainRoutes: parseCTARoutes(models.TransitTrain, cfg.TrainRoutes),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.cache == nil {
		a.cache = cache.New(ServiceCTA, cfg.CacheTTL)
		a.ownsCache = true
	}
	return a
}

func (a *CTAAdapter) Name() string { return ServiceCTA }

func (a *CTAAdapter) IsConfigured() bool { return a.cfg.IsConfigured() }

func (a *CTAAdapter) DegradeOnUnreachable() bool { return a.cfg.DegradeOnUnreachable }

// Close releases the response cache when the adapter created it.
func (a *CTAAdapter) Close() {
	if a.ownsCache {
		a.cache.Close()
	}
}

// Arrivals queries every configured route concurrently. A failing route is
// reported in its RouteArrivals.Error; the call itself only fails when the
// adapter is unconfigured or every route was unreachable.
func (a *CTAAdapter) Arrivals(ctx context.Context) (models.Arrivals, Origin, error) {
	if v, ok := a.cache.Get(ctaCacheKey); ok {
		if arrivals, ok := v.(models.Arrivals); ok {
			return arrivals, Live(), nil
		}
	}
	arrivals, origin, err := readCloud(ctx, a.snapshots, ServiceCTA, ctaKeyArrivals, a.fetchArrivals)
	if err == nil && origin.Source == models.SourceLive {
		a.cache.Set(ctaCacheKey, arrivals)
	}
	return arrivals, origin, err
}

func (a *CTAAdapter) fetchArrivals(ctx context.Context) (models.Arrivals, error) {
	if !a.IsConfigured() {
		return models.Arrivals{}, NewConfigurationError(ServiceCTA, CTANotConfiguredMessage)
	}

	result := models.Arrivals{
		Bus:       make([]models.RouteArrivals, len(a.busRoutes)),
		Train:     make([]models.RouteArrivals, len(a.trainRoutes)),
		FetchedAt: a.now(),
	}
	busErrs := make([]error, len(a.busRoutes))
	trainErrs := make([]error, len(a.trainRoutes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ctaMaxConcurrent)
	for i, r := range a.busRoutes {
		g.Go(func() error {
			result.Bus[i], busErrs[i] = a.busArrivals(gctx, r)
			return nil
		})
	}
	for i, r := range a.trainRoutes {
		g.Go(func() error {
			result.Train[i], trainErrs[i] = a.trainArrivals(gctx, r)
			return nil
		})
	}
	_ = g.Wait()

	if err := allUnavailable(append(busErrs, trainErrs...)); err != nil {
		return models.Arrivals{}, err
	}
	return result, nil
}

// allUnavailable returns the first error when every route failed because
// the trackers could not be reached.
func allUnavailable(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	for _, err := range errs {
		if KindOf(err) != KindUpstreamUnavailable {
			return nil
		}
	}
	return errs[0]
}

func (a *CTAAdapter) busArrivals(ctx context.Context, r ctaRoute) (models.RouteArrivals, error) {
	out := newRouteArrivals(r)
	if r.invalid != "" {
		out.Error = r.invalid
		return out, nil
	}
	if a.cfg.BusAPIKey == "" {
		out.Error = CTANotConfiguredMessage
		return out, nil
	}

	q := url.Values{}
	q.Set("key", a.cfg.BusAPIKey)
	q.Set("rt", r.route)
	q.Set("stpid", r.stop)
	q.Set("format", "json")

	resp, err := call(a.breaker, func() (ctaBusResponse, error) {
		var resp ctaBusResponse
		err := a.http.getJSON(ctx, a.cfg.BusURL+"?"+q.Encode(), nil, &resp)
		return resp, err
	})
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("route", r.route).Msg("CTA bus query failed")
		out.Error = PublicMessage(err)
		return out, err
	}

	for _, p := range resp.Body.Predictions {
		if r.direction != "" && !strings.EqualFold(p.Direction, r.direction) {
			continue
		}
		out.Arrivals = append(out.Arrivals, a.busArrival(p))
	}
	if len(out.Arrivals) == 0 && len(resp.Body.Errors) > 0 {
		out.Error = resp.Body.Errors[0].Msg
	}
	sortArrivals(out.Arrivals)
	return out, nil
}

func (a *CTAAdapter) busArrival(p ctaBusPrediction) models.Arrival {
	arrival := models.Arrival{
		Route:       p.Route,
		Stop:        p.StopID,
		StopName:    p.StopName,
		Direction:   p.Direction,
		Destination: p.Destination,
		IsDelayed:   p.Delayed,
	}
	if t, err := time.ParseInLocation(ctaBusTimeLayout, p.PredictedAt, a.location); err == nil {
		arrival.ArrivalTime = t
	}
	switch strings.ToUpper(p.Countdown) {
	case "DUE":
		arrival.IsApproach = true
	case "DLY":
		arrival.IsDelayed = true
	default:
		if n, err := strconv.Atoi(p.Countdown); err == nil {
			arrival.Minutes = n
		}
	}
	return arrival
}

func (a *CTAAdapter) trainArrivals(ctx context.Context, r ctaRoute) (models.RouteArrivals, error) {
	out := newRouteArrivals(r)
	if r.invalid != "" {
		out.Error = r.invalid
		return out, nil
	}
	if a.cfg.TrainAPIKey == "" {
		out.Error = CTATrainNotConfiguredMessage
		return out, nil
	}

	q := url.Values{}
	q.Set("key", a.cfg.TrainAPIKey)
	q.Set("mapid", r.stop)
	q.Set("rt", r.route)
	q.Set("outputType", "JSON")

	resp, err := call(a.breaker, func() (ctaTrainResponse, error) {
		var resp ctaTrainResponse
		err := a.http.getJSON(ctx, a.cfg.TrainURL+"?"+q.Encode(), nil, &resp)
		return resp, err
	})
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("route", r.route).Msg("CTA train query failed")
		out.Error = PublicMessage(err)
		return out, err
	}
	if resp.Body.ErrCode != "" && resp.Body.ErrCode != "0" {
		msg := "CTA Train API error " + resp.Body.ErrCode
		if resp.Body.ErrName != nil && *resp.Body.ErrName != "" {
			msg = *resp.Body.ErrName
		}
		out.Error = msg
		return out, nil
	}

	wantDir := ctaTrainDirections[strings.ToLower(r.direction)]
	for _, eta := range resp.Body.ETAs {
		if wantDir != "" && eta.Direction != wantDir {
			continue
		}
		out.Arrivals = append(out.Arrivals, a.trainArrival(eta, r.direction))
	}
	sortArrivals(out.Arrivals)
	return out, nil
}

func (a *CTAAdapter) trainArrival(eta ctaTrainETA, direction string) models.Arrival {
	arrival := models.Arrival{
		Route:       eta.Route,
		Stop:        eta.StationID,
		StopName:    eta.StationName,
		Direction:   direction,
		Destination: eta.Destination,
		IsDelayed:   eta.Delayed == "1",
		IsApproach:  eta.Approaching == "1",
	}
	if arrival.Direction == "" {
		arrival.Direction = eta.StopDesc
	}
	arrT, errA := time.ParseInLocation(ctaTrainTimeLayout, eta.ArrivalAt, a.location)
	prdT, errP := time.ParseInLocation(ctaTrainTimeLayout, eta.PredictedAt, a.location)
	if errA == nil {
		arrival.ArrivalTime = arrT
		if errP == nil {
			arrival.Minutes = int(math.Max(0, math.Round(arrT.Sub(prdT).Minutes())))
		}
	}
	return arrival
}

// Refresh re-queries every route, bypassing the response cache.
func (a *CTAAdapter) Refresh(ctx context.Context, force bool) (models.SyncResult, error) {
	start := time.Now()
	result := models.SyncResult{Service: ServiceCTA}
	arrivals, err := a.fetchArrivals(ctx)
	if err != nil {
		return result, err
	}
	a.cache.Set(ctaCacheKey, arrivals)
	written := 0
	if a.snapshots.save(ctaKeyArrivals, arrivals, force) {
		written = 1
	}
	return finishSync(result, written, start), nil
}

func newRouteArrivals(r ctaRoute) models.RouteArrivals {
	return models.RouteArrivals{
		Mode:      r.mode,
		Route:     r.route,
		Stop:      r.stop,
		Direction: r.direction,
		Arrivals:  []models.Arrival{},
	}
}

func sortArrivals(arrivals []models.Arrival) {
	sort.SliceStable(arrivals, func(i, j int) bool {
		return arrivals[i].ArrivalTime.Before(arrivals[j].ArrivalTime)
	})
}

// parseCTARoutes parses "route:stop[:direction]" entries.
func parseCTARoutes(mode string, specs []string) []ctaRoute {
	routes := make([]ctaRoute, 0, len(specs))
	for _, s := range specs {
		parts := strings.Split(strings.TrimSpace(s), ":")
		r := ctaRoute{mode: mode}
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
			r.route = s
			r.invalid = fmt.Sprintf("invalid %s route %q, expected route:stop:direction", mode, s)
			routes = append(routes, r)
			continue
		}
		r.route, r.stop = parts[0], parts[1]
		if len(parts) == 3 {
			r.direction = parts[2]
		}
		routes = append(routes, r)
	}
	return routes
}

func chicagoLocation() *time.Location {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		logging.Warn().Err(err).Msg("Chicago time zone unavailable, parsing CTA times as UTC")
		return time.UTC
	}
	return loc
}
