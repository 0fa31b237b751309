// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package adapters

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/homedash/internal/config"
	"github.com/tomtom215/homedash/internal/models"
)

// HueNotConfiguredMessage is returned for every call on an unconfigured bridge.
const HueNotConfiguredMessage = "HUE bridge not configured"

// Snapshot keys for Hue resources.
const (
	hueKeyZones         = "hue.zones"
	hueKeyLights        = "hue.lights"
	hueKeyScenes        = "hue.scenes"
	hueKeyEntertainment = "hue.entertainment"
)

// Hue group types.
const (
	hueTypeRoom          = "Room"
	hueTypeZone          = "Zone"
	hueTypeEntertainment = "Entertainment"
	hueTypeLightGroup    = "LightGroup"
)

// hueAllLightsGroup is the bridge's built-in group containing every light.
const hueAllLightsGroup = "0"

// HueAdapter exposes a Philips Hue bridge. In production mode reads are
// served from snapshots; in local mode they go to the bridge and are
// written through to the snapshot store.
type HueAdapter struct {
	cfg       config.HueConfig
	client    *hueClient
	snapshots snapshots
}

// HueOption configures a HueAdapter.
type HueOption func(*hueOptions)

type hueOptions struct {
	httpClient *http.Client
	store      SnapshotStore
	mode       ModeReporter
}

// WithHueHTTPClient overrides the HTTP client.
func WithHueHTTPClient(c *http.Client) HueOption {
	return func(o *hueOptions) { o.httpClient = c }
}

// WithHueSnapshots enables snapshot reads and write-through.
func WithHueSnapshots(store SnapshotStore, mode ModeReporter) HueOption {
	return func(o *hueOptions) {
		o.store = store
		o.mode = mode
	}
}

// NewHueAdapter creates a Hue adapter. An unconfigured adapter is valid and
// reports IsConfigured() == false.
func NewHueAdapter(cfg config.HueConfig, opts ...HueOption) *HueAdapter {
	var o hueOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &HueAdapter{
		cfg:       cfg,
		client:    newHueClient(cfg.BridgeIP, cfg.Username, newVendorHTTP(ServiceHue, o.httpClient, cfg.Timeout)),
		snapshots: snapshots{store: o.store, mode: o.mode},
	}
}

func (a *HueAdapter) Name() string { return ServiceHue }

func (a *HueAdapter) IsConfigured() bool { return a.cfg.IsConfigured() }

func (a *HueAdapter) DegradeOnUnreachable() bool { return a.cfg.DegradeOnUnreachable }

// Probe implements mode.Prober with GET /api/<user>/config.
func (a *HueAdapter) Probe(ctx context.Context) error {
	if !a.IsConfigured() {
		return errors.New(HueNotConfiguredMessage)
	}
	return a.client.probe(ctx)
}

func (a *HueAdapter) notConfigured() error {
	return NewConfigurationError(ServiceHue, HueNotConfiguredMessage)
}

// Zones lists groups of type Room and Zone sorted by numeric id.
func (a *HueAdapter) Zones(ctx context.Context) ([]models.Zone, Origin, error) {
	return readLocal(ctx, a.snapshots, ServiceHue, hueKeyZones, a.fetchZones)
}

func (a *HueAdapter) fetchZones(ctx context.Context) ([]models.Zone, error) {
	if !a.IsConfigured() {
		return nil, a.notConfigured()
	}
	groups, err := a.client.groups(ctx)
	if err != nil {
		return nil, err
	}
	a.snapshots.save(hueKeyEntertainment, entertainmentFromGroups(groups), false)
	return zonesFromGroups(groups), nil
}

// ToggleZone switches every light in a zone. A nil on flips the zone based
// on any_on.
func (a *HueAdapter) ToggleZone(ctx context.Context, id string, on *bool) (models.Zone, error) {
	if !a.IsConfigured() {
		return models.Zone{}, a.notConfigured()
	}
	g, err := a.zoneGroup(ctx, id)
	if err != nil {
		return models.Zone{}, err
	}

	target := !g.State.AnyOn
	if on != nil {
		target = *on
	}
	if err := a.client.setGroupAction(ctx, id, map[string]interface{}{"on": target}); err != nil {
		return models.Zone{}, err
	}

	zone := zoneFromGroup(id, g)
	zone.AnyOn = target
	zone.AllOn = target
	return zone, nil
}

// SetZoneBrightness sets brightness (1..254) on a zone and turns it on.
func (a *HueAdapter) SetZoneBrightness(ctx context.Context, id string, brightness int) (models.Zone, error) {
	if !a.IsConfigured() {
		return models.Zone{}, a.notConfigured()
	}
	if brightness < 1 || brightness > 254 {
		return models.Zone{}, NewValidationError(ServiceHue, "Brightness must be between 1 and 254")
	}
	g, err := a.zoneGroup(ctx, id)
	if err != nil {
		return models.Zone{}, err
	}
	if err := a.client.setGroupAction(ctx, id, map[string]interface{}{"bri": brightness, "on": true}); err != nil {
		return models.Zone{}, err
	}

	zone := zoneFromGroup(id, g)
	zone.AnyOn = true
	zone.AllOn = true
	zone.Brightness = brightness
	return zone, nil
}

// zoneGroup fetches a group that can be switched as a whole: a room, a
// zone, a light group, or group 0 (all lights).
func (a *HueAdapter) zoneGroup(ctx context.Context, id string) (hueGroup, error) {
	g, err := a.client.group(ctx, id)
	if err != nil {
		return hueGroup{}, err
	}
	switch {
	case id == hueAllLightsGroup:
	case g.Type == hueTypeRoom, g.Type == hueTypeZone, g.Type == hueTypeLightGroup:
	default:
		return hueGroup{}, NewNotFoundError(ServiceHue, "zone "+id+" not found")
	}
	return g, nil
}

// Lights lists every light on the bridge.
func (a *HueAdapter) Lights(ctx context.Context) ([]models.Light, Origin, error) {
	return readLocal(ctx, a.snapshots, ServiceHue, hueKeyLights, a.fetchLights)
}

func (a *HueAdapter) fetchLights(ctx context.Context) ([]models.Light, error) {
	if !a.IsConfigured() {
		return nil, a.notConfigured()
	}
	raw, err := a.client.lights(ctx)
	if err != nil {
		return nil, err
	}
	lights := make([]models.Light, 0, len(raw))
	for id, l := range raw {
		lights = append(lights, lightFromHue(id, l))
	}
	sort.Slice(lights, func(i, j int) bool { return idLess(lights[i].ID, lights[j].ID) })
	return lights, nil
}

// ToggleLight switches one light. A nil on flips its current state.
func (a *HueAdapter) ToggleLight(ctx context.Context, id string, on *bool) (models.Light, error) {
	if !a.IsConfigured() {
		return models.Light{}, a.notConfigured()
	}
	l, err := a.client.light(ctx, id)
	if err != nil {
		return models.Light{}, err
	}
	target := !l.State.On
	if on != nil {
		target = *on
	}
	if err := a.client.setLightState(ctx, id, map[string]interface{}{"on": target}); err != nil {
		return models.Light{}, err
	}
	light := lightFromHue(id, l)
	light.On = target
	return light, nil
}

// SetLightBrightness sets brightness (0..254) on one light and turns it on.
func (a *HueAdapter) SetLightBrightness(ctx context.Context, id string, brightness int) (models.Light, error) {
	if !a.IsConfigured() {
		return models.Light{}, a.notConfigured()
	}
	if brightness < 0 || brightness > 254 {
		return models.Light{}, NewValidationError(ServiceHue, "Brightness must be between 0 and 254")
	}
	l, err := a.client.light(ctx, id)
	if err != nil {
		return models.Light{}, err
	}
	if err := a.client.setLightState(ctx, id, map[string]interface{}{"bri": brightness, "on": true}); err != nil {
		return models.Light{}, err
	}
	light := lightFromHue(id, l)
	light.On = true
	light.Brightness = brightness
	return light, nil
}

// Scenes lists scenes, optionally only those belonging to zoneID. A scene
// belongs to a zone when it is bound to the group or when all of its lights
// are in the zone.
func (a *HueAdapter) Scenes(ctx context.Context, zoneID string) ([]models.Scene, Origin, error) {
	scenes, origin, err := readLocal(ctx, a.snapshots, ServiceHue, hueKeyScenes, a.fetchScenes)
	if err != nil || zoneID == "" {
		return scenes, origin, err
	}

	zones, _, err := a.Zones(ctx)
	if err != nil {
		return nil, origin, err
	}
	for _, z := range zones {
		if z.ID == zoneID {
			return scenesForZone(scenes, z), origin, nil
		}
	}
	return nil, origin, NewNotFoundError(ServiceHue, "zone "+zoneID+" not found")
}

func (a *HueAdapter) fetchScenes(ctx context.Context) ([]models.Scene, error) {
	if !a.IsConfigured() {
		return nil, a.notConfigured()
	}
	raw, err := a.client.scenes(ctx)
	if err != nil {
		return nil, err
	}
	scenes := make([]models.Scene, 0, len(raw))
	for id, s := range raw {
		scenes = append(scenes, models.Scene{ID: id, Name: s.Name, Type: s.Type, Group: s.Group, Lights: nonNil(s.Lights)})
	}
	sort.Slice(scenes, func(i, j int) bool {
		if scenes[i].Name != scenes[j].Name {
			return scenes[i].Name < scenes[j].Name
		}
		return scenes[i].ID < scenes[j].ID
	})
	return scenes, nil
}

// ActivateScene recalls a scene on a zone.
func (a *HueAdapter) ActivateScene(ctx context.Context, zoneID, sceneID string) error {
	if !a.IsConfigured() {
		return a.notConfigured()
	}
	return a.client.setGroupAction(ctx, zoneID, map[string]interface{}{"scene": sceneID})
}

// LightsStatus summarises all lights. The average brightness covers lit
// lights only.
func (a *HueAdapter) LightsStatus(ctx context.Context) (models.LightsStatus, Origin, error) {
	lights, origin, err := a.Lights(ctx)
	if err != nil {
		return models.LightsStatus{}, origin, err
	}
	return summarizeLights(lights), origin, nil
}

// EntertainmentAreas lists groups of type Entertainment.
func (a *HueAdapter) EntertainmentAreas(ctx context.Context) ([]models.EntertainmentArea, Origin, error) {
	return readLocal(ctx, a.snapshots, ServiceHue, hueKeyEntertainment, func(ctx context.Context) ([]models.EntertainmentArea, error) {
		if !a.IsConfigured() {
			return nil, a.notConfigured()
		}
		groups, err := a.client.groups(ctx)
		if err != nil {
			return nil, err
		}
		a.snapshots.save(hueKeyZones, zonesFromGroups(groups), false)
		return entertainmentFromGroups(groups), nil
	})
}

// SetEntertainmentStreaming starts or stops streaming on an entertainment area.
func (a *HueAdapter) SetEntertainmentStreaming(ctx context.Context, id string, active bool) (models.EntertainmentArea, error) {
	if !a.IsConfigured() {
		return models.EntertainmentArea{}, a.notConfigured()
	}
	g, err := a.client.group(ctx, id)
	if err != nil {
		return models.EntertainmentArea{}, err
	}
	if g.Type != hueTypeEntertainment {
		return models.EntertainmentArea{}, NewNotFoundError(ServiceHue, "entertainment area "+id+" not found")
	}
	if err := a.client.setGroupAttributes(ctx, id, map[string]interface{}{"stream": map[string]bool{"active": active}}); err != nil {
		return models.EntertainmentArea{}, err
	}
	area := entertainmentFromGroup(id, g)
	area.Active = active
	return area, nil
}

// Refresh fetches zones, lights and scenes concurrently and records them.
func (a *HueAdapter) Refresh(ctx context.Context, force bool) (models.SyncResult, error) {
	start := time.Now()
	result := models.SyncResult{Service: ServiceHue}
	if !a.IsConfigured() {
		return result, a.notConfigured()
	}

	var (
		groups map[string]hueGroup
		lights []models.Light
		scenes []models.Scene
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { groups, err = a.client.groups(gctx); return err })
	g.Go(func() (err error) { lights, err = a.fetchLights(gctx); return err })
	g.Go(func() (err error) { scenes, err = a.fetchScenes(gctx); return err })
	if err := g.Wait(); err != nil {
		return result, err
	}

	written := 0
	for key, v := range map[string]interface{}{
		hueKeyZones:         zonesFromGroups(groups),
		hueKeyEntertainment: entertainmentFromGroups(groups),
		hueKeyLights:        lights,
		hueKeyScenes:        scenes,
	} {
		if a.snapshots.save(key, v, force) {
			written++
		}
	}
	return finishSync(result, written, start), nil
}

func zonesFromGroups(groups map[string]hueGroup) []models.Zone {
	zones := make([]models.Zone, 0, len(groups))
	for id, g := range groups {
		if g.Type == hueTypeRoom || g.Type == hueTypeZone {
			zones = append(zones, zoneFromGroup(id, g))
		}
	}
	sort.Slice(zones, func(i, j int) bool { return idLess(zones[i].ID, zones[j].ID) })
	return zones
}

func zoneFromGroup(id string, g hueGroup) models.Zone {
	return models.Zone{
		ID:         id,
		Name:       g.Name,
		Type:       g.Type,
		Class:      g.Class,
		Lights:     nonNil(g.Lights),
		AnyOn:      g.State.AnyOn,
		AllOn:      g.State.AllOn,
		Brightness: g.Action.Bri,
	}
}

func entertainmentFromGroups(groups map[string]hueGroup) []models.EntertainmentArea {
	areas := make([]models.EntertainmentArea, 0)
	for id, g := range groups {
		if g.Type == hueTypeEntertainment {
			areas = append(areas, entertainmentFromGroup(id, g))
		}
	}
	sort.Slice(areas, func(i, j int) bool { return idLess(areas[i].ID, areas[j].ID) })
	return areas
}

func entertainmentFromGroup(id string, g hueGroup) models.EntertainmentArea {
	area := models.EntertainmentArea{ID: id, Name: g.Name, Class: g.Class, Lights: nonNil(g.Lights)}
	if g.Stream != nil {
		area.Active = g.Stream.Active
		area.ProxyMAC = g.Stream.ProxyNode
		if g.Stream.Owner != nil {
			area.Owner = *g.Stream.Owner
		}
	}
	return area
}

func lightFromHue(id string, l hueLight) models.Light {
	return models.Light{
		ID:         id,
		Name:       l.Name,
		Type:       l.Type,
		ModelID:    l.ModelID,
		On:         l.State.On,
		Brightness: l.State.Bri,
		Reachable:  l.State.Reachable,
	}
}

func scenesForZone(scenes []models.Scene, zone models.Zone) []models.Scene {
	inZone := make(map[string]bool, len(zone.Lights))
	for _, l := range zone.Lights {
		inZone[l] = true
	}

	matched := make([]models.Scene, 0)
	for _, s := range scenes {
		if s.Group == zone.ID {
			matched = append(matched, s)
			continue
		}
		if len(s.Lights) == 0 {
			continue
		}
		all := true
		for _, l := range s.Lights {
			if !inZone[l] {
				all = false
				break
			}
		}
		if all {
			matched = append(matched, s)
		}
	}
	return matched
}

func summarizeLights(lights []models.Light) models.LightsStatus {
	status := models.LightsStatus{TotalLights: len(lights)}
	total := 0
	for _, l := range lights {
		if l.On {
			status.LightsOn++
			total += l.Brightness
		}
	}
	status.AnyOn = status.LightsOn > 0
	status.AllOn = status.TotalLights > 0 && status.LightsOn == status.TotalLights
	if status.LightsOn > 0 {
		status.AverageBrightness = total / status.LightsOn
	}
	return status
}

// idLess orders Hue ids numerically when both are numbers.
func idLess(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func finishSync(result models.SyncResult, written int, start time.Time) models.SyncResult {
	result.RecordsWritten = written
	result.Status = models.SyncStatusSuccess
	if written == 0 {
		result.Status = models.SyncStatusSkipped
	}
	result.Duration = time.Since(start)
	result.DurationMS = result.Duration.Milliseconds()
	return result
}
