package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geo-map/internal/geomap"
	"github.com/joeblew999/geo-map/internal/humastar"
	"github.com/joeblew999/geo-map/internal/mapconfig"
	"github.com/joeblew999/geo-map/internal/service"
	"github.com/joeblew999/geo-map/internal/viewport"
)

// EventHandler streams map session events to Datastar clients via SSE.
type EventHandler struct {
	humastar.Handler
	svc *Services
}

// NewEventHandler creates a new event handler.
func NewEventHandler(svc *Services) *EventHandler {
	return &EventHandler{svc: svc}
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/maps/{id}/events", h.Events,
		huma.OperationTags("maps"),
	)
}

func (h *EventHandler) Events(ctx context.Context, input *MapIDInput) (*huma.StreamResponse, error) {
	if h.svc == nil || h.svc.Bus == nil || h.svc.Maps == nil {
		return nil, huma.Error404NotFound("service not available")
	}
	ch, st, ok := openStream(h.svc.Maps, h.svc.Bus, input.ID)
	if !ok {
		return nil, huma.Error404NotFound("map not found")
	}
	bus := h.svc.Bus

	return h.Stream(func(sse humastar.SSE) {
		defer bus.Unsubscribe(ch)

		sse.Signals(stateSignals(st))
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				if signals := eventSignals(ev); signals != nil {
					sse.Signals(signals)
				}
				sse.DispatchCustomEvent("map-"+ev.Action, map[string]any{
					"id":      ev.ID,
					"action":  ev.Action,
					"payload": ev.Payload,
				})
				if ev.Action == "deleted" {
					sse.Error("map deleted")
					return
				}
			}
		}
	}), nil
}

// openStream subscribes to a session before reading its state, so no
// event between the two is lost. The subscription is released when the
// session does not exist.
func openStream(maps *service.MapService, bus *service.EventBus, id string) (chan service.Event, service.MapState, bool) {
	ch := bus.SubscribeMap(id)
	st, ok := maps.Get(id)
	if !ok {
		bus.Unsubscribe(ch)
		return nil, service.MapState{}, false
	}
	return ch, st, true
}

// stateSignals is the initial signal patch for a stream.
func stateSignals(st service.MapState) map[string]any {
	return map[string]any{
		"mapId":     st.ID,
		"loaded":    st.Loaded,
		"zoom":      st.Zoom,
		"proximity": st.Proximity,
		"classes":   st.Classes,
	}
}

// eventSignals maps a session event to the signals it changes, or nil if
// it changes none.
func eventSignals(ev service.Event) map[string]any {
	switch p := ev.Payload.(type) {
	case mapconfig.Snapshot:
		return map[string]any{
			"loaded": true,
			"zoom":   p.Zoom,
		}
	case geomap.ViewportChange:
		return map[string]any{
			"zoom":      p.Zoom,
			"center":    [2]float64(p.Center),
			"bounds":    p.Bounds,
			"proximity": p.Proximity.String(),
			"classes":   classNames(viewport.Presentation(p.Proximity)),
		}
	case geomap.LayersChange:
		ids := make([]string, 0, len(p.Layers))
		for _, l := range p.Layers {
			ids = append(ids, l.ID)
		}
		return map[string]any{
			"geometryTypes": p.Analysis.GeometryTypes,
			"layers":        ids,
		}
	}
	if ev.Action == "deleted" {
		return map[string]any{"loaded": false}
	}
	return nil
}

func classNames(c viewport.ClassSet) []string {
	return []string{c.Active().String()}
}
