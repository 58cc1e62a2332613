package api

import (
	"context"
)

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	DataDir  string   `json:"data_dir" doc:"Data directory path"`
	Sessions int      `json:"sessions" doc:"Open map sessions"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *APIHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	body := InfoBody{
		Name:     "geo-map",
		Version:  Version,
		Features: []string{"config-resolve", "proximity", "geojson-style", "sessions", "sse"},
	}
	if h.svc != nil {
		body.DataDir = h.svc.DataDir
		if h.svc.Maps != nil {
			body.Sessions = len(h.svc.Maps.List())
		}
	}
	return &struct{ Body InfoBody }{Body: body}, nil
}
