// Package service contains the map session and GeoJSON source services
// behind the HTTP API.
package service

import (
	"github.com/joeblew999/geo-map/internal/geostyle"
	"github.com/joeblew999/geo-map/internal/mapconfig"
)

// MapState is the externally visible state of a map session.
type MapState struct {
	ID        string                `json:"id" doc:"Map instance identifier" example:"dtrm-1f0c2a9b7d3e4f50-1729300000000"`
	Snapshot  mapconfig.Snapshot    `json:"snapshot" doc:"Resolved configuration, without the access token"`
	Loaded    bool                  `json:"loaded" doc:"Whether initial setup has completed"`
	Proximity string                `json:"proximity" enum:"far,middle,near" doc:"Current proximity state"`
	Classes   []string              `json:"classes" doc:"Presentation classes currently on the host"`
	Zoom      float64               `json:"zoom" doc:"Last zoom reported by the engine"`
	Layers    []geostyle.LayerStyle `json:"layers" doc:"Layers registered for the current dataset"`
}

// MoveInput is a camera position reported by the renderer at move end.
type MoveInput struct {
	Center [2]float64       `json:"center" doc:"Camera center as [longitude, latitude]"`
	Bounds mapconfig.Bounds `json:"bounds" doc:"Visible box as [west, south, east, north]"`
	Zoom   float64          `json:"zoom" doc:"Zoom level" example:"12.5"`
}

// SourceFile represents a GeoJSON source file.
type SourceFile struct {
	Name     string `json:"name" doc:"File name" example:"parcels.geojson"`
	Size     string `json:"size" doc:"Human-readable file size" example:"1.2 MB"`
	FileType string `json:"fileType" doc:"File type" example:"GeoJSON"`
}

// SourceStyle is the synthesized style for a source file.
type SourceStyle struct {
	Name     string                `json:"name" doc:"Source file name"`
	Analysis geostyle.Analysis     `json:"analysis" doc:"Geometry and property inventory"`
	Layers   []geostyle.LayerStyle `json:"layers" doc:"Default layers, one per geometry type"`
}
