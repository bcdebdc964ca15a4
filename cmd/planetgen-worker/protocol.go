package main

import "encoding/json"

// Message kinds exchanged over the worker's WebSocket command channel.
const (
	commandGenerate       = "generate"
	commandReapply        = "reapply"
	commandEditRecompute  = "editRecompute"
	eventDone             = "done"
	eventReapplyDone      = "reapplyDone"
	eventEditDone         = "editDone"
	eventProgress         = "progress"
	eventError            = "error"
)

// clientMessage is the envelope every inbound WebSocket frame uses,
// the worker-side analog of the teacher's websocket.ClientMessage.
type clientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// serverMessage is the envelope every outbound frame uses.
type serverMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// generatePayload mirrors session.Inputs over the wire.
type generatePayload struct {
	Seed             int64   `json:"seed"`
	N                int     `json:"n"`
	P                int     `json:"p"`
	Jitter           float64 `json:"jitter"`
	NMag             float64 `json:"nMag"`
	NumContinents    int     `json:"numContinents"`
	Smoothing        float64 `json:"smoothing"`
	GlacialErosion   float64 `json:"glacialErosion"`
	HydraulicErosion float64 `json:"hydraulicErosion"`
	ThermalErosion   float64 `json:"thermalErosion"`
	RidgeSharpening  float64 `json:"ridgeSharpening"`
	ToggledIndices   []int   `json:"toggledIndices,omitempty"`
}

// postParamsPayload mirrors session.PostParams over the wire.
type postParamsPayload struct {
	Smoothing        float64 `json:"smoothing"`
	GlacialErosion   float64 `json:"glacialErosion"`
	HydraulicErosion float64 `json:"hydraulicErosion"`
	ThermalErosion   float64 `json:"thermalErosion"`
	RidgeSharpening  float64 `json:"ridgeSharpening"`
}

// editRecomputePayload carries the editor overrides plus post params.
type editRecomputePayload struct {
	PlateIsOcean  map[string]bool    `json:"plateIsOcean,omitempty"`
	PlateDensity  map[string]float64 `json:"plateDensity,omitempty"`
	PostParams    postParamsPayload  `json:"postParams"`
}

// errorPayload is the {message} shape the spec's error events require.
type errorPayload struct {
	Message string `json:"message"`
}

// progressPayload is the {pct, label} shape the spec's progress events
// require.
type progressPayload struct {
	Pct   float64 `json:"pct"`
	Label string  `json:"label"`
}
