package main

import (
	"planetgen/internal/worldgen/climate"
	"planetgen/internal/worldgen/session"
)

// seasonPayload is the wire shape of one climate.SeasonalField.
type seasonPayload struct {
	Pressure      []float64 `json:"pressure"`
	WindE         []float64 `json:"windE"`
	WindN         []float64 `json:"windN"`
	WindSpeed     []float64 `json:"windSpeed"`
	CurrentE      []float64 `json:"currentE"`
	CurrentN      []float64 `json:"currentN"`
	CurrentSpeed  []float64 `json:"currentSpeed"`
	Warmth        []float64 `json:"warmth"`
	Precipitation []float64 `json:"precipitation"`
	Temperature   []float64 `json:"temperature"`
}

// outputPayload is the full per-region wire payload for done,
// reapplyDone, and editDone events.
type outputPayload struct {
	RegionCount int `json:"regionCount"`

	RPlate     []int32 `json:"rPlate"`
	RStress    []float64 `json:"rStress"`
	MountainR  []bool  `json:"mountainR"`
	CoastlineR []bool  `json:"coastlineR"`
	OceanR     []bool  `json:"oceanR"`

	RElevation []float64 `json:"rElevation"`

	ITCZSummer          []float64     `json:"itczSummer"`
	ITCZWinter          []float64     `json:"itczWinter"`
	ContinentalityLand  []float64     `json:"continentalityLand"`
	ContinentalityPlate []float64     `json:"continentalityPlate"`
	Summer              seasonPayload `json:"summer"`
	Winter              seasonPayload `json:"winter"`

	ElapsedMs map[string]int64 `json:"elapsedMs"`
}

func toSeasonPayload(f climate.SeasonalField) seasonPayload {
	return seasonPayload{
		Pressure:      f.Pressure,
		WindE:         f.WindE,
		WindN:         f.WindN,
		WindSpeed:     f.WindSpeed,
		CurrentE:      f.CurrentE,
		CurrentN:      f.CurrentN,
		CurrentSpeed:  f.CurrentSpeed,
		Warmth:        f.Warmth,
		Precipitation: f.Precipitation,
		Temperature:   f.Temperature,
	}
}

// denseBoolSet expands a sparse region-id set (as used by MountainR,
// CoastlineR, OceanR) into a dense per-region array for the wire.
func denseBoolSet(set map[int]bool, n int) []bool {
	out := make([]bool, n)
	for r, v := range set {
		if r >= 0 && r < n {
			out[r] = v
		}
	}
	return out
}

func toOutputPayload(out *session.Output) outputPayload {
	elapsed := make(map[string]int64, len(out.ElapsedByStage))
	for stage, d := range out.ElapsedByStage {
		elapsed[stage] = d.Milliseconds()
	}

	n := out.Mesh.N
	return outputPayload{
		RegionCount:         n,
		RPlate:              out.Plates.RPlate,
		RStress:             out.Elevation.RStress,
		MountainR:           denseBoolSet(out.Elevation.MountainR, n),
		CoastlineR:          denseBoolSet(out.Elevation.CoastlineR, n),
		OceanR:              denseBoolSet(out.Elevation.OceanR, n),
		RElevation:          out.Terrain.RElevation,
		ITCZSummer:          out.Climate.ITCZSummer,
		ITCZWinter:          out.Climate.ITCZWinter,
		ContinentalityLand:  out.Climate.ContinentalityLand,
		ContinentalityPlate: out.Climate.ContinentalityPlate,
		Summer:              toSeasonPayload(out.Climate.Summer),
		Winter:              toSeasonPayload(out.Climate.Winter),
		ElapsedMs:           elapsed,
	}
}
