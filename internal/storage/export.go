package storage

import (
	"io"

	"github.com/san-kum/geodesim/internal/analysis"
	"github.com/san-kum/geodesim/internal/config"
	"github.com/san-kum/geodesim/internal/dynamo"
	"github.com/san-kum/geodesim/internal/experiment"
	"github.com/san-kum/geodesim/internal/physics"
)

type ExportData struct {
	Config             *config.Config          `json:"config"`
	Termination        dynamo.Termination      `json:"termination"`
	Classification     analysis.Classification `json:"classification"`
	ConstraintResidual float64                 `json:"constraint_residual"`
	Steps              int                     `json:"steps"`
	Tau                []float64               `json:"tau"`
	R                  []float64               `json:"r"`
	VR                 []float64               `json:"v_r"`
	Phi                []float64               `json:"phi"`
	Metrics            map[string]float64      `json:"metrics"`
}

// ExportJSON writes a self-contained run: settings, verdict and samples.
func ExportJSON(w io.Writer, out *experiment.Outcome) error {
	if out == nil || out.Trajectory == nil {
		return ErrNoTrajectory
	}
	return EncodeJSON(w, exportData(out.Config, out.Trajectory, out.Classification, out.ConstraintResidual, out.Result.StepsTaken, out.Result.Metrics))
}

// ExportStoredJSON is ExportJSON for a run reloaded from the store.
func ExportStoredJSON(w io.Writer, meta *RunMetadata, tr *physics.Trajectory) error {
	return EncodeJSON(w, exportData(meta.Config, tr, meta.Classification, meta.ConstraintResidual, meta.Steps, meta.Metrics))
}

func exportData(cfg *config.Config, tr *physics.Trajectory, c analysis.Classification, residual float64, steps int, metrics map[string]float64) ExportData {
	return ExportData{
		Config:             cfg,
		Termination:        tr.Termination,
		Classification:     c,
		ConstraintResidual: residual,
		Steps:              steps,
		Tau:                tr.Tau,
		R:                  tr.R,
		VR:                 tr.VR,
		Phi:                tr.Phi,
		Metrics:            metrics,
	}
}
