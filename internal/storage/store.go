package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/geodesim/internal/analysis"
	"github.com/san-kum/geodesim/internal/config"
	"github.com/san-kum/geodesim/internal/dynamo"
	"github.com/san-kum/geodesim/internal/experiment"
	"github.com/san-kum/geodesim/internal/physics"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

var ErrNoTrajectory = errors.New("storage: outcome has no trajectory")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID                 string                  `json:"id"`
	Timestamp          time.Time               `json:"timestamp"`
	Config             *config.Config          `json:"config"`
	Termination        dynamo.Termination      `json:"termination"`
	Classification     analysis.Classification `json:"classification"`
	CaptureRadius      float64                 `json:"capture_radius"`
	EscapeRadius       float64                 `json:"escape_radius"`
	Steps              int                     `json:"steps"`
	Rejected           int                     `json:"rejected"`
	Samples            int                     `json:"samples"`
	ConstraintResidual float64                 `json:"constraint_residual"`
	Metrics            map[string]float64      `json:"metrics"`
}

// Save writes trajectory.csv, then metadata.json, into a fresh run
// directory and returns the run ID. Metadata goes last so that a listed run
// always has its samples; on any failure the directory is removed.
func (s *Store) Save(out *experiment.Outcome) (runID string, err error) {
	if out == nil || out.Trajectory == nil {
		return "", ErrNoTrajectory
	}
	if err := s.Init(); err != nil {
		return "", err
	}

	now := time.Now()
	runID, runDir, err := s.newRunDir(string(out.Classification.Label), now)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
			runID = ""
		}
	}()

	if err := writeCSV(filepath.Join(runDir, trajectoryFile), out.Trajectory); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:                 runID,
		Timestamp:          now,
		Config:             out.Config,
		Termination:        out.Result.Termination,
		Classification:     out.Classification,
		CaptureRadius:      out.CaptureRadius,
		EscapeRadius:       out.EscapeRadius,
		Steps:              out.Result.StepsTaken,
		Rejected:           out.Result.StepsRejected,
		Samples:            out.Trajectory.Len(),
		ConstraintResidual: out.ConstraintResidual,
		Metrics:            out.Result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", fmt.Errorf("storage: write metadata for %s: %w", runID, err)
	}
	return runID, nil
}

// newRunDir claims a directory named after the label and time, adding a
// suffix when two runs land on the same nanosecond.
func (s *Store) newRunDir(label string, now time.Time) (string, string, error) {
	if label == "" {
		label = "run"
	}
	base := fmt.Sprintf("%s_%d", label, now.UnixNano())
	for i := 0; i < 100; i++ {
		id := base
		if i > 0 {
			id = fmt.Sprintf("%s_%d", base, i)
		}
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
	}
	return "", "", fmt.Errorf("storage: could not allocate run directory for %s", base)
}

// List returns stored runs, oldest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].Timestamp.Before(runs[j].Timestamp)
		}
		return runs[i].ID < runs[j].ID
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}

	return &meta, nil
}

// LoadTrajectory reads the samples of a run back. The termination comes
// from the run metadata.
func (s *Store) LoadTrajectory(runID string) (*physics.Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tr, err := ReadTrajectoryCSV(f)
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	tr.Termination = meta.Termination
	return tr, nil
}

var trajectoryHeader = []string{"tau", "r", "v_r", "phi"}

// WriteTrajectoryCSV writes one row per sample at full precision.
func WriteTrajectoryCSV(w io.Writer, tr *physics.Trajectory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(trajectoryHeader); err != nil {
		return err
	}

	row := make([]string, 4)
	for i := range tr.Tau {
		row[0] = strconv.FormatFloat(tr.Tau[i], 'g', -1, 64)
		row[1] = strconv.FormatFloat(tr.R[i], 'g', -1, 64)
		row[2] = strconv.FormatFloat(tr.VR[i], 'g', -1, 64)
		row[3] = strconv.FormatFloat(tr.Phi[i], 'g', -1, 64)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func ReadTrajectoryCSV(r io.Reader) (*physics.Trajectory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(trajectoryHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("missing header")
	}

	tr := &physics.Trajectory{}
	for i, record := range records[1:] {
		var vals [4]float64
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i+2, trajectoryHeader[j], err)
			}
			vals[j] = v
		}
		tr.Tau = append(tr.Tau, vals[0])
		tr.R = append(tr.R, vals[1])
		tr.VR = append(tr.VR, vals[2])
		tr.Phi = append(tr.Phi, vals[3])
	}
	return tr, nil
}

func writeCSV(path string, tr *physics.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteTrajectoryCSV(f, tr); err != nil {
		return err
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := EncodeJSON(f, v); err != nil {
		return err
	}
	return f.Close()
}

// EncodeJSON writes v as indented JSON.
func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
