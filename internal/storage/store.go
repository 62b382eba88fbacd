package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/penaltynewton/internal/continuation"
	"github.com/san-kum/penaltynewton/internal/objective"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
	resultFile     = "result.json"
)

var trajectoryHeader = []string{"stage", "r", "x1", "x2", "status", "iterations", "halvings", "grad_norm", "ref_converged", "ref_x1", "ref_x2"}

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
	ID            string              `json:"id"`
	Model         string              `json:"model"`
	Verifier      string              `json:"verifier"`
	Timestamp     time.Time           `json:"timestamp"`
	Constants     objective.Constants `json:"constants"`
	Initial       objective.Point     `json:"initial"`
	Penalties     []float64           `json:"penalties"`
	Tolerance     float64             `json:"tolerance"`
	MaxIterations int                 `json:"max_iterations"`
	Final         objective.Point     `json:"final"`
	Residual      float64             `json:"residual"`
	CapReached    int                 `json:"cap_reached"`
	RefFailures   int                 `json:"ref_failures"`
}

// Save writes a run directory holding metadata.json, result.json and
// trajectory.csv and returns the run id.
func (s *Store) Save(meta RunMetadata, result *continuation.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", meta.Model, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Final = result.Final()
	meta.CapReached = result.CapReached()
	meta.RefFailures = result.ReferenceFailures()

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, resultFile), result); err != nil {
		return "", err
	}
	if err := writeTrajectory(filepath.Join(runDir, trajectoryFile), result); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTrajectory(path string, result *continuation.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write(trajectoryHeader); err != nil {
		return err
	}

	x0 := result.Initial
	if err := w.Write([]string{"0", "", ff(x0[0]), ff(x0[1]), "initial", "0", "0", "", "", "", ""}); err != nil {
		return err
	}

	for _, st := range result.Stages {
		row := []string{
			strconv.Itoa(st.Index + 1),
			strconv.FormatFloat(st.R, 'g', -1, 64),
			ff(st.Result.Point[0]),
			ff(st.Result.Point[1]),
			st.Result.Status.String(),
			strconv.Itoa(st.Result.Iterations),
			strconv.Itoa(st.Result.Halvings),
			strconv.FormatFloat(st.Result.GradNorm, 'e', 6, 64),
		}
		if ref := st.Reference; ref != nil {
			row = append(row, strconv.FormatBool(ref.Converged), ff(ref.Point[0]), ff(ref.Point[1]))
		} else {
			row = append(row, "", "", "")
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns all readable runs, oldest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	var meta RunMetadata
	if err := readJSON(filepath.Join(s.baseDir, runID, metadataFile), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadResult reads back the full continuation result of a run.
func (s *Store) LoadResult(runID string) (*continuation.Result, error) {
	var res continuation.Result
	if err := readJSON(filepath.Join(s.baseDir, runID, resultFile), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// LoadTrajectory reads the trajectory points and their penalties from
// trajectory.csv. The initial point has R = 0.
func (s *Store) LoadTrajectory(runID string) ([]objective.Point, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return []objective.Point{}, []float64{}, nil
	}

	points := make([]objective.Point, 0, len(records)-1)
	penalties := make([]float64, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 4 {
			continue
		}

		x1, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			continue
		}
		x2, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			continue
		}

		penalty := 0.0
		if record[1] != "" {
			if penalty, err = strconv.ParseFloat(record[1], 64); err != nil {
				continue
			}
		}

		points = append(points, objective.Point{x1, x2})
		penalties = append(penalties, penalty)
	}

	return points, penalties, nil
}
