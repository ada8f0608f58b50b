package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/hydrosim/internal/kinetics"
)

var ErrRunNotFound = errors.New("storage: run not found")

// RunMetadata describes one stored simulation.
type RunMetadata struct {
	ID         string              `json:"id"`
	Timestamp  time.Time           `json:"timestamp"`
	Conditions kinetics.Conditions `json:"conditions"`
	Integrator string              `json:"integrator"`
	Samples    int                 `json:"samples"`

	CelluloseDegradedPercent     float64            `json:"cellulose_degraded_percent"`
	HemicelluloseDegradedPercent float64            `json:"hemicellulose_degraded_percent"`
	Metrics                      map[string]float64 `json:"metrics,omitempty"`
}

// Repository persists simulation runs.
type Repository interface {
	Save(meta RunMetadata, result *kinetics.Result) (string, error)
	List() ([]RunMetadata, error)
	Load(id string) (*RunMetadata, error)
	LoadSeries(id string) (header []string, times []float64, rows [][]float64, err error)
	Close() error
}

// Open returns the repository for backend ("fs" or "sqlite") rooted at dataDir.
func Open(backend, dataDir string) (Repository, error) {
	switch backend {
	case "", "fs":
		s := NewFileStore(dataDir)
		if err := s.Init(); err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		return OpenSQLite(SQLitePath(dataDir))
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", backend)
	}
}

// NewRunID returns an identifier like "T195_1a2b3c4d".
func NewRunID(temperature float64) string {
	return fmt.Sprintf("T%g_%s", temperature, uuid.NewString()[:8])
}

// SeriesHeader names the columns of a stored series: time followed by every
// pool of both polymers as "<polymer>.<pool>".
func SeriesHeader() []string {
	header := []string{"time"}
	for _, p := range kinetics.Polymers {
		for _, pool := range p.Pools() {
			header = append(header, p.String()+"."+pool)
		}
	}
	return header
}

func seriesRows(result *kinetics.Result) [][]float64 {
	rows := make([][]float64, len(result.Time))
	for i := range result.Time {
		row := make([]float64, 0, 2*kinetics.NumPools)
		for _, p := range kinetics.Polymers {
			path := result.Path(p)
			if path != nil && i < len(path.States) {
				row = append(row, path.States[i]...)
			} else {
				row = append(row, make([]float64, kinetics.NumPools)...)
			}
		}
		rows[i] = row
	}
	return rows
}

// complete fills the fields of meta derived from the result.
func complete(meta RunMetadata, result *kinetics.Result) RunMetadata {
	if meta.ID == "" {
		meta.ID = NewRunID(result.Temperature)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	if meta.Conditions == (kinetics.Conditions{}) {
		meta.Conditions = result.Conditions()
	}
	meta.Samples = len(result.Time)
	meta.CelluloseDegradedPercent = result.CelluloseDegradedPercent
	meta.HemicelluloseDegradedPercent = result.HemicelluloseDegradedPercent

	if meta.Metrics == nil {
		meta.Metrics = make(map[string]float64)
	}
	for _, p := range kinetics.Polymers {
		path := result.Path(p)
		if path == nil {
			continue
		}
		for name, v := range path.Metrics {
			meta.Metrics[p.String()+"."+name] = v
		}
	}
	return meta
}
