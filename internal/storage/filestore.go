package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/san-kum/hydrosim/internal/kinetics"
)

// FileStore keeps each run in <baseDir>/<id>/ as metadata.json and states.csv.
type FileStore struct {
	baseDir string
	create  func(name string) (io.WriteCloser, error)
}

func NewFileStore(baseDir string) *FileStore {
	return &FileStore{
		baseDir: baseDir,
		create:  func(name string) (io.WriteCloser, error) { return os.Create(name) },
	}
}

func (s *FileStore) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) runDir(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: %q", ErrRunNotFound, id)
	}
	return filepath.Join(s.baseDir, id), nil
}

func (s *FileStore) Save(meta RunMetadata, result *kinetics.Result) (string, error) {
	meta = complete(meta, result)
	runDir, err := s.runDir(meta.ID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	err = s.writeFile(filepath.Join(runDir, "metadata.json"), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err == nil {
		err = s.writeFile(filepath.Join(runDir, "states.csv"), func(w io.Writer) error {
			return WriteCSV(w, SeriesHeader(), result.Time, seriesRows(result))
		})
	}
	if err != nil {
		// a half-written run must not show up in List
		os.RemoveAll(runDir)
		return "", fmt.Errorf("storage: save %s: %w", meta.ID, err)
	}
	return meta.ID, nil
}

// writeFile creates name, fills it and reports the close error.
func (s *FileStore) writeFile(name string, fill func(io.Writer) error) error {
	f, err := s.create(name)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns stored runs, oldest first. Directories without readable
// metadata are skipped.
func (s *FileStore) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *FileStore) Load(id string) (*RunMetadata, error) {
	runDir, err := s.runDir(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrRunNotFound, id)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: decoding metadata of %s: %w", id, err)
	}
	return &meta, nil
}

func (s *FileStore) LoadSeries(id string) ([]string, []float64, [][]float64, error) {
	runDir, err := s.runDir(id)
	if err != nil {
		return nil, nil, nil, err
	}
	file, err := os.Open(filepath.Join(runDir, "states.csv"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil, fmt.Errorf("%w: %q", ErrRunNotFound, id)
		}
		return nil, nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("storage: reading series of %s: %w", id, err)
	}
	if len(records) == 0 {
		return nil, []float64{}, [][]float64{}, nil
	}

	header := records[0]
	times := make([]float64, 0, len(records)-1)
	rows := make([][]float64, 0, len(records)-1)

	for i, record := range records[1:] {
		values := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("storage: %s line %d column %q: %w", id, i+2, header[j], err)
			}
			values[j] = v
		}
		times = append(times, values[0])
		rows = append(rows, values[1:])
	}
	return header, times, rows, nil
}
