package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// ExportData is the JSON document written by ExportJSON.
type ExportData struct {
	Run     RunMetadata `json:"run"`
	Columns []string    `json:"columns"`
	Times   []float64   `json:"times"`
	Rows    [][]float64 `json:"rows"`
}

// WriteCSV writes header followed by one row per sample: the time, then the
// row values.
func WriteCSV(w io.Writer, header []string, times []float64, rows [][]float64) error {
	if len(times) != len(rows) {
		return fmt.Errorf("storage: %d times but %d rows", len(times), len(rows))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, 0, len(header))
	for i, row := range rows {
		record = append(record[:0], strconv.FormatFloat(times[i], 'g', -1, 64))
		for _, v := range row {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportJSON writes the stored run id with its full series.
func ExportJSON(w io.Writer, repo Repository, id string) error {
	meta, err := repo.Load(id)
	if err != nil {
		return err
	}
	header, times, rows, err := repo.LoadSeries(id)
	if err != nil {
		return err
	}

	data := ExportData{
		Run:     *meta,
		Columns: header,
		Times:   times,
		Rows:    rows,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes the stored series of run id.
func ExportCSV(w io.Writer, repo Repository, id string) error {
	header, times, rows, err := repo.LoadSeries(id)
	if err != nil {
		return err
	}
	return WriteCSV(w, header, times, rows)
}
