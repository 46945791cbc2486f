package loanstats

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// CirculationRecord is one row of a circulation-log export
type CirculationRecord struct {
	Title string `json:"title" parquet:"title"`
	Rank  int    `json:"rank" parquet:"rank"`
	Count int    `json:"count" parquet:"count"`
}

// Dataset serves loan stats from a circulation-log file (Parquet or JSONL),
// falling back to another provider for titles the log has never seen.
type Dataset struct {
	stats    map[string]Stats
	fallback Provider
}

// LoadDataset reads a circulation-log file and returns a Dataset provider
func LoadDataset(path string, fallback Provider) (*Dataset, error) {
	var records []CirculationRecord
	var err error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		records, err = loadParquet(path)
	case ".jsonl", ".json":
		records, err = loadJSONL(path)
	default:
		return nil, fmt.Errorf("unsupported circulation log format: %s (supported: .parquet, .jsonl)", ext)
	}
	if err != nil {
		return nil, err
	}

	stats := make(map[string]Stats, len(records))
	for _, r := range records {
		stats[r.Title] = Stats{Rank: r.Rank, Count: r.Count}
	}

	slog.Info("Loaded circulation log", "path", path, "titles", len(stats))
	return &Dataset{stats: stats, fallback: fallback}, nil
}

// StatsFor returns logged stats for the title, or the fallback's answer
func (d *Dataset) StatsFor(title string) Stats {
	if s, ok := d.stats[title]; ok {
		return s
	}
	return d.fallback.StatsFor(title)
}

func loadJSONL(path string) ([]CirculationRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open circulation log: %w", err)
	}
	defer file.Close()

	var records []CirculationRecord
	scanner := bufio.NewScanner(file)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record CirculationRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading circulation log: %w", err)
	}

	return records, nil
}

func loadParquet(path string) ([]CirculationRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[CirculationRecord](pf)
	defer reader.Close()

	var records []CirculationRecord
	rows := make([]CirculationRecord, 128)
	for {
		n, err := reader.Read(rows)
		if n > 0 {
			records = append(records, rows[:n]...)
		}
		if err != nil {
			break
		}
	}

	return records, nil
}
