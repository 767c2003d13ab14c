package utils

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// LogEntry is one JSON record of a run log written by NewRunLogger.
type LogEntry struct {
	Timestamp string `json:"time"`
	Level     string `json:"level"`
	Tool      string `json:"msg"`
	Program   string `json:"PROGRAM"`
	Sample    string `json:"SAMPLE"`
	Status    string `json:"STATUS"`
}

// ParseRunLog reads every JSON record of a run log. Lines that are not JSON
// are skipped.
func ParseRunLog(logFilePath string) ([]LogEntry, error) {
	f, err := os.Open(logFilePath)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan run log: %w", err)
	}
	return entries, nil
}

// StageHasCompleted reports whether the log holds a COMPLETED record for the
// program and sample.
func StageHasCompleted(entries []LogEntry, program, sample string) bool {
	for _, entry := range entries {
		if entry.Program == program && entry.Sample == sample && entry.Status == "COMPLETED" {
			return true
		}
	}
	return false
}
