package utils

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/csimplestring/go-csv/detector"
	"github.com/klauspost/pgzip"
	"github.com/spf13/viper"
)

// Config holds every input and output path the report commands need. It is
// filled from a config file (ReadConfig) and then overridden by command flags,
// so the report packages never look at global state.
type Config struct {
	ParsedXML   string
	CSVs        []string
	Assignments []string
	Discoveries []string

	Output string
	XLSX   string

	HeatmapA  string
	HeatmapD  string
	HeatmapAD string
	DataTable string
	Colour    string

	Samples    []string
	Profile    string
	ProfileDir string
	Taxdump    string
	TaxonomyID string
	Jobs       int

	LogFile  string
	Progress bool
}

// ReadConfig loads a YAML (or key: value) config file. Keys are the flag
// names of the commands. A section named after a command, e.g.
//
//	camiProfile:
//	  out: results/1_a_profile.tsv
//
// overrides the top-level keys for that command only, so "out" can mean the
// report of pcrReport and the profile of camiProfile in the same file. A
// section "out" also fills Profile; at the top level camiProfile's --out is
// read from "profile".
func ReadConfig(configPath, command string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	if ext := strings.TrimPrefix(filepath.Ext(configPath), "."); ext == "" || ext == "txt" || ext == "cfg" {
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", configPath, err)
	}

	key := func(name string) string {
		if command != "" && v.IsSet(command+"."+name) {
			return command + "." + name
		}
		return name
	}
	firstSet := func(names ...string) string {
		for _, name := range names {
			if k := key(name); v.IsSet(k) {
				return k
			}
		}
		return names[0]
	}

	cfg := Config{
		ParsedXML:   v.GetString(key("parsed_xml")),
		CSVs:        v.GetStringSlice(key("csv")),
		Assignments: v.GetStringSlice(key("assignments")),
		Discoveries: v.GetStringSlice(key("discoveries")),
		Output:      v.GetString(key("out")),
		XLSX:        v.GetString(key("xlsx")),
		HeatmapA:    v.GetString(key("heatmap_a")),
		HeatmapD:    v.GetString(key("heatmap_d")),
		HeatmapAD:   v.GetString(key("heatmap_ad")),
		DataTable:   v.GetString(key("data_table")),
		Colour:      v.GetString(key("colour")),
		Samples:     v.GetStringSlice(firstSet("sample", "samples")),
		Profile:     v.GetString(key("profile")),
		ProfileDir:  v.GetString(key("out_dir")),
		Taxdump:     v.GetString(key("taxdump")),
		TaxonomyID:  v.GetString(key("taxonomy_id")),
		Jobs:        v.GetInt(key("jobs")),
		LogFile:     v.GetString(key("log")),
		Progress:    v.GetBool(key("progress")),
	}
	if command != "" && v.IsSet(command+".out") {
		cfg.Profile = v.GetString(command + ".out")
	}
	return cfg, nil
}

// EnsureOutputDir creates the parent directory of an output file when it is
// missing. An empty path or a path in the working directory is a no-op.
func EnsureOutputDir(outputFile string) error {
	if outputFile == "" {
		return nil
	}
	outputDir := filepath.Dir(outputFile)
	if outputDir == "." {
		return nil
	}

	outInfo, outErr := os.Stat(outputDir)
	if outErr != nil {
		if os.IsNotExist(outErr) {
			if createErr := os.MkdirAll(outputDir, 0755); createErr != nil {
				return fmt.Errorf("create output directory %s: %w", outputDir, createErr)
			}
			return nil
		}
		return fmt.Errorf("access output directory %s: %w", outputDir, outErr)
	}
	if !outInfo.IsDir() {
		return fmt.Errorf("output directory %s is not a directory", outputDir)
	}
	return nil
}

type gzipFile struct {
	*pgzip.Reader
	file *os.File
}

func (g gzipFile) Close() error {
	gzErr := g.Reader.Close()
	if err := g.file.Close(); err != nil {
		return err
	}
	return gzErr
}

// OpenInput opens a file for streaming, decompressing .gz files on the way.
func OpenInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	gzReader, err := pgzip.NewReader(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open gzip %s: %w", path, err)
	}
	return gzipFile{Reader: gzReader, file: f}, nil
}

// ReadInput returns the whole content of a table file.
func ReadInput(path string) ([]byte, error) {
	reader, err := OpenInput(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// DelimiterFor picks the field delimiter of a table. .csv and .tsv files use
// their conventional delimiter; anything else is sniffed from the content.
func DelimiterFor(path string, content []byte) rune {
	name := strings.TrimSuffix(strings.ToLower(filepath.Base(path)), ".gz")
	switch filepath.Ext(name) {
	case ".csv":
		return ','
	case ".tsv", ".tab":
		return '\t'
	}
	return DetermineDelimiter(bytes.NewReader(content))
}

// DetermineDelimiter sniffs the separator of a table whose extension says
// nothing about it. Without a candidate it falls back to a comma.
func DetermineDelimiter(r io.Reader) rune {
	candidates := detector.New().DetectDelimiter(r, '"')
	if len(candidates) == 0 || candidates[0] == "" {
		return ','
	}
	return []rune(candidates[0])[0]
}

// NewRunLogger returns the logger for one command run. With a log path the
// records are appended as JSON to that file, otherwise they go to stderr as
// text. The returned func closes the log file.
func NewRunLogger(logFilePath string) (*slog.Logger, func() error, error) {
	if logFilePath == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, nil)), func() error { return nil }, nil
	}

	if err := EnsureOutputDir(logFilePath); err != nil {
		return nil, nil, err
	}
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	jsonHandler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(jsonHandler), logFile.Close, nil
}
