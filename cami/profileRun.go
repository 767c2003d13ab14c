package cami

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gmaffy/gd-reports/taxonomy"
	"github.com/gmaffy/gd-reports/utils"
	"golang.org/x/sync/errgroup"
)

const profileSuffix = "_GenomeDetective_CAMI-profiling.tsv"

// ProfilePath is the file name of a sample profile inside outDir.
func ProfilePath(outDir, sampleKey string) string {
	return filepath.Join(outDir, sampleKey+profileSuffix)
}

// ProfileRun writes one CAMI profile per requested sample. With a single
// sample and cfg.Profile set the profile goes to that file; otherwise every
// profile is written into cfg.ProfileDir. Without requested samples all
// samples of the data table are profiled. At most cfg.Jobs profiles are
// built at the same time.
func ProfileRun(cfg utils.Config, resolver taxonomy.Resolver, logger *slog.Logger) error {
	if cfg.DataTable == "" {
		return errors.New("no data table given")
	}
	table, err := ReadDataTable(cfg.DataTable)
	if err != nil {
		return err
	}

	samples := cfg.Samples
	if len(samples) == 0 {
		samples = table.SampleKeys()
	}
	outputs := make([]string, len(samples))
	switch {
	case cfg.Profile != "" && len(samples) == 1:
		outputs[0] = cfg.Profile
	case cfg.ProfileDir != "":
		for i, sample := range samples {
			outputs[i] = ProfilePath(cfg.ProfileDir, sample)
		}
	case cfg.Profile != "":
		return fmt.Errorf("--out takes a single sample, got %d; use --out_dir", len(samples))
	default:
		return errors.New("no output given, set --out or --out_dir")
	}

	jobs := cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}
	logger.Info("CAMI_PROFILE", "PROGRAM", "INITIALISE", "SAMPLE", "ALL", "SAMPLES", len(samples), "JOBS", jobs, "STATUS", "STARTED")

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, sample := range samples {
		i, sample := i, sample
		g.Go(func() error {
			profile, err := BuildProfile(table, sample, resolver, cfg.TaxonomyID)
			if err != nil {
				logger.Error("CAMI_PROFILE", "PROGRAM", "RESOLVE", "SAMPLE", sample, "STATUS", fmt.Sprintf("FAILED - %v", err))
				return err
			}
			if err := WriteProfile(outputs[i], profile); err != nil {
				logger.Error("CAMI_PROFILE", "PROGRAM", "WRITE", "SAMPLE", sample, "STATUS", fmt.Sprintf("FAILED - %v", err))
				return err
			}
			logger.Info("CAMI_PROFILE", "PROGRAM", "WRITE", "SAMPLE", sample, "TAXA", len(profile.Entries), "OUTPUT", outputs[i], "STATUS", "COMPLETED")
			fmt.Printf("The CAMI profile of %s has been written to: %s\n", sample, outputs[i])
			return nil
		})
	}
	return g.Wait()
}
