package merge

import "gopkg.in/guregu/null.v3"

type joinKey struct {
	runID    int
	sampleID string
}

// RightJoin attaches result records to the metadata rows on (run_id,
// sample_id). The output follows metadata order. A metadata row with several
// matching records expands to one row per record, in result order; a row
// without matches appears once with null result fields. Records whose sample
// is not in the metadata are dropped.
func RightJoin(results ResultTable, metadata MetadataTable) Merged {
	byKey := make(map[joinKey][]int)
	for i, rec := range results.Records {
		key := joinKey{runID: rec.RunID, sampleID: rec.SampleID}
		byKey[key] = append(byKey[key], i)
	}

	merged := Merged{Columns: joinedColumns(results, metadata)}
	for _, meta := range metadata.Rows {
		matches := byKey[joinKey{runID: meta.RunID, sampleID: meta.SampleID}]
		if len(matches) == 0 {
			merged.Rows = append(merged.Rows, MergedRow{SampleMetadata: meta})
			continue
		}
		for _, i := range matches {
			merged.Rows = append(merged.Rows, joinRow(meta, results.Records[i]))
		}
	}
	return merged
}

func joinRow(meta SampleMetadata, rec ResultRecord) MergedRow {
	row := MergedRow{
		SampleMetadata: meta,
		Assignment:     null.StringFrom(rec.Assignment),
		ContigCount:    rec.ContigCount,
		MappedReads:    rec.MappedReads,
		Coverage:       rec.Coverage,
		MeanDepth:      rec.MeanDepth,
		NTIdentity:     rec.NTIdentity,
		AAIdentity:     rec.AAIdentity,
	}
	if rec.Category != "" {
		row.Category = null.StringFrom(rec.Category)
	}
	return row
}

// joinedColumns lists the metadata columns first, the result columns next
// and the combined sample key last.
func joinedColumns(results ResultTable, metadata MetadataTable) []string {
	cols := make([]string, 0, len(metadata.Columns)+len(results.Columns)+1)
	seen := make(map[string]bool)
	for _, group := range [][]string{metadata.Columns, results.Columns, {ColSample}} {
		for _, col := range group {
			if !seen[col] {
				seen[col] = true
				cols = append(cols, col)
			}
		}
	}
	return cols
}
