package recon

import "fmt"

// PrepareRow parses one row and resolves a column value for every comparison
// pair. position is the 1-based index of the row within its chunk.
//
// A pair whose index has no fragment marks the row Failed and adds a reason,
// and evaluation carries on with the remaining pairs.
func PrepareRow(row string, position int, delimiters []string, pairs []ComparisonPair, source ChunkSource) ParsedRow {
	fragments := ParseRow(row, delimiters)
	out := ParsedRow{
		RawData:        row,
		ParsedColumns:  make([]string, 0, len(pairs)),
		ReconResult:    ReconPending,
		FailureReasons: []string{},
	}
	fileKind := "source"
	if source == ComparisonFileChunk {
		fileKind = "comparison"
	}
	for _, pair := range pairs {
		index := pair.SourceColumnIndex
		if source == ComparisonFileChunk {
			index = pair.ComparisonColumnIndex
		}
		if int(index) >= len(fragments) {
			out.ReconResult = ReconFailed
			out.FailureReasons = append(out.FailureReasons,
				fmt.Sprintf("cant find a value in column %d of %s file for this row %d", index, fileKind, position))
			continue
		}
		out.ParsedColumns = append(out.ParsedColumns, fragments[index])
	}
	return out
}

// PrepareRows prepares every row of a chunk, preserving input order.
func PrepareRows(rows []string, meta ReconTaskMetadata, source ChunkSource) []ParsedRow {
	out := make([]ParsedRow, len(rows))
	for i, row := range rows {
		out[i] = PrepareRow(row, i+1, meta.ColumnDelimiters, meta.ComparisonPairs, source)
	}
	return out
}
