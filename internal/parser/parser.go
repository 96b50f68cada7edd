package parser

import (
	"errors"

	"github.com/IshaanNene/gemquality/internal/translation"
	"github.com/IshaanNene/gemquality/internal/types"
)

// RawGem is a gem record located in source text before its quality block is parsed.
type RawGem struct {
	ID           string
	Name         string
	QualityBlock string
}

// Extractor pulls gems out of a category source document.
type Extractor interface {
	// Extract locates gem records in source order. No match yields an empty slice.
	Extract(source string) []RawGem

	// ParseQualityBlock resolves every key/value pair of a raw quality block.
	// Malformed pairs are reported in the returned error; valid pairs are
	// returned regardless.
	ParseQualityBlock(block string, idx *translation.Index) ([]types.QualityData, error)
}

// MalformedRecords returns every *types.MalformedRecordError contained in err,
// including those joined with errors.Join.
func MalformedRecords(err error) []*types.MalformedRecordError {
	if err == nil {
		return nil
	}
	var out []*types.MalformedRecordError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, MalformedRecords(e)...)
		}
		return out
	}
	var mre *types.MalformedRecordError
	if errors.As(err, &mre) {
		out = append(out, mre)
	}
	return out
}
