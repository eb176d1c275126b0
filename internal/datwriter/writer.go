// =============================================================================
// Suenlace Generator - Posting File Writer
// =============================================================================
//
// This module assembles rendered records into the byte stream of an
// Exxxxx.dat posting file:
//
//   record 1   | 512 bytes, latin-1, ends in CR LF
//   record 2   | 512 bytes, latin-1, ends in CR LF
//   ...
//
// Nothing separates records beyond the CR LF each one carries, and no final
// newline is appended. The whole batch is built in memory so that a failure
// leaves no partial file behind.
//
// =============================================================================

package datwriter

import (
	"bytes"
	"fmt"

	"github.com/ginjaninja78/suenlace/internal/records"
	"github.com/ginjaninja78/suenlace/internal/types"
)

// =============================================================================
// GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for stream generation.
type GenerateOptions struct {
	// CheckRecords verifies the envelope of every rendered record.
	// Default: true
	CheckRecords bool

	// ReportSubstitutions adds an advisory for every row whose text needed
	// latin-1 substitution.
	// Default: true
	ReportSubstitutions bool
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		CheckRecords:        true,
		ReportSubstitutions: true,
	}
}

// =============================================================================
// STREAM GENERATION
// =============================================================================

// Result is a generated posting stream.
type Result struct {
	Data       []byte
	Records    int
	Advisories types.Advisories
}

// Generate renders recs with the default options.
func Generate(recs []records.Record, ctx records.Context) (*Result, error) {
	return GenerateWithOptions(recs, ctx, DefaultGenerateOptions())
}

// GenerateWithOptions renders recs in order into one buffer. An empty batch
// is reported as ErrNoRows.
func GenerateWithOptions(recs []records.Record, ctx records.Context, options GenerateOptions) (*Result, error) {
	if len(recs) == 0 {
		return nil, types.NewError("datwriter.Generate", types.ErrNoRows, "")
	}

	var buf bytes.Buffer
	buf.Grow(len(recs) * records.Size)
	res := &Result{}
	reported := map[int]bool{}

	for i, r := range recs {
		line, substituted := r.Render(ctx)
		if options.CheckRecords {
			if err := records.Check(line); err != nil {
				return nil, fmt.Errorf("record %d (%s, row %d): %w", i+1, r.Kind, r.Row, err)
			}
		}
		if substituted && options.ReportSubstitutions && !reported[r.Row] {
			reported[r.Row] = true
			res.Advisories.Add(r.Row, nil, "Row %d: characters outside latin-1 were replaced.", r.Row)
		}
		buf.Write(line)
	}

	res.Data = buf.Bytes()
	res.Records = len(recs)
	return res, nil
}

// =============================================================================
// VERIFICATION
// =============================================================================

// Verify checks that data is a whole number of well-formed records and
// returns how many it holds.
func Verify(data []byte) (int, error) {
	if len(data)%records.Size != 0 {
		return 0, fmt.Errorf("stream length %d is not a multiple of %d", len(data), records.Size)
	}
	n := len(data) / records.Size
	for i := 0; i < n; i++ {
		if err := records.Check(data[i*records.Size : (i+1)*records.Size]); err != nil {
			return i, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	return n, nil
}

// Split cuts a verified stream into its records.
func Split(data []byte) [][]byte {
	out := make([][]byte, 0, len(data)/records.Size)
	for len(data) >= records.Size {
		out = append(out, data[:records.Size])
		data = data[records.Size:]
	}
	return out
}
