// Adapter boundary for the external MSA search tool, so the pipeline can
// be exercised in tests without a real binary or database.

package search

import (
	"context"
	"fmt"
	"strings"
)

// Result is the raw product of one search invocation.
type Result struct {
	// A3M is the alignment output, verbatim.
	A3M []byte
	// Taxids maps hit name to NCBI TaxID, when the tool emitted its
	// taxonomy table. Nil otherwise.
	Taxids map[string]string
}

// Tool runs one blocking search for a single query sequence. name is the
// query label used in the temporary FASTA header.
type Tool interface {
	Run(ctx context.Context, name, sequence string) (*Result, error)
}

// ToolError reports a failed subprocess invocation, carrying the
// captured diagnostic output.
type ToolError struct {
	Tool   string
	Args   []string
	Output []byte
	Err    error
}

func (e *ToolError) Error() string {
	out := strings.TrimSpace(string(e.Output))
	if out == "" {
		return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s failed: %v - %s", e.Tool, e.Err, out)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
