package cli

import (
	"io"

	"github.com/getmockd/mockapi/pkg/cli/internal/output"
)

// printResult outputs a single operation result.
//
// Contract: when --json is active, ONLY the JSON encoding of data is written
// to w. textFn is called only in text mode.
func printResult(w io.Writer, g *globalFlags, data any, textFn func()) error {
	if g.jsonOutput {
		return output.JSON(w, data)
	}
	textFn()
	return nil
}
