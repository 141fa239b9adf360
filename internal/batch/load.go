package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/pagecloud/internal/ir"
)

// LoadFile reads and compiles a batch file. Files ending in .json must be
// plain JSON; anything else is parsed as CUE.
func LoadFile(path string) (*ir.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load batch: %w", err)
	}
	return Parse(path, data)
}

// Parse compiles batch source. filename selects the syntax and appears in
// error positions.
func Parse(filename string, data []byte) (*ir.Batch, error) {
	ctx := cuecontext.New()

	var v cue.Value
	if filepath.Ext(filename) == ".json" {
		expr, err := cuejson.Extract(filename, data)
		if err != nil {
			return nil, formatCUEError(err)
		}
		v = ctx.BuildExpr(expr, cue.Filename(filename))
	} else {
		v = ctx.CompileBytes(data, cue.Filename(filename))
	}

	return Compile(v)
}
