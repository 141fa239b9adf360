package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pagecloud/internal/batch"
	"github.com/roach88/pagecloud/internal/page"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(EraseResult{Erased: 2})
	require.NoError(t, err)

	var resp jsonResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.JSONEq(t, `{"erased": 2}`, string(resp.Data))
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]string{"commit": "C7"}
	err := formatter.Error(CodeNotFound, "commit is unknown", details)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
	assert.Equal(t, "commit is unknown", resp.Error.Message)
	assert.Equal(t, map[string]any{"commit": "C7"}, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Success(FingerprintResult{Fingerprint: "laptop"}))
	assert.Equal(t, "laptop\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			err := formatter.Error(CodeBatch, "page is required", map[string]string{"field": "page"})
			require.NoError(t, err)
			assert.Contains(t, buf.String(), "Error [E_BATCH]: page is required")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details:")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "json",
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   true,
	}

	formatter.VerboseLog("Loaded %s", "notes.cue")
	assert.Empty(t, out.String())
	assert.Equal(t, "Loaded notes.cue\n", errOut.String())

	formatter.Verbose = false
	formatter.VerboseLog("dropped")
	assert.Equal(t, "Loaded notes.cue\n", errOut.String())
}

func TestOutputFormatter_Fail(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantExit int
		wantCode string
		details  any
	}{
		{
			name:     "unknown commit",
			err:      page.NewUnknownCommitError("C9"),
			wantExit: ExitFailure,
			wantCode: CodeNotFound,
			details:  map[string]any{"commit": "C9"},
		},
		{
			name:     "wrapped unknown object",
			err:      fmt.Errorf("lookup: %w", page.NewUnknownObjectError("logo")),
			wantExit: ExitFailure,
			wantCode: CodeNotFound,
		},
		{
			name:     "duplicate commit",
			err:      page.NewDuplicateCommitError("C1"),
			wantExit: ExitFailure,
			wantCode: CodeArgument,
			details:  map[string]any{"commit": "C1"},
		},
		{
			name:     "batch",
			err:      &batch.CompileError{Field: "page", Message: "empty page id"},
			wantExit: ExitFailure,
			wantCode: CodeBatch,
			details:  map[string]any{"field": "page"},
		},
		{
			name:     "other",
			err:      errors.New("disk full"),
			wantExit: ExitCommandError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: buf}

			err := formatter.Fail("request failed", tt.err)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.ErrorIs(t, err, tt.err)

			if tt.wantCode == "" {
				assert.Empty(t, buf.String())
				return
			}

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.err.Error(), resp.Error.Message)
			assert.Equal(t, tt.details, resp.Error.Details)
		})
	}
}

func TestExitErrors(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))

	inner := errors.New("no such file")
	err := fmt.Errorf("push: %w", WrapExitError(ExitCommandError, "failed to open database", inner))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "push: failed to open database: no such file", err.Error())
	assert.Equal(t, "bad flag", NewExitError(ExitCommandError, "bad flag").Error())
}
