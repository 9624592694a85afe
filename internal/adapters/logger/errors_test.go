package logger_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/drainage/internal/adapters/logger"
	"go.trai.ch/zerr"
)

var errUpstream = zerr.New("upstream dependency failed")

func TestCollectErrorEntries(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantMessages []string
		wantMetadata []map[string]any
	}{
		{
			name:         "standard error",
			err:          errors.New("qgis_process not found"),
			wantMessages: []string{"qgis_process not found"},
			wantMetadata: []map[string]any{nil},
		},
		{
			name:         "wrapped chain",
			err:          zerr.Wrap(zerr.Wrap(errors.New("exit status 1"), "run gdal:merge"), "build mosaic"),
			wantMessages: []string{"build mosaic", "run gdal:merge", "exit status 1"},
			wantMetadata: []map[string]any{{}, {}, nil},
		},
		{
			name:         "metadata on wrapper",
			err:          zerr.With(zerr.Wrap(errUpstream, "cascade"), "dependency", "load-b"),
			wantMessages: []string{"cascade", "upstream dependency failed"},
			wantMetadata: []map[string]any{{"dependency": "load-b"}, {}},
		},
		{
			name:         "metadata on anonymous link folds into the cause",
			err:          zerr.With(errors.New("exit status 2"), "algorithm", "native:rastercalc"),
			wantMessages: []string{"exit status 2"},
			wantMetadata: []map[string]any{{"algorithm": "native:rastercalc"}},
		},
		{
			name:         "stdlib wrapping stops the walk",
			err:          fmt.Errorf("task execution failed: %w", zerr.New("inner")),
			wantMessages: []string{"task execution failed: inner"},
			wantMetadata: []map[string]any{nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := logger.CollectErrorEntries(tt.err)

			assert.Len(t, entries, len(tt.wantMessages))
			for i, want := range tt.wantMessages {
				assert.Equal(t, want, entries[i].Message, "message at %d", i)
				assert.Equal(t, tt.wantMetadata[i], entries[i].Metadata, "metadata at %d", i)
			}
		})
	}
}

func TestCollectErrorEntries_Nil(t *testing.T) {
	assert.Empty(t, logger.CollectErrorEntries(nil))
}

func TestFormatErrorEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []logger.ErrorEntry
		want    string
	}{
		{
			name:    "single",
			entries: []logger.ErrorEntry{{Message: "pipeline execution failed"}},
			want:    "Error: pipeline execution failed",
		},
		{
			name:    "caused by",
			entries: []logger.ErrorEntry{{Message: "outer"}, {Message: "middle"}, {Message: "inner"}},
			want:    "Error: outer\n\n  Caused by:\n    → middle\n    → inner",
		},
		{
			name: "sorted metadata",
			entries: []logger.ErrorEntry{{
				Message:  "cannot add task",
				Metadata: map[string]any{"task": "merge", "dependency": "ghost"},
			}},
			want: "Error: cannot add task\n       dependency: ghost\n       task: merge",
		},
		{
			name: "multiline cause",
			entries: []logger.ErrorEntry{
				{Message: "pipeline execution failed"},
				{Message: "load-b: boom\nmerge: upstream", Metadata: map[string]any{"task": "load-b"}},
			},
			want: "Error: pipeline execution failed\n\n  Caused by:\n    → load-b: boom\n      merge: upstream\n      task: load-b",
		},
		{
			name:    "empty",
			entries: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.FormatErrorEntries(tt.entries))
		})
	}
}
