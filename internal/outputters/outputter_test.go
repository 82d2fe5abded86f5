package outputters

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/assess/internal/assessment"
	"github.com/dotcommander/assess/internal/batch"
	"github.com/dotcommander/assess/internal/config"
	"github.com/dotcommander/assess/internal/output"
)

func summary() *batch.Summary {
	ev := assessment.NewEngine().Evaluate(assessment.TypeSeasonal, assessment.Response{
		"10": 5, "11": 5, "12": 5,
	})
	return batch.NewSummary(batch.Item{File: "winter.json", AssessmentType: assessment.TypeSeasonal, Evaluation: &ev})
}

func TestNewOutputter(t *testing.T) {
	cfg := &config.Config{Format: "console"}
	o := NewOutputter(cfg, nil)
	require.NotNil(t, o)
	assert.Same(t, cfg, o.config)
	assert.Equal(t, os.Stdout, o.w)

	var buf bytes.Buffer
	assert.Same(t, &buf, NewOutputter(cfg, &buf).w)
}

func TestOutputter_CreateFormatter(t *testing.T) {
	o := NewOutputter(&config.Config{}, &bytes.Buffer{})

	tests := []struct {
		format  string
		want    any
		wantErr bool
	}{
		{format: "console", want: &output.ConsoleFormatter{}},
		{format: "json", want: &output.JSONFormatter{}},
		{format: "markdown", want: &output.MarkdownFormatter{}},
		{format: "xml", wantErr: true},
		{format: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			f, err := o.CreateFormatter(tt.format)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unsupported format")
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
		})
	}
}

func TestOutputter_Format(t *testing.T) {
	t.Run("console", func(t *testing.T) {
		var buf bytes.Buffer
		o := NewOutputter(&config.Config{}, &buf)
		require.NoError(t, o.Format(summary(), "console"))
		assert.Contains(t, buf.String(), "Winter - A Season of Rest and Waiting")
	})

	t.Run("console quiet", func(t *testing.T) {
		var buf bytes.Buffer
		o := NewOutputter(&config.Config{Quiet: true}, &buf)
		require.NoError(t, o.Format(summary(), "console"))
		assert.Empty(t, buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		o := NewOutputter(&config.Config{}, &buf)
		require.NoError(t, o.Format(summary(), "json"))
		var report output.JSONReport
		require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
		require.Len(t, report.Results, 1)
		assert.Equal(t, "winter", report.Results[0].Result.PrimaryResult)
	})

	t.Run("markdown", func(t *testing.T) {
		var buf bytes.Buffer
		o := NewOutputter(&config.Config{}, &buf)
		require.NoError(t, o.Format(summary(), "markdown"))
		assert.True(t, strings.HasPrefix(buf.String(), "# Assessment Report"))
	})

	t.Run("unsupported", func(t *testing.T) {
		o := NewOutputter(&config.Config{}, &bytes.Buffer{})
		assert.Error(t, o.Format(summary(), "yaml"))
	})

	t.Run("sets start time", func(t *testing.T) {
		s := &batch.Summary{}
		o := NewOutputter(&config.Config{Quiet: true}, &bytes.Buffer{})
		require.NoError(t, o.Format(s, "console"))
		assert.False(t, s.StartTime.IsZero())
	})
}
