package diagnostics

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toyz/metaroute/pkg/metaroute"
)

type tableController struct{}

func (tableController) List() []string { return nil }

func (tableController) Get(id int) int { return id }

func TestDiagnosticSystem_Levels(t *testing.T) {
	tests := []struct {
		level   DiagnosticLevel
		want    []string
		notWant []string
	}{
		{DiagnosticSilent, nil, []string{"[ERROR]", "[INFO]"}},
		{DiagnosticError, []string{"[ERROR] boom"}, []string{"[WARN]", "[INFO]"}},
		{DiagnosticInfo, []string{"[ERROR] boom", "[WARN] careful", "[INFO] hello", "[SUCCESS] done"}, []string{"[VERBOSE]", "[DEBUG]"}},
		{DiagnosticDebug, []string{"[VERBOSE] details", "[DEBUG] internals"}, nil},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		d := NewDiagnosticSystem(tt.level).WithOutput(&buf)

		d.Error("boom")
		d.Warn("careful")
		d.Info("hello")
		d.Success("done")
		d.Verbose("details")
		d.Debug("internals")

		for _, s := range tt.want {
			assert.Contains(t, buf.String(), s, "level %d", tt.level)
		}
		for _, s := range tt.notWant {
			assert.NotContains(t, buf.String(), s, "level %d", tt.level)
		}
	}
}

func TestDiagnosticSystem_RouteTable(t *testing.T) {
	reg := metaroute.NewRegistry()
	b := metaroute.Controller[tableController](reg, "/items").
		Authorize("ADMIN", "EDITOR").
		Get("", "List").
		Get("/:id", "Get", metaroute.Param("id"))
	require.NoError(t, b.Err())

	routes, err := metaroute.Compile(reg, metaroute.Options{
		Controllers:          []any{tableController{}},
		AuthorizationHandler: func(metaroute.RequestContext, []string) (bool, error) { return true, nil },
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	NewDiagnosticSystem(DiagnosticInfo).WithOutput(&buf).RouteTable(routes)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "METHOD")
	assert.Contains(t, lines[1], "/items")
	assert.Contains(t, lines[1], "tableController.List")
	assert.Contains(t, lines[1], "ADMIN,EDITOR")
	assert.Contains(t, lines[2], "/items/:id")
	assert.Contains(t, lines[2], "0:PathParam(id)")
}

func TestDiagnosticSystem_ConfigurationError(t *testing.T) {
	reg := metaroute.NewRegistry()
	_, err := metaroute.Compile(reg, metaroute.Options{})
	require.Error(t, err)

	var buf bytes.Buffer
	d := NewDiagnosticSystem(DiagnosticError).WithOutput(&buf)
	d.ConfigurationError(err)
	assert.Contains(t, buf.String(), "configuration error: no controllers configured")

	buf.Reset()
	d.ConfigurationError(errors.New("plain failure"))
	assert.Contains(t, buf.String(), "[ERROR] plain failure")
}

func TestDiagnosticSystem_Summary(t *testing.T) {
	var buf bytes.Buffer
	NewDiagnosticSystem(DiagnosticInfo).WithOutput(&buf).Summary("Routes", map[string]any{
		"b": 2,
		"a": 1,
	})

	out := buf.String()
	assert.Less(t, strings.Index(out, "a: 1"), strings.Index(out, "b: 2"))
}
