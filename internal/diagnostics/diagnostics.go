// Package diagnostics renders user-facing CLI output: leveled messages, the
// compiled route table and configuration failures.
package diagnostics

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/toyz/metaroute/pkg/metaroute"
)

// DiagnosticLevel represents the level of diagnostic output
type DiagnosticLevel int

const (
	DiagnosticSilent DiagnosticLevel = iota
	DiagnosticError
	DiagnosticWarn
	DiagnosticInfo
	DiagnosticVerbose
	DiagnosticDebug
)

// DiagnosticSystem provides structured, user-friendly output
type DiagnosticSystem struct {
	level     DiagnosticLevel
	useColors bool
	showTime  bool
	output    io.Writer
	errorOut  io.Writer
}

// NewDiagnosticSystem creates a new diagnostic system writing to stdout and stderr
func NewDiagnosticSystem(level DiagnosticLevel) *DiagnosticSystem {
	return &DiagnosticSystem{
		level:     level,
		useColors: shouldUseColors(),
		showTime:  level >= DiagnosticVerbose,
		output:    os.Stdout,
		errorOut:  os.Stderr,
	}
}

// NewQuietDiagnostics creates a diagnostic system that only shows errors
func NewQuietDiagnostics() *DiagnosticSystem {
	return NewDiagnosticSystem(DiagnosticError)
}

// NewVerboseDiagnostics creates a diagnostic system with full output
func NewVerboseDiagnostics() *DiagnosticSystem {
	return NewDiagnosticSystem(DiagnosticVerbose)
}

// WithOutput redirects both streams to w and disables colors
func (d *DiagnosticSystem) WithOutput(w io.Writer) *DiagnosticSystem {
	d.output = w
	d.errorOut = w
	d.useColors = false
	return d
}

// Error outputs error messages (always shown unless silent)
func (d *DiagnosticSystem) Error(format string, args ...any) {
	if d.level >= DiagnosticError {
		d.writeMessage(d.errorOut, "ERROR", color.FgRed, format, args...)
	}
}

// Warn outputs warning messages
func (d *DiagnosticSystem) Warn(format string, args ...any) {
	if d.level >= DiagnosticWarn {
		d.writeMessage(d.output, "WARN", color.FgYellow, format, args...)
	}
}

// Info outputs informational messages
func (d *DiagnosticSystem) Info(format string, args ...any) {
	if d.level >= DiagnosticInfo {
		d.writeMessage(d.output, "INFO", color.FgBlue, format, args...)
	}
}

// Success outputs success messages with emphasis
func (d *DiagnosticSystem) Success(format string, args ...any) {
	if d.level >= DiagnosticInfo {
		d.writeMessage(d.output, "SUCCESS", color.FgGreen, format, args...)
	}
}

// Verbose outputs detailed messages (verbose mode only)
func (d *DiagnosticSystem) Verbose(format string, args ...any) {
	if d.level >= DiagnosticVerbose {
		d.writeMessage(d.output, "VERBOSE", color.FgHiBlack, format, args...)
	}
}

// Debug outputs debug messages (highest verbosity)
func (d *DiagnosticSystem) Debug(format string, args ...any) {
	if d.level >= DiagnosticDebug {
		d.writeMessage(d.output, "DEBUG", color.FgMagenta, format, args...)
	}
}

// Header outputs the main banner line
func (d *DiagnosticSystem) Header(message string) {
	if d.level >= DiagnosticInfo {
		d.paint(color.FgCyan).Fprintf(d.output, "metaroute: %s\n", message)
	}
}

// Summary outputs a final summary with statistics, keys sorted
func (d *DiagnosticSystem) Summary(title string, stats map[string]any) {
	if d.level < DiagnosticInfo {
		return
	}

	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Fprintf(d.output, "\n%s\n", title)
	for _, key := range keys {
		fmt.Fprintf(d.output, "   %s: %v\n", key, stats[key])
	}
	fmt.Fprintln(d.output)
}

// RouteTable prints one line per compiled route: verb, path, handler, required
// roles and the parameter kinds in index order
func (d *DiagnosticSystem) RouteTable(routes []metaroute.RouteDescriptor) {
	if d.level < DiagnosticInfo {
		return
	}

	tw := tabwriter.NewWriter(d.output, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATH\tHANDLER\tROLES\tPARAMS")
	for _, route := range routes {
		roles := "-"
		if r := route.Roles(); len(r) > 0 {
			roles = strings.Join(r, ",")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			d.paint(methodColor(route.HTTPMethod)).Sprint(route.HTTPMethod),
			route.Path.Raw(),
			route.Handler(),
			roles,
			describeParams(route.Parameters),
		)
	}
	_ = tw.Flush()
}

// ConfigurationError prints err, adding class and method details for
// *metaroute.ConfigurationError
func (d *DiagnosticSystem) ConfigurationError(err error) {
	var cfgErr *metaroute.ConfigurationError
	if !errors.As(err, &cfgErr) {
		d.Error("%v", err)
		return
	}

	d.Error("configuration error: %s", cfgErr.Message)
	if d.level < DiagnosticError {
		return
	}
	if cfgErr.Class != "" {
		fmt.Fprintf(d.errorOut, "  class:  %s\n", cfgErr.Class)
	}
	if cfgErr.Method != "" {
		fmt.Fprintf(d.errorOut, "  method: %s\n", cfgErr.Method)
	}
	if cfgErr.Cause != nil {
		fmt.Fprintf(d.errorOut, "  cause:  %v\n", cfgErr.Cause)
	}
}

func describeParams(params []metaroute.ParameterInfo) string {
	if len(params) == 0 {
		return "-"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		if name := p.Name(); name != "" {
			parts[i] = fmt.Sprintf("%d:%s(%s)", p.Index, p.Kind, name)
		} else {
			parts[i] = fmt.Sprintf("%d:%s", p.Index, p.Kind)
		}
	}
	return strings.Join(parts, " ")
}

func methodColor(method string) color.Attribute {
	switch method {
	case "GET":
		return color.FgGreen
	case "POST":
		return color.FgYellow
	case "PUT", "PATCH":
		return color.FgBlue
	case "DELETE":
		return color.FgRed
	default:
		return color.FgWhite
	}
}

// paint returns a color printer honoring the system's color setting
func (d *DiagnosticSystem) paint(attr color.Attribute) *color.Color {
	c := color.New(attr)
	if d.useColors {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// writeMessage is the internal message writing function
func (d *DiagnosticSystem) writeMessage(w io.Writer, level string, attr color.Attribute, format string, args ...any) {
	var b strings.Builder
	if d.showTime {
		b.WriteString(time.Now().Format("15:04:05 "))
	}
	b.WriteString(d.paint(attr).Sprintf("[%s]", level))
	b.WriteString(" ")
	fmt.Fprintf(&b, format, args...)
	b.WriteString("\n")
	fmt.Fprint(w, b.String())
}

// shouldUseColors determines if colors should be used
func shouldUseColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}
