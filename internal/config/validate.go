package config

// This file adds a lightweight linter/validator for Config values. It performs
// static checks and returns a list of issues (errors and warnings) that the
// CLI surfaces before doing any I/O.

import (
	"fmt"
	"strings"

	"csvload/internal/parser/csv"
	"csvload/internal/schema"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding.
//
// Path is the dotted config key (e.g. "load.max_backoff"). Message is
// human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// StorageKinds lists the backends the CLI can load into.
var StorageKinds = []string{"postgres", "mysql", "mssql", "sqlite"}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Validate performs static validation of c. It does not mutate c.
func Validate(c Config) []Issue {
	var issues []Issue
	issues = append(issues, validateInput(c)...)
	issues = append(issues, validateLoad(c.Inference, c.Load)...)
	issues = append(issues, validateStorage(c.Storage, c.DryRun)...)
	issues = append(issues, validateMetrics(c.Metrics)...)
	issues = append(issues, validateLog(c.Log)...)
	return issues
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

func validateInput(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Input.Path) == "" {
		issues = append(issues, errorf("input.path", "input file is required"))
	}
	if _, err := csv.ParseDelimiter(c.Input.Delimiter); err != nil {
		issues = append(issues, errorf("input.delimiter", "%v", err))
	}
	if c.Input.Path != "" || c.Table != "" {
		if err := schema.ValidateTableName(c.TableName()); err != nil {
			issues = append(issues, errorf("table", "%v", err))
		}
	}
	return issues
}

func validateLoad(inf Inference, l LoadConfig) []Issue {
	var issues []Issue

	if inf.SampleSize <= 0 {
		issues = append(issues, errorf("inference.sample_size", "must be > 0, got %d", inf.SampleSize))
	}
	if l.BatchSize <= 0 {
		issues = append(issues, errorf("load.batch_size", "must be > 0, got %d", l.BatchSize))
	}
	if l.MaxRetries < 0 {
		issues = append(issues, errorf("load.max_retries", "must be >= 0, got %d", l.MaxRetries))
	}
	if l.InitialBackoff < 0 {
		issues = append(issues, errorf("load.initial_backoff", "must be >= 0, got %s", l.InitialBackoff))
	}
	if l.MaxBackoff < l.InitialBackoff {
		issues = append(issues, errorf("load.max_backoff",
			"must be >= load.initial_backoff (%s), got %s", l.InitialBackoff, l.MaxBackoff))
	}
	if l.MaxRetries > 0 && l.InitialBackoff == 0 {
		issues = append(issues, warnf("load.initial_backoff", "is 0; retries will be sent without waiting"))
	}
	return issues
}

func validateStorage(s Storage, dryRun bool) []Issue {
	var issues []Issue

	if !oneOf(s.Kind, StorageKinds) {
		issues = append(issues, errorf("storage.kind", "unsupported kind %q (want one of %s)", s.Kind, strings.Join(StorageKinds, ", ")))
	}
	if !dryRun && strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, errorf("storage.dsn", "connection string is required unless dry_run is set"))
	}
	if s.DropTable && !s.CreateTable {
		issues = append(issues, warnf("storage.drop_table", "table is dropped but create_table is off; the load will fail"))
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if m.PushgatewayURL == "" {
			issues = append(issues, errorf("metrics.pushgateway_url", "required when metrics.backend is pushgateway"))
		}
	case "datadog":
		if m.DatadogAddr == "" {
			issues = append(issues, errorf("metrics.datadog_addr", "required when metrics.backend is datadog"))
		}
	default:
		issues = append(issues, errorf("metrics.backend", "unsupported backend %q (want none, pushgateway or datadog)", m.Backend))
	}
	return issues
}

func validateLog(l Log) []Issue {
	var issues []Issue

	if !oneOf(strings.ToLower(l.Level), logLevels) {
		issues = append(issues, errorf("log.level", "unsupported level %q", l.Level))
	}
	if !oneOf(strings.ToLower(l.Format), logFormats) {
		issues = append(issues, errorf("log.format", "unsupported format %q", l.Format))
	}
	return issues
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func errorf(path, format string, args ...any) Issue {
	return Issue{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)}
}

func warnf(path, format string, args ...any) Issue {
	return Issue{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)}
}
