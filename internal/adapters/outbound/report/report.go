// Package report serializes validation results to disk, as the canonical
// JSON document or as a self-contained HTML page.
package report

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/preflightci/preflight/internal/adapters/outbound/gitinfo"
	"github.com/preflightci/preflight/internal/domain"
)

// FileReporter implements domain.ReportWriter.
type FileReporter struct{}

func New() *FileReporter {
	return &FileReporter{}
}

func (r *FileReporter) WriteJSON(result *domain.ValidationResult, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

//go:embed report.gohtml
var reportHTML string

var reportTmpl = template.Must(template.New("report").Parse(reportHTML))

func (r *FileReporter) WriteHTML(result *domain.ValidationResult, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return reportTmpl.Execute(f, newHTMLView(result))
}

// htmlView augments the result with display-ready fields for the template.
type htmlView struct {
	*domain.ValidationResult
	OverallClass string
	ShortCommit  string
	GeneratedAt  string
	StageRows    []stageRow
}

type stageRow struct {
	Name    string
	Status  string
	Class   string
	Message string
}

func newHTMLView(result *domain.ValidationResult) htmlView {
	return htmlView{
		ValidationResult: result,
		OverallClass:     statusClass(result.Status),
		ShortCommit:      gitinfo.ShortHash(result.CommitHash),
		GeneratedAt:      time.Now().Format(time.RFC1123),
		StageRows:        stageRows(result.Stages),
	}
}

func stageRows(stages domain.StageResults) []stageRow {
	var rows []stageRow
	add := func(name, status, message string) {
		rows = append(rows, stageRow{Name: name, Status: status, Class: statusClass(status), Message: message})
	}

	if s := stages.Static; s != nil {
		add(domain.StageStatic, s.Status, fmt.Sprintf("%d files analyzed, %d errors, %d warnings",
			s.FilesAnalyzed, s.Counts.Errors, s.Counts.Warnings))
	}
	if b := stages.Build; b != nil {
		add(domain.StageBuild, b.Status, b.Message)
	}
	if r := stages.Runtime; r != nil {
		add(domain.StageRuntime, r.Status, r.Message)
	}
	if u := stages.UI; u != nil {
		add(domain.StageUI, u.Status, u.Message)
	}
	return rows
}

func statusClass(status string) string {
	switch status {
	case domain.StatusPass:
		return "pass"
	case domain.StatusWarn:
		return "warn"
	case domain.StatusFail:
		return "fail"
	default:
		return "skip"
	}
}
