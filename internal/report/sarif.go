package report

import (
	"io"

	"github.com/sec-toolkit/dirscan-toolkit/internal/model"
)

const (
	// sarifSchema is the published SARIF 2.1.0 JSON schema.
	sarifSchema = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"

	// sarifVersion is the SARIF format version.
	sarifVersion = "2.1.0"

	// sarifToolName is the driver name reported in every run.
	sarifToolName = "dirscan"

	// SARIFRuleID tags every result.
	SARIFRuleID = "dirscan/leak"

	// sarifLevel is the level of every result.
	sarifLevel = "warning"
)

type sarifDocument struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool               `json:"tool"`
	AutomationDetails *sarifAutomationDetails `json:"automationDetails,omitempty"`
	Results           []sarifResult           `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type sarifAutomationDetails struct {
	GUID string `json:"guid,omitempty"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

// SARIFWriter outputs a SARIF 2.1.0 log with a single run. Every probe
// becomes one warning-level result whose location is the probed URL, so code
// scanning dashboards can ingest the scan.
type SARIFWriter struct {
	encoder *JSONWriter

	// version is the tool version reported by the driver.
	version string
}

// NewSARIFWriter creates a SARIFWriter. toolVersion is reported as the
// driver version.
func NewSARIFWriter(output io.Writer, toolVersion string) *SARIFWriter {
	return &SARIFWriter{
		encoder: NewJSONWriter(output, WithPrettyPrint()),
		version: toolVersion,
	}
}

// Write outputs the report as a SARIF log.
func (w *SARIFWriter) Write(report *model.ScanReport) (int, error) {
	return w.encoder.writeJSON(w.build(report))
}

func (w *SARIFWriter) build(report *model.ScanReport) sarifDocument {
	run := sarifRun{
		Tool: sarifTool{
			Driver: sarifDriver{Name: sarifToolName, Version: w.version},
		},
		Results: make([]sarifResult, 0, len(report.Results)),
	}
	if report.RunID != "" {
		run.AutomationDetails = &sarifAutomationDetails{GUID: report.RunID}
	}

	for _, r := range report.Results {
		run.Results = append(run.Results, sarifResult{
			RuleID:  SARIFRuleID,
			Level:   sarifLevel,
			Message: sarifMessage{Text: r.URL + " -> " + r.Status.String()},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: r.URL},
				},
			}},
		})
	}

	return sarifDocument{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs:    []sarifRun{run},
	}
}
