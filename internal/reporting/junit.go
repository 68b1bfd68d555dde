package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one run.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one scripted turn.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

// JUnitFailure represents a turn that deviated from its expectation.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError represents an aborted run.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitSkipped marks a turn the run never reached.
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit converts run results to JUnit XML, one suite per run and
// one testcase per scripted turn. NOT_EXECUTED turns map to skipped so CI
// dashboards distinguish them from real failures.
func ConvertToJUnit(runs []*models.RunResult) *JUnitTestSuites {
	suites := &JUnitTestSuites{}

	for _, run := range runs {
		if run.Report == nil {
			continue
		}
		suite := convertRun(run)
		suites.Tests += suite.Tests
		suites.Failures += suite.Failures
		suites.Errors += suite.Errors
		suites.Time += suite.Time
		suites.TestSuites = append(suites.TestSuites, suite)
	}

	return suites
}

func convertRun(run *models.RunResult) JUnitTestSuite {
	digest := run.Report.Digest()
	durationSec := run.EndedAt.Sub(run.StartedAt).Seconds()
	if durationSec < 0 {
		durationSec = 0
	}

	suite := JUnitTestSuite{
		Name:      run.ScriptID,
		Tests:     digest.TotalTurns,
		Failures:  digest.Failed,
		Skipped:   digest.NotExecuted,
		Time:      durationSec,
		Timestamp: run.StartedAt.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "run_id", Value: run.RunID},
			{Name: "mode", Value: string(run.Mode)},
			{Name: "state", Value: string(run.State)},
			{Name: "overall", Value: string(run.Report.Overall)},
		},
	}
	if run.AbortReason != "" {
		suite.Errors = 1
		suite.Properties = append(suite.Properties, JUnitProperty{
			Name: "abort_reason", Value: run.AbortReason,
		})
	}

	for _, tv := range run.Report.TurnVerdicts {
		suite.TestCases = append(suite.TestCases, convertTurn(run, tv))
	}
	return suite
}

func convertTurn(run *models.RunResult, tv models.TurnVerdict) JUnitTestCase {
	tc := JUnitTestCase{
		Name:      fmt.Sprintf("turn %d", tv.TurnIndex),
		Classname: run.ScriptID,
	}

	switch tv.Verdict {
	case models.VerdictFail:
		tc.Failure = buildFailure(tv)
	case models.VerdictNotExecuted:
		tc.Skipped = &JUnitSkipped{Message: tv.Reason}
	}
	return tc
}

func buildFailure(tv models.TurnVerdict) *JUnitFailure {
	if tv.ExpectedText != "" || tv.ActualText != "" {
		return &JUnitFailure{
			Message: fmt.Sprintf("turn %d: exact match failed", tv.TurnIndex),
			Type:    "ExactMatchFailure",
			Body:    fmt.Sprintf("expected %q, got %q", tv.ExpectedText, tv.ActualText),
		}
	}
	return &JUnitFailure{
		Message: fmt.Sprintf("turn %d: missing keywords", tv.TurnIndex),
		Type:    "KeywordFailure",
		Body:    strings.Join(tv.MissingKeywords, ", "),
	}
}

// WriteJUnitXML writes JUnit XML for the given runs to the specified path.
func WriteJUnitXML(runs []*models.RunResult, path string) error {
	suites := ConvertToJUnit(runs)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0644)
}
