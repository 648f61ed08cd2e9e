package api

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Parse the XML data (JUnit created by maven-surefire/maven-failsafe)
type TestStatus string

const (
	TestStatusPass    TestStatus = "pass"
	TestStatusFail    TestStatus = "fail"
	TestStatusError   TestStatus = "error"
	TestStatusSkipped TestStatus = "skipped"
)

type propSkipped struct {
	Message string `xml:"message,attr"`
}

// propFailure holds both <failure> and <error> elements.
type propFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

type Property struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type TestCase struct {
	Name      string       `xml:"name,attr"`
	ClassName string       `xml:"classname,attr"`
	Time      string       `xml:"time,attr"`
	Failure   *propFailure `xml:"failure"`
	Error     *propFailure `xml:"error"`
	Skipped   *propSkipped `xml:"skipped"`
	SystemOut string       `xml:"system-out"`
	Status    TestStatus   `xml:"-"`
}

// Message returns the first line of the failure or error reported by the test case.
func (tc *TestCase) Message() string {
	var f *propFailure
	switch {
	case tc.Failure != nil:
		f = tc.Failure
	case tc.Error != nil:
		f = tc.Error
	default:
		return ""
	}
	msg := f.Message
	if msg == "" {
		msg = f.Body
	}
	return firstLine(msg)
}

// Seconds returns the execution time of the test case, zero when not parseable.
func (tc *TestCase) Seconds() float64 {
	return ParseSeconds(tc.Time)
}

type TestSuite struct {
	XMLName    xml.Name   `xml:"testsuite"`
	Name       string     `xml:"name,attr"`
	Tests      int        `xml:"tests,attr"`
	Skipped    int        `xml:"skipped,attr"`
	Failures   int        `xml:"failures,attr"`
	Errors     int        `xml:"errors,attr"`
	Time       string     `xml:"time,attr"`
	Properties []Property `xml:"properties>property"`
	TestCases  []TestCase `xml:"testcase"`
}

type TestSuites struct {
	Tests     int         `xml:"tests,attr"`
	Disabled  int         `xml:"disabled,attr"`
	Errors    int         `xml:"errors,attr"`
	Failures  int         `xml:"failures,attr"`
	Time      string      `xml:"time,attr"`
	TestSuite []TestSuite `xml:"testsuite"`
}

type JUnitCounter struct {
	Total    int
	Skipped  int
	Failures int
	Errors   int
	Pass     int
}

type JUnitXMLParser struct {
	XMLFile  string
	Parsed   *TestSuite
	Counters *JUnitCounter
	Failures []string
	Cases    []*TestCase
}

// NewJUnitXMLParser reads a Surefire/Failsafe TEST-*.xml report and counts
// the test cases by status.
func NewJUnitXMLParser(xmlFile string) (*JUnitXMLParser, error) {
	xmlData, err := os.ReadFile(xmlFile)
	if err != nil {
		return nil, fmt.Errorf("error reading XML file: %w", err)
	}
	p, err := ParseJUnitXML(xmlData)
	if err != nil {
		return nil, err
	}
	p.XMLFile = xmlFile
	return p, nil
}

// ParseJUnitXML parses the raw report. Reports wrapped by <testsuites> are
// flattened into the first suite.
func ParseJUnitXML(xmlData []byte) (*JUnitXMLParser, error) {
	p := &JUnitXMLParser{
		Parsed:   &TestSuite{},
		Counters: &JUnitCounter{},
		Cases:    []*TestCase{},
	}
	if err := xml.Unmarshal(xmlData, p.Parsed); err != nil {
		ts := &TestSuites{}
		if !strings.Contains(err.Error(), "but have <testsuites>") {
			return nil, fmt.Errorf("error parsing XML data: %w", err)
		}
		log.Debugf("Found <testsuites> root element, attempting aggregated JUnit format...")
		if err := xml.Unmarshal(xmlData, ts); err != nil {
			return nil, fmt.Errorf("error parsing XML data with testsuites: %w", err)
		}
		if len(ts.TestSuite) == 0 {
			return nil, fmt.Errorf("error parsing XML data: empty <testsuites>")
		}
		merged := ts.TestSuite[0]
		for _, s := range ts.TestSuite[1:] {
			merged.Tests += s.Tests
			merged.Skipped += s.Skipped
			merged.Failures += s.Failures
			merged.Errors += s.Errors
			merged.TestCases = append(merged.TestCases, s.TestCases...)
		}
		p.Parsed = &merged
	}
	for i := range p.Parsed.TestCases {
		tc := &p.Parsed.TestCases[i]
		p.Counters.Total += 1
		switch {
		case tc.Skipped != nil:
			p.Counters.Skipped += 1
			tc.Status = TestStatusSkipped
		case tc.Failure != nil:
			p.Counters.Failures += 1
			p.Failures = append(p.Failures, fmt.Sprintf("\"%s\"", tc.Name))
			tc.Status = TestStatusFail
		case tc.Error != nil:
			p.Counters.Errors += 1
			p.Failures = append(p.Failures, fmt.Sprintf("\"%s\"", tc.Name))
			tc.Status = TestStatusError
		default:
			tc.Status = TestStatusPass
		}
		p.Cases = append(p.Cases, tc)
	}
	p.Counters.Pass = p.Counters.Total - (p.Counters.Skipped + p.Counters.Failures + p.Counters.Errors)

	return p, nil
}

// FailsafeSummary is the aggregated report written by maven-failsafe-plugin
// to failsafe-reports/failsafe-summary.xml.
type FailsafeSummary struct {
	XMLName        xml.Name `xml:"failsafe-summary"`
	Result         string   `xml:"result,attr"`
	Timeout        bool     `xml:"timeout,attr"`
	Completed      int      `xml:"completed"`
	Errors         int      `xml:"errors"`
	Failures       int      `xml:"failures"`
	Skipped        int      `xml:"skipped"`
	FailureMessage string   `xml:"failureMessage"`
}

// NewFailsafeSummary reads and parses the failsafe-summary.xml file.
func NewFailsafeSummary(xmlFile string) (*FailsafeSummary, error) {
	xmlData, err := os.ReadFile(xmlFile)
	if err != nil {
		return nil, fmt.Errorf("error reading XML file: %w", err)
	}
	fs := &FailsafeSummary{}
	if err := xml.Unmarshal(xmlData, fs); err != nil {
		return nil, fmt.Errorf("error parsing failsafe summary: %w", err)
	}
	if fs.Completed < 0 || fs.Errors < 0 || fs.Failures < 0 || fs.Skipped < 0 {
		return nil, fmt.Errorf("error parsing failsafe summary: negative counters")
	}
	return fs, nil
}

// ParseSeconds converts Surefire time attributes, which may carry thousand
// separators (e.g. "1,234.5"), into seconds.
func ParseSeconds(v string) float64 {
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = strings.TrimSpace(s[:idx])
	}
	return s
}
