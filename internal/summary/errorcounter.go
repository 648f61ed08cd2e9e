package summary

import (
	"regexp"
	"slices"
	"sort"
)

// CommonErrorPatterns are the patterns counted in pod logs.
var CommonErrorPatterns = []string{
	`ERROR`,
	`FATAL`,
	`Exception`,
	`Caused by:`,
	`OOMKilled`,
	`CrashLoopBackOff`,
	`panic(\.go)?:`,
}

const genericErrorPattern = `error`

var (
	commonErrorRegexps = compilePatterns(CommonErrorPatterns)
	genericErrorRegexp = regexp.MustCompile(genericErrorPattern)
)

func compilePatterns(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// ErrorCounter is a map to handle a generic error counter, indexed by error pattern.
type ErrorCounter map[string]int

// NewErrorCounter counts the occurrences of each pattern, plus the generic
// `error` pattern, in buf. It returns nil when nothing matches.
func NewErrorCounter(buf *string, pattern []string) ErrorCounter {
	total := 0
	counters := make(ErrorCounter, len(pattern)+2)

	incError := func(err string, cnt int) {
		counters[err] += cnt
		total += cnt
	}

	regexps := commonErrorRegexps
	if !slices.Equal(pattern, CommonErrorPatterns) {
		regexps = compilePatterns(pattern)
	}
	names := append(append([]string{}, pattern...), genericErrorPattern)
	for i, re := range append(append([]*regexp.Regexp{}, regexps...), genericErrorRegexp) {
		if matches := re.FindAllStringIndex(*buf, -1); len(matches) != 0 {
			incError(names[i], len(matches))
		}
	}

	if total == 0 {
		return nil
	}
	counters["total"] = total
	return counters
}

// MergeErrorCounters sums two counters into a new one.
func MergeErrorCounters(ec1, ec2 ErrorCounter) ErrorCounter {
	if ec1 == nil && ec2 == nil {
		return nil
	}
	merged := make(ErrorCounter, len(ec1)+len(ec2))
	for k, v := range ec1 {
		merged[k] += v
	}
	for k, v := range ec2 {
		merged[k] += v
	}
	return merged
}

// Sorted returns the patterns ordered by count, then name. The "total" key
// is left out.
func (ec ErrorCounter) Sorted() []SeverityCount {
	out := []SeverityCount{}
	for k, v := range ec {
		if k == "total" {
			continue
		}
		out = append(out, SeverityCount{Severity: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Severity < out[j].Severity
	})
	return out
}
