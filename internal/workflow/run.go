package workflow

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const runDateLayout = "2006-01-02"

var reRunName = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(\d+)$`)

// Run is one timestamped invocation of the test matrix, stored in a
// directory named YYYY-MM-DD-<id>.
type Run struct {
	Name string    `json:"name"`
	Path string    `json:"-"`
	Date time.Time `json:"date"`
	ID   string    `json:"id"`
}

// DateString returns the run date as YYYY-MM-DD, or "Unknown" when the name
// does not carry one.
func (r *Run) DateString() string {
	if r.Date.IsZero() {
		return "Unknown"
	}
	return r.Date.Format(runDateLayout)
}

// ParseRunName validates a directory name against the run naming convention.
// Names with an impossible calendar date are rejected.
func ParseRunName(name string) (*Run, bool) {
	m := reRunName.FindStringSubmatch(name)
	if m == nil {
		return nil, false
	}
	date, err := time.Parse(runDateLayout, m[1])
	if err != nil {
		return nil, false
	}
	return &Run{Name: name, Date: date, ID: m[2]}, true
}

// NewRun builds the Run for a directory path. Directories not following the
// naming convention still produce a Run, with zero date and empty id.
func NewRun(path string) *Run {
	name := filepath.Base(filepath.Clean(path))
	if abs, err := filepath.Abs(path); err == nil {
		name = filepath.Base(abs)
	}
	if r, ok := ParseRunName(name); ok {
		r.Path = path
		return r
	}
	return &Run{Name: name, Path: path}
}

// ListRuns returns the run directories under root, newest first. Entries not
// matching the naming convention are ignored.
func ListRuns(root string) ([]*Run, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list root directory %s", root)
	}
	runs := []*Run{}
	for _, entry := range entries {
		run, ok := ParseRunName(entry.Name())
		if !ok {
			continue
		}
		run.Path = filepath.Join(root, entry.Name())
		if !isDir(run.Path) {
			log.Debugf("ignoring %s: not a directory", run.Path)
			continue
		}
		runs = append(runs, run)
	}
	SortRuns(runs)
	return runs, nil
}

// SortRuns orders runs by date descending, then numeric id descending, then
// name descending.
func SortRuns(runs []*Run) {
	sort.SliceStable(runs, func(i, j int) bool {
		a, b := runs[i], runs[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if c := compareNumeric(a.ID, b.ID); c != 0 {
			return c > 0
		}
		return a.Name > b.Name
	})
}

// compareNumeric compares two decimal strings of arbitrary length.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) > len(b) {
			return 1
		}
		return -1
	}
	return strings.Compare(a, b)
}
