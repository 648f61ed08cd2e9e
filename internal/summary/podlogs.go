package summary

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"

	"github.com/apicurio/workflow-results/internal/workflow"
)

// maxLogScanSize bounds how much of each log is scanned for error patterns.
const maxLogScanSize = 64 << 20

// LogFile is one pod log collected for the job.
type LogFile struct {
	Name       string       `json:"name"`
	Path       string       `json:"path"`
	Size       int64        `json:"size"`
	Compressed bool         `json:"compressed,omitempty"`
	Errors     ErrorCounter `json:"errors,omitempty"`
}

// PodLogs is the inventory of the job's pod-logs directory.
type PodLogs struct {
	Files     []*LogFile   `json:"files"`
	TotalSize int64        `json:"totalSize"`
	Errors    ErrorCounter `json:"errors,omitempty"`
}

// ParsePodLogs inventories *.log and *.log.xz files under pod-logs and counts
// error patterns in their content. It returns nil when the job has no logs.
func ParsePodLogs(job *workflow.Job) *PodLogs {
	logsDir := filepath.Join(job.Path, workflow.DirPodLogs)
	if fi, err := os.Stat(logsDir); err != nil || !fi.IsDir() {
		return nil
	}
	pl := &PodLogs{Files: []*LogFile{}}
	err := filepath.WalkDir(logsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warnf("job %s: unable to read %s: %v", job.Name, path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		compressed := strings.HasSuffix(d.Name(), ".log.xz")
		if !compressed && !strings.HasSuffix(d.Name(), ".log") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			log.Warnf("job %s: unable to stat %s: %v", job.Name, path, err)
			return nil
		}
		lf := &LogFile{
			Name:       d.Name(),
			Path:       relLink(job, path),
			Size:       info.Size(),
			Compressed: compressed,
		}
		buf, err := readLog(path, compressed)
		if err != nil {
			log.Warnf("job %s: unable to read log %s: %v", job.Name, lf.Path, err)
		} else {
			lf.Errors = NewErrorCounter(&buf, CommonErrorPatterns)
			pl.Errors = MergeErrorCounters(pl.Errors, lf.Errors)
		}
		pl.Files = append(pl.Files, lf)
		pl.TotalSize += lf.Size
		return nil
	})
	if err != nil {
		log.Warnf("job %s: unable to walk pod logs: %v", job.Name, err)
	}
	return pl
}

func readLog(path string, compressed bool) (string, error) {
	fd, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fd.Close()

	var r io.Reader = fd
	if compressed {
		xzr, err := xz.NewReader(fd)
		if err != nil {
			return "", err
		}
		r = xzr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(r, maxLogScanSize)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
