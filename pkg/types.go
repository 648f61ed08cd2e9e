package pkg

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	ProjectName = "wfr"
	LogFileName = "wfr.log"
)

// LogFilePath returns the log file location in the XDG state directory,
// creating the parent directories when needed.
func LogFilePath() (string, error) {
	return xdg.StateFile(filepath.Join(ProjectName, LogFileName))
}
