package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

// LogFilePath builds the per-session log file path: <logsDir>/<plugin>.<start>.log.
func LogFilePath(logsDir, pluginName string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", pluginName, sessionStart.Format("20060102_150405")),
	)
}
