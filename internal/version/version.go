package version

import "fmt"

// Значения заполняются при сборке через -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GetVersion возвращает версию сборки.
func GetVersion() string { return version }

// String возвращает полную информацию о сборке одной строкой.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}
