// Package version хранит данные сборки, проставляемые через -ldflags.
package version

import "fmt"

// Переопределяются при сборке:
//
//	go build -ldflags "-X github.com/vladislavdragonenkov/rms/internal/version.version=v1.2.0"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info — данные сборки для логов, health и gRPC.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get возвращает данные текущей сборки.
func Get() Info {
	return Info{Version: version, Commit: commit, Date: date}
}

// GetVersion возвращает только версию.
func GetVersion() string { return version }

func (i Info) String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", i.Version, i.Commit, i.Date)
}

// UserAgent формирует User-Agent для исходящих запросов сервиса.
func UserAgent(service string) string {
	return fmt.Sprintf("%s/%s", service, version)
}
