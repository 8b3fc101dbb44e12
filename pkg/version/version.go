package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags "-X github.com/kcaldas/devconsole/pkg/version.Version=..."
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info describes the running binary
type Info struct {
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Date     string `json:"date"`
	Go       string `json:"go"`
	Platform string `json:"platform"`
}

// GetInfo returns version information
func GetInfo() Info {
	return Info{
		Version:  Version,
		Commit:   Commit,
		Date:     Date,
		Go:       runtime.Version(),
		Platform: fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String is the multi-line form printed by `devconsole version`
func (i Info) String() string {
	return fmt.Sprintf("devconsole %s\ncommit: %s\nbuilt: %s\ngo: %s\nplatform: %s",
		i.Version, i.Commit, i.Date, i.Go, i.Platform)
}
