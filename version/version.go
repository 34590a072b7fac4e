// Package version reports build information for the marquee binary.
package version

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/marquee/plugin"
)

// Set at build time:
//
//	-ldflags "-X github.com/teranos/marquee/version.Version=v0.4.0 -X ...CommitHash=$(git rev-parse HEAD)"
var (
	CommitHash = "dev"
	BuildTime  = "unknown"
	Version    = "dev"
)

// Info describes the running binary and the plugin API it serves.
type Info struct {
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Version    string `json:"version"`
	PluginAPI  string `json:"plugin_api"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

func Get() Info {
	return Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		PluginAPI:  plugin.APIVersion,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Semver parses Version. Untagged development builds return nil.
func (i Info) Semver() *semver.Version {
	v, err := semver.NewVersion(i.Version)
	if err != nil {
		return nil
	}
	return v
}

func (i Info) String() string {
	name := "dev"
	if v := i.Semver(); v != nil {
		name = "v" + v.String()
	}
	return fmt.Sprintf("marquee %s (commit %s, built %s, plugin api %s)", name, i.Short(), i.BuildTime, i.PluginAPI)
}

// Short returns the first seven characters of the commit hash.
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
