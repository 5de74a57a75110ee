// Package misc keeps build time information.
package misc

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
)

// Set with -ldflags "-X ogcard/misc.version=... -X ogcard/misc.gitHash=..."
var (
	version = "dev"
	gitHash = ""
)

func GetAppName() string {
	name := filepath.Base(os.Args[0])
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
