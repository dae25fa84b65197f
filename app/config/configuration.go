// Package config holds the runtime configuration of the server. It is
// populated once at startup and read-only afterwards.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Configuration struct {
	Host       string
	Port       int
	Dir        string
	DBFilename string
}

// ListenAddr returns the host:port pair the listener binds to.
func (c Configuration) ListenAddr() string {
	return fmt.Sprintf("%s:%v", c.Host, c.Port)
}

// SnapshotPath returns the full path of the snapshot file.
func (c Configuration) SnapshotPath() string {
	return filepath.Join(c.Dir, c.DBFilename)
}

// Get looks up a configuration parameter by its CONFIG GET name. The
// lookup is case-insensitive.
func (c Configuration) Get(param string) (string, bool) {
	switch strings.ToLower(param) {
	case "dir":
		return c.Dir, true
	case "dbfilename":
		return c.DBFilename, true
	default:
		return "", false
	}
}
