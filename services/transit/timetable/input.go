package timetable

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rmrobinson/timetables/services/transit"
)

var (
	// ErrMissingInput is returned if the connection index to render does not exist.
	ErrMissingInput = errors.New("missing out.json")

	// DefaultInputPaths are tried in order when no input path is configured.
	DefaultInputPaths = []string{"gtfs_tmp/out.json", "out.json"}
)

// ResolveInputPath picks the connection index to render: the explicit path if set,
// then the env path, then the first of DefaultInputPaths that exists, then the first default.
func ResolveInputPath(explicit, env string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	if p := strings.TrimSpace(env); p != "" {
		return p
	}
	for _, p := range DefaultInputPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return DefaultInputPaths[0]
}

// LoadIndex reads a connection index previously written as JSON.
func LoadIndex(path string) (transit.ConnectionIndex, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	ci, err := transit.ReadConnectionIndex(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return ci, nil
}
