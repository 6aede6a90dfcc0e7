package securefile

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// ConfigPathCandidates lists where <app>/<filename> may live, most preferred
// first. Snap confinement rewrites HOME, so SNAP_REAL_HOME wins when set.
func ConfigPathCandidates(app, filename string) ([]string, error) {
	if app == "" || filename == "" {
		return nil, errors.New("securefile: app and filename are required")
	}

	var dirs []string
	for _, env := range []string{"SNAP_REAL_HOME", "HOME"} {
		if home := os.Getenv(env); home != "" {
			dirs = append(dirs, filepath.Join(home, ".config"))
		}
	}
	userDir, userErr := os.UserConfigDir()
	if userErr == nil {
		dirs = append(dirs, userDir)
	}
	if len(dirs) == 0 {
		return nil, errors.Wrap(userErr, "securefile: no config directory")
	}

	seen := make(map[string]struct{}, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		p := filepath.Join(d, app, filename)
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// ResolvePath returns the first candidate that exists, else the preferred one.
func ResolvePath(app, filename string) (string, error) {
	cands, err := ConfigPathCandidates(app, filename)
	if err != nil {
		return "", err
	}
	for _, p := range cands {
		if Exists(p) {
			return p, nil
		}
	}
	return cands[0], nil
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
