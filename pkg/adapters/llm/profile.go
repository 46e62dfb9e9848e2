package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ProfileFile is written into the project directory by setup.
const ProfileFile = "project_config.json"

type profileFile struct {
	Language       string `json:"language"`
	Framework      string `json:"framework"`
	Specialization string `json:"specialization"`
}

// LoadProfile reads the profile saved in dir. ok is false when none exists.
func LoadProfile(dir string) (p Profile, ok bool, err error) {
	data, err := os.ReadFile(filepath.Join(dir, ProfileFile))
	if errors.Is(err, fs.ErrNotExist) {
		return Profile{}, false, nil
	}
	if err != nil {
		return Profile{}, false, err
	}
	var raw profileFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return Profile{}, false, fmt.Errorf("invalid %s: %w", ProfileFile, err)
	}
	return Profile(raw), true, nil
}

// SaveProfile writes p into dir, creating the directory if needed.
func SaveProfile(dir string, p Profile) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(profileFile(p), "", "    ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ProfileFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
