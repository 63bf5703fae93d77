package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	AppName           = "harvest"
	DefaultConfigFile = "harvest.yaml"
)

var ErrConfigNotFound = errors.New("job file not found")

// File is the on-disk job file.
type File struct {
	OutputRoot string `yaml:"output_root"`
	Jobs       []Job  `yaml:"jobs"`
}

// UnmarshalYAML starts every job from the defaults so a job file only
// needs to name what differs.
func (j *Job) UnmarshalYAML(node *yaml.Node) error {
	*j = *NewJob()
	type plain Job
	return node.Decode((*plain)(j))
}

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("app: parse %s: %w", path, err)
	}
	return &f, nil
}

// Job returns the job with the given name.
func (f *File) Job(name string) (*Job, error) {
	for i := range f.Jobs {
		if f.Jobs[i].Name == name {
			job := f.Jobs[i]
			return &job, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrJobNotFound, name)
}

// FindFile looks for a job file at path, then in the working directory,
// then in the XDG config directory. It returns "" when none exists.
func FindFile(path string) string {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	candidate := filepath.Join(xdg.ConfigHome, AppName, DefaultConfigFile)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}
