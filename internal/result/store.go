// Package result materializes the fresh-address partition of a completed
// task as a downloadable newline-delimited artifact.
package result

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned when no artifact exists for a task id.
	ErrNotFound = errors.New("result not found")
	// ErrAlreadyStored guards the store-once contract: an artifact is
	// produced at most once and immutable thereafter.
	ErrAlreadyStored = errors.New("result already stored")
)

// Store writes and serves result artifacts under a single directory.
type Store struct {
	dir string
}

// NewStore creates the results directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save materializes the fresh list for a task, one address per line in
// encounter order. Called exactly once, from the completed transition;
// a second call is rejected. Returns the artifact filename.
func (s *Store) Save(taskID string, emails []string) (string, error) {
	name := artifactName(taskID)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("%w: task %s", ErrAlreadyStored, taskID)
		}
		return "", fmt.Errorf("failed to create result file: %w", err)
	}
	defer f.Close()

	if len(emails) > 0 {
		if _, err := f.WriteString(strings.Join(emails, "\n") + "\n"); err != nil {
			return "", fmt.Errorf("failed to write result file: %w", err)
		}
	}
	return name, nil
}

// Fetch returns the path of a task's artifact. Repeatable; every fetch of
// the same completed task serves identical content.
func (s *Store) Fetch(taskID string) (string, error) {
	path := filepath.Join(s.dir, artifactName(taskID))
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: task %s", ErrNotFound, taskID)
		}
		return "", fmt.Errorf("failed to stat result file: %w", err)
	}
	return path, nil
}

// Remove deletes a task's artifact. Used by the retention sweeper; a
// missing artifact is not an error.
func (s *Store) Remove(taskID string) error {
	err := os.Remove(filepath.Join(s.dir, artifactName(taskID)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// WriteArtifact writes an ad-hoc newline-delimited export (admin date-range
// reports) under the results directory, overwriting any previous export of
// the same name, and returns its path.
func (s *Store) WriteArtifact(name string, emails []string) (string, error) {
	path := filepath.Join(s.dir, name)
	content := ""
	if len(emails) > 0 {
		content = strings.Join(emails, "\n") + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func artifactName(taskID string) string {
	return "result_" + taskID + ".txt"
}
