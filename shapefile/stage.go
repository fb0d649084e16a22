package shapefile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/venicegeo/bf-metadata-summary/util"
)

// Staged is an artifact written beside its target but not yet in place.
// Move it into place with CommitAll or drop it with Discard.
type Staged struct {
	Result  *Result
	context util.LogContext
	files   []pendingFile
	discard []func() error
	message string
}

type pendingFile struct {
	target  string
	install func() error
}

// installed is a target that now holds staged content, with the file it
// replaced set aside under backup
type installed struct {
	target string
	backup string
}

// Discard removes the staged files. Committed targets are left alone.
func (s *Staged) Discard() error {
	var errs []error
	for _, discard := range s.discard {
		if err := discard(); err != nil {
			errs = append(errs, err)
		}
	}
	s.discard = nil
	return errors.Join(errs...)
}

// CommitAll moves every staged artifact into place. Existing targets are set
// aside first. If any move fails the targets already moved are removed, the
// files they replaced are restored and every staged artifact is discarded.
func CommitAll(staged ...*Staged) error {
	done, err := install(staged)
	if err != nil {
		errs := []error{err, rollback(done)}
		for _, s := range staged {
			errs = append(errs, s.Discard())
		}
		return errors.Join(errs...)
	}
	for _, entry := range done {
		if entry.backup != "" {
			os.Remove(entry.backup)
		}
	}
	for _, s := range staged {
		s.Discard()
		util.LogInfo(s.context, s.message)
	}
	return nil
}

// DiscardAll drops every staged artifact
func DiscardAll(staged ...*Staged) error {
	var errs []error
	for _, s := range staged {
		if s != nil {
			errs = append(errs, s.Discard())
		}
	}
	return errors.Join(errs...)
}

func install(staged []*Staged) ([]installed, error) {
	var done []installed
	for _, s := range staged {
		for _, file := range s.files {
			backup, err := setAside(file.target)
			if err != nil {
				return done, err
			}
			if err = file.install(); err != nil {
				if backup != "" {
					if restoreErr := os.Rename(backup, file.target); restoreErr != nil {
						return done, errors.Join(err, restoreErr)
					}
				}
				return done, fmt.Errorf("moving %s into place: %w", file.target, err)
			}
			done = append(done, installed{target: file.target, backup: backup})
		}
	}
	return done, nil
}

// setAside renames an existing target to a hidden name in the same directory
func setAside(target string) (string, error) {
	if _, err := os.Lstat(target); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	} else if err != nil {
		return "", err
	}
	backup := filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+"-prev-"+uuid.NewString())
	if err := os.Rename(target, backup); err != nil {
		return "", fmt.Errorf("setting aside %s: %w", target, err)
	}
	return backup, nil
}

// rollback undoes installs newest first
func rollback(done []installed) error {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		entry := done[i]
		if err := os.Remove(entry.target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		if entry.backup != "" {
			if err := os.Rename(entry.backup, entry.target); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
