/*
Package roster loads the authoritative list of known individuals from disk.

LAYOUT:
  known_faces/
    Alice/
      portrait.jpg
    Bob/
    notes.txt      <- ignored, not a directory

  Each immediate child directory of the root names one individual. Symlinks
  that resolve to directories count. Order is lexical (os.ReadDir order).

FAILURE:
  A missing root or a root with no child directories is a configuration
  error: the engine must not run without known individuals.

PHOTOS:
  Photo() is a presentation helper. A missing photo is never an error.
*/
package roster

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/warp/attendance-engine/attendance"
)

// PhotoExtensions are matched case-insensitively.
var PhotoExtensions = []string{".jpg", ".jpeg", ".png"}

// Dir is a directory-backed roster source.
type Dir struct {
	Root string
}

// New creates a roster source rooted at root.
func New(root string) *Dir {
	return &Dir{Root: root}
}

var _ attendance.RosterSource = (*Dir)(nil)

// LoadRoster returns one Individual per child directory of Root.
func (d *Dir) LoadRoster(ctx context.Context) ([]attendance.Individual, error) {
	info, err := os.Stat(d.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &attendance.ConfigurationError{Setting: "roster_root", Value: d.Root, Reason: "directory does not exist", Err: attendance.ErrEmptyRoster}
		}
		return nil, &attendance.ConfigurationError{Setting: "roster_root", Value: d.Root, Err: err}
	}
	if !info.IsDir() {
		return nil, &attendance.ConfigurationError{Setting: "roster_root", Value: d.Root, Reason: "not a directory"}
	}

	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, &attendance.ConfigurationError{Setting: "roster_root", Value: d.Root, Err: err}
	}

	var roster []attendance.Individual
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !d.isDir(e) {
			continue
		}
		roster = append(roster, attendance.Individual{Identifier: attendance.Identifier(e.Name())})
	}

	if len(roster) == 0 {
		return nil, &attendance.ConfigurationError{Setting: "roster_root", Value: d.Root, Err: attendance.ErrEmptyRoster}
	}
	return roster, nil
}

func (d *Dir) isDir(e fs.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(d.Root, e.Name()))
	return err == nil && info.IsDir()
}

// Photo returns the first image file in the individual's directory.
func (d *Dir) Photo(id attendance.Identifier) (string, bool) {
	name := string(id)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", false
	}

	dir := filepath.Join(d.Root, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	for _, e := range entries {
		if e.IsDir() || !IsPhoto(e.Name()) {
			continue
		}
		return filepath.Join(dir, e.Name()), true
	}
	return "", false
}

// IsPhoto reports whether name has an image extension.
func IsPhoto(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, p := range PhotoExtensions {
		if ext == p {
			return true
		}
	}
	return false
}
