package downloader

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// historyFile sits at the root of the download directory and records
// the base urls of fully mirrored courses.
const historyFile = "courses_downloaded.json"

type History struct {
	urls []string
}

func (h *History) Contains(url string) bool {
	return slices.Contains(h.urls, url)
}

func (h *History) Add(url string) {
	if h.Contains(url) {
		return
	}
	h.urls = append(h.urls, url)
}

func (h *History) Urls() []string {
	return slices.Clone(h.urls)
}

// LoadHistory reads the history file, treating a missing file as an
// empty history.
func (s Service) LoadHistory() (*History, error) {
	raw, err := os.ReadFile(filepath.Join(s.baseDir, historyFile))
	if errors.Is(err, fs.ErrNotExist) {
		return &History{}, nil
	}
	if err != nil {
		return nil, err
	}

	var urls []string
	err = json.Unmarshal(raw, &urls)
	if err != nil {
		return nil, err
	}
	return &History{urls: urls}, nil
}

func (s Service) SaveHistory(history *History) error {
	raw, err := json.MarshalIndent(history.urls, "", "  ")
	if err != nil {
		return err
	}
	err = os.MkdirAll(s.baseDir, 0o755)
	if err != nil {
		return err
	}
	return writeAtomically(filepath.Join(s.baseDir, historyFile), raw)
}

// writeAtomically stages the content next to the target and renames it
// into place, so an interrupted run never leaves a truncated file.
func writeAtomically(path string, content []byte) error {
	staging := path + ".part"
	err := os.WriteFile(staging, content, 0o644)
	if err != nil {
		return err
	}
	return os.Rename(staging, path)
}

func streamAtomically(path string, r io.Reader) error {
	staging := path + ".part"
	f, err := os.Create(staging)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(staging)
		return err
	}
	err = f.Close()
	if err != nil {
		os.Remove(staging)
		return err
	}
	return os.Rename(staging, path)
}
