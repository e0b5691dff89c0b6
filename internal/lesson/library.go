package lesson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	entryTypeFolder = "folder"
	entryTypeLesson = "lesson"
)

// ErrNotFound is returned when a lesson or folder id is absent from the library.
var ErrNotFound = errors.New("lesson: not found")

type entryHeader struct {
	EntryType string `json:"entryType"`
}

type folderEntry struct {
	EntryType string `json:"entryType"`
	Folder
}

type lessonEntry struct {
	EntryType string `json:"entryType"`
	Lesson
}

// SaveLesson appends a lesson to the library file, creating it if necessary.
func SaveLesson(path string, l Lesson) error {
	raw, err := json.Marshal(lessonEntry{EntryType: entryTypeLesson, Lesson: l})
	if err != nil {
		return err
	}
	return appendEntries(path, []json.RawMessage{raw})
}

// SaveFolder appends a folder to the library file, creating it if necessary.
func SaveFolder(path string, f Folder) error {
	raw, err := json.Marshal(folderEntry{EntryType: entryTypeFolder, Folder: f})
	if err != nil {
		return err
	}
	return appendEntries(path, []json.RawMessage{raw})
}

// LoadLessons returns all lessons stored in the library.
func LoadLessons(path string) ([]Lesson, error) {
	entries, err := loadEntries(path)
	if err != nil {
		return nil, err
	}
	lessons := make([]Lesson, 0, len(entries))
	for _, raw := range entries {
		entryType, err := detectEntryType(raw)
		if err != nil {
			return nil, err
		}
		if entryType != entryTypeLesson {
			continue
		}
		var entry lessonEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, err
		}
		lessons = append(lessons, entry.Lesson)
	}
	return lessons, nil
}

// LoadFolders returns all folders stored in the library.
func LoadFolders(path string) ([]Folder, error) {
	entries, err := loadEntries(path)
	if err != nil {
		return nil, err
	}
	folders := make([]Folder, 0)
	for _, raw := range entries {
		entryType, err := detectEntryType(raw)
		if err != nil {
			return nil, err
		}
		if entryType != entryTypeFolder {
			continue
		}
		var entry folderEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, err
		}
		folders = append(folders, entry.Folder)
	}
	return folders, nil
}

// LoadLesson returns the lesson with the given id.
func LoadLesson(path, id string) (Lesson, error) {
	lessons, err := LoadLessons(path)
	if err != nil {
		return Lesson{}, err
	}
	for _, l := range lessons {
		if l.ID == id {
			return l, nil
		}
	}
	return Lesson{}, fmt.Errorf("lesson %q: %w", id, ErrNotFound)
}

// ReplaceLesson overwrites the stored lesson with the same id. Annotation
// edits persist through here: the TUI mutates a working copy and writes the
// whole lesson back in one shot.
func ReplaceLesson(path string, l Lesson) error {
	entries, err := loadEntries(path)
	if err != nil {
		return err
	}
	for i, raw := range entries {
		entryType, err := detectEntryType(raw)
		if err != nil {
			return err
		}
		if entryType != entryTypeLesson {
			continue
		}
		var entry lessonEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return err
		}
		if entry.Lesson.ID != l.ID {
			continue
		}
		updated, err := json.Marshal(lessonEntry{EntryType: entryTypeLesson, Lesson: l})
		if err != nil {
			return err
		}
		entries[i] = updated
		return writeEntries(path, entries)
	}
	return fmt.Errorf("lesson %q: %w", l.ID, ErrNotFound)
}

func appendEntries(path string, newEntries []json.RawMessage) error {
	if len(newEntries) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	entries, err := loadEntries(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		entries = nil
	}
	entries = append(entries, newEntries...)
	return writeEntries(path, entries)
}

func writeEntries(path string, entries []json.RawMessage) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func loadEntries(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func detectEntryType(raw json.RawMessage) (string, error) {
	var header entryHeader
	if err := json.Unmarshal(raw, &header); err != nil {
		return "", err
	}
	if header.EntryType == "" {
		return entryTypeLesson, nil
	}
	return header.EntryType, nil
}
