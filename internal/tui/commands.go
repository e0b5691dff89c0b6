package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/apatwa/studydeck/internal/export"
	"github.com/apatwa/studydeck/internal/lesson"
	"github.com/apatwa/studydeck/internal/llm"
)

func loadLibraryJob(path string) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		lessons, err := lesson.LoadLessons(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return libraryLoadedMsg{err: err}, err
		}
		folders, err := lesson.LoadFolders(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return libraryLoadedMsg{err: err}, err
		}
		return libraryLoadedMsg{lessons: lessons, folders: folders}, nil
	}
}

func saveLessonJob(path string, l lesson.Lesson) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		if err := lesson.ReplaceLesson(path, l); err != nil {
			return lessonSavedMsg{lessonID: l.ID, err: err}, err
		}
		return lessonSavedMsg{lessonID: l.ID}, nil
	}
}

func explainJob(client llm.Client, lessonID, term, material string) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
		defer cancel()
		answer, err := client.Explain(ctx, term, material)
		return explainResultMsg{lessonID: lessonID, term: term, answer: answer, err: err}, err
	}
}

func exportLessonJob(outPath string, l lesson.Lesson) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		if err := export.WriteFile(outPath, l); err != nil {
			return exportDoneMsg{path: outPath, err: err}, err
		}
		return exportDoneMsg{path: outPath}, nil
	}
}

// studyMaterial flattens a lesson's cards into the context handed to the
// model for explanations.
func studyMaterial(l lesson.Lesson) string {
	var b strings.Builder
	for _, c := range l.Concepts {
		b.WriteString(c.Term)
		b.WriteString(": ")
		b.WriteString(c.Definition)
		if c.Notes != "" {
			b.WriteString(" ")
			b.WriteString(c.Notes)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// exportPath places the Markdown export next to the library file, named
// after the lesson topic.
func exportPath(libraryPath, topic string) string {
	slug := strings.ToLower(strings.TrimSpace(topic))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "lesson"
	}
	return filepath.Join(filepath.Dir(libraryPath), slug+".md")
}

func trimmedTitle(value string) string {
	value = strings.TrimSpace(value)
	if len(value) <= 60 {
		return value
	}
	return strings.TrimSpace(value[:57]) + "..."
}
