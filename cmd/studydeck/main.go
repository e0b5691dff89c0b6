package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/apatwa/studydeck/internal/config"
	"github.com/apatwa/studydeck/internal/export"
	"github.com/apatwa/studydeck/internal/ingest"
	"github.com/apatwa/studydeck/internal/lesson"
	"github.com/apatwa/studydeck/internal/llm"
	"github.com/apatwa/studydeck/internal/logutils"
	"github.com/apatwa/studydeck/internal/tui"
)

type appFlags struct {
	ConfigPath string
	Library    string
	Provider   string
	Model      string
	Endpoint   string
	LogLevel   string
	LogFile    string
}

func main() {
	ctx := context.Background()

	var (
		flags     appFlags
		cfg       config.Config
		logger    zerolog.Logger
		logCloser func()
		client    llm.Client
	)

	app := &cli.Command{
		Name:      "studydeck",
		Usage:     "Generate study lessons and annotate them in the terminal",
		UsageText: "studydeck [global options] command [command options]",
		Description: `studydeck turns source files and notes into concept-card lessons,
then opens them in a terminal reader where text can be highlighted,
annotated, and exported as Markdown.

Run 'studydeck' with no arguments to open the lesson library.
Run 'studydeck generate' to build a new lesson from files on disk.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("STUDYDECK_CONFIG"),
				Value:       config.DefaultPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "library",
				Usage:       "path to the lesson library JSON file",
				Destination: &flags.Library,
			},
			&cli.StringFlag{
				Name:        "provider",
				Usage:       "LLM provider (ollama, openai, off)",
				Destination: &flags.Provider,
			},
			&cli.StringFlag{
				Name:        "model",
				Usage:       "override the provider's default model",
				Destination: &flags.Model,
			},
			&cli.StringFlag{
				Name:        "endpoint",
				Usage:       "custom provider endpoint (eg. http://localhost:11434)",
				Destination: &flags.Endpoint,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (empty disables file logging)",
				Destination: &flags.LogFile,
			},
			&cli.BoolFlag{
				Name:  "no-alt-screen",
				Usage: "disable the alternate screen buffer",
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			_ = godotenv.Load()

			loaded, err := config.Load(flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			cfg = loaded
			if flags.Library != "" {
				cfg.Library = flags.Library
			}
			if flags.Provider != "" {
				cfg.Provider = flags.Provider
			}
			if flags.Model != "" {
				cfg.Model = flags.Model
			}
			if flags.Endpoint != "" {
				cfg.Endpoint = flags.Endpoint
			}
			if flags.LogLevel != "" {
				cfg.LogLevel = flags.LogLevel
			}
			if flags.LogFile != "" {
				cfg.LogFile = flags.LogFile
			}

			logger, logCloser, err = logutils.New(cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}

			client, err = llm.New(llm.Config{
				Provider: cfg.Provider,
				Model:    cfg.Model,
				Endpoint: cfg.Endpoint,
			})
			if err != nil {
				if !errors.Is(err, llm.ErrDisabled) {
					logger.Warn().Err(err).Msg("LLM unavailable, lesson generation falls back to outlines")
				}
				client = nil
			}
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "generate",
				Usage:     "Build a lesson from source files and save it to the library",
				UsageText: "studydeck generate --topic \"Pointers\" [files...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "topic",
						Usage:    "topic the lesson should teach",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "folder",
						Usage: "folder name to file the lesson under",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					sources, err := ingest.ReadFiles(c.Args().Slice())
					if err != nil {
						return err
					}
					topic := c.String("topic")

					var l lesson.Lesson
					if client != nil {
						drafts, genErr := client.GenerateLesson(ctx, topic, sources)
						if genErr != nil {
							logger.Warn().Err(genErr).Msg("generation failed, falling back to outline")
							l = lesson.Outline(topic, sources)
						} else {
							l = lessonFromDrafts(topic, drafts)
						}
					} else {
						l = lesson.Outline(topic, sources)
					}

					if folder := c.String("folder"); folder != "" {
						folderID, folderErr := ensureFolder(cfg.Library, folder)
						if folderErr != nil {
							return folderErr
						}
						l.FolderID = folderID
					}

					if err := lesson.SaveLesson(cfg.Library, l); err != nil {
						return fmt.Errorf("save lesson: %w", err)
					}
					fmt.Printf("Saved lesson %q with %d concepts (%s)\n", l.Topic, len(l.Concepts), l.ID)
					return nil
				},
			},
			{
				Name:      "export",
				Usage:     "Export a lesson, highlights and notes included, as Markdown",
				UsageText: "studydeck export --lesson <id> [--out file.md]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "lesson",
						Usage:    "id of the lesson to export",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "output path (defaults to <topic>.md in the working directory)",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					l, err := lesson.LoadLesson(cfg.Library, c.String("lesson"))
					if err != nil {
						return err
					}
					out := c.String("out")
					if out == "" {
						out = l.Topic + ".md"
					}
					if err := export.WriteFile(out, l); err != nil {
						return fmt.Errorf("export lesson: %w", err)
					}
					fmt.Printf("Exported %q to %s\n", l.Topic, out)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List lessons stored in the library",
				Action: func(ctx context.Context, c *cli.Command) error {
					lessons, err := lesson.LoadLessons(cfg.Library)
					if err != nil {
						if errors.Is(err, os.ErrNotExist) {
							fmt.Println("Library is empty.")
							return nil
						}
						return err
					}
					for _, l := range lessons {
						fmt.Printf("%s  %s  (%d concepts, %d highlights)\n", l.ID, l.Topic, len(l.Concepts), len(l.Annotations))
					}
					return nil
				},
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() > 0 {
				return fmt.Errorf("unknown command %q. Run 'studydeck --help' for usage", c.Args().First())
			}
			opts := []tea.ProgramOption{}
			if !c.Bool("no-alt-screen") {
				opts = append(opts, tea.WithAltScreen())
			}
			program := tea.NewProgram(
				tui.New(tui.Config{
					LibraryPath: cfg.Library,
					LLM:         client,
					Logger:      logger,
				}),
				opts...,
			)
			_, err := program.Run()
			return err
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Println()
		fmt.Println(err.Error())
		os.Exit(1)
	}
}

func lessonFromDrafts(topic string, drafts []llm.ConceptDraft) lesson.Lesson {
	now := time.Now().UTC()
	l := lesson.Lesson{
		ID:        uuid.NewString(),
		Topic:     topic,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, d := range drafts {
		body, lang := lesson.StripFence(d.CodeExample)
		l.Concepts = append(l.Concepts, lesson.Concept{
			ID:            uuid.NewString(),
			Term:          d.Term,
			Definition:    d.Definition,
			Notes:         d.Notes,
			VisualExample: d.VisualExample,
			CodeExample:   body,
			CodeLang:      lang,
		})
	}
	return l
}

// ensureFolder returns the id of the named folder, creating it on first use.
func ensureFolder(libraryPath, name string) (string, error) {
	folders, err := lesson.LoadFolders(libraryPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	for _, f := range folders {
		if f.Name == name {
			return f.ID, nil
		}
	}
	f := lesson.Folder{ID: uuid.NewString(), Name: name}
	if err := lesson.SaveFolder(libraryPath, f); err != nil {
		return "", err
	}
	return f.ID, nil
}
