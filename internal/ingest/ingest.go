package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"lorebook/internal/config"
	"lorebook/internal/entry"
	"lorebook/internal/parser"
)

type Result struct {
	EntriesUpserted int
	EntriesRemoved  int
	FilesSkipped    int
	Errors          []error
}

type Options struct {
	Full bool
}

// Store is the slice of the storage API ingest needs.
type Store interface {
	EnsureSchema(ctx context.Context) error
	UpsertEntry(ctx context.Context, e entry.Entry) error
	GetSourceHashes(ctx context.Context, scenarioID string) (map[string]string, error)
	RemoveStaleEntries(ctx context.Context, scenarioID string, currentSourceFiles []string) (int64, error)
}

func Run(ctx context.Context, cfg *config.ProjectConfig, db Store, options Options) (*Result, error) {
	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	result := &Result{}
	sourceFiles := make(map[string][]string)

	for _, source := range cfg.Sources {
		var existingHashes map[string]string
		if !options.Full {
			var err error
			existingHashes, err = db.GetSourceHashes(ctx, source.Scenario)
			if err != nil {
				return nil, fmt.Errorf("get source hashes for %s: %w", source.Name, err)
			}
		}

		files, err := walkMarkdownFiles(source.Paths, cfg.Exclude)
		if err != nil {
			return nil, fmt.Errorf("walking files for source %s: %w", source.Name, err)
		}
		sourceFiles[source.Scenario] = append(sourceFiles[source.Scenario], files...)

		for _, path := range files {
			hash, err := computeHash(path)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("hashing %s: %w", path, err))
				continue
			}
			if !options.Full {
				if existing, ok := existingHashes[path]; ok && existing == hash {
					result.FilesSkipped++
					continue
				}
			}

			doc, err := parser.ParseFile(path)
			if err != nil {
				if err == parser.ErrNoFrontmatter {
					result.FilesSkipped++
					continue
				}
				result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", path, err))
				continue
			}

			e := buildEntry(doc, source, path, hash)
			if err := db.UpsertEntry(ctx, e); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("upserting %s: %w", path, err))
				continue
			}
			result.EntriesUpserted++
		}
	}

	for scenario, files := range sourceFiles {
		deleted, err := db.RemoveStaleEntries(ctx, scenario, files)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("removing stale entries for %s: %w", scenario, err))
			continue
		}
		result.EntriesRemoved += int(deleted)
	}

	return result, nil
}

func buildEntry(doc *parser.Document, source config.Source, path, hash string) entry.Entry {
	scenario := doc.Scenario
	if scenario == "" {
		scenario = source.Scenario
	}

	id := doc.ID
	if id == "" {
		id = mintEntryID(scenario, path)
	}

	conditions := make([]entry.Condition, 0, len(doc.Conditions))
	for _, c := range doc.Conditions {
		conditions = append(conditions, entry.Condition{
			Type:        entry.ConditionType(c.Type),
			Requirement: c.Requirement,
			Description: c.Description,
		})
	}

	return entry.Entry{
		ID:              id,
		ScenarioID:      scenario,
		Title:           doc.Title,
		Content:         doc.Body,
		Category:        doc.Category,
		Type:            entry.EntryType(doc.EntryType),
		Keywords:        doc.Keywords,
		MatchType:       entry.MatchType(doc.MatchType),
		CaseSensitive:   doc.CaseSens,
		Priority:        doc.Priority,
		InsertDepth:     doc.InsertDepth,
		Probability:     doc.Probability,
		DisplayOrder:    doc.Order,
		IsActive:        doc.Active,
		TriggerOnce:     doc.TriggerOnce,
		Visibility:      entry.Visibility(doc.Visibility),
		Conditions:      conditions,
		RelatedEntities: doc.Related,
		SourceType:      entry.SourceType(doc.SourceType),
		Metadata:        doc.Metadata,
		SourceFile:      path,
		SourceHash:      hash,
	}
}

// mintEntryID derives a stable id from the scenario and source path so
// re-ingesting a file without an explicit id updates the same row
// instead of inserting a new one.
func mintEntryID(scenario, path string) string {
	name := scenario + "/" + filepath.ToSlash(path)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func walkMarkdownFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func computeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
