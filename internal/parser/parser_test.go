package parser

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	t.Run("full frontmatter", func(t *testing.T) {
		content := []byte(`---
id: ancient-magic
scenario: xianxia-academy
title: Ancient Magic
type: knowledge
category: magic-system
keywords: [魔法, ancient magic]
match: exact
case_sensitive: false
priority: 90
insert_depth: 3
probability: 0.8
display_order: 2
trigger_once: true
visibility: conditional
conditions:
  - type: location
    requirement: 藏书阁
related: [library-tower]
source: manual
metadata:
  author: gm
---

The old magic predates the academy itself.
`)
		doc, err := Parse(content)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.ID != "ancient-magic" {
			t.Fatalf("expected id, got %q", doc.ID)
		}
		if doc.Scenario != "xianxia-academy" {
			t.Fatalf("expected scenario, got %q", doc.Scenario)
		}
		if !reflect.DeepEqual(doc.Keywords, []string{"魔法", "ancient magic"}) {
			t.Fatalf("unexpected keywords: %#v", doc.Keywords)
		}
		if doc.Probability != 0.8 {
			t.Fatalf("expected probability 0.8, got %v", doc.Probability)
		}
		if !doc.TriggerOnce {
			t.Fatalf("expected trigger_once")
		}
		if doc.Visibility != "conditional" {
			t.Fatalf("expected conditional visibility, got %q", doc.Visibility)
		}
		if len(doc.Conditions) != 1 || doc.Conditions[0].Type != "location" || doc.Conditions[0].Requirement != "藏书阁" {
			t.Fatalf("unexpected conditions: %#v", doc.Conditions)
		}
		if doc.Body != "The old magic predates the academy itself." {
			t.Fatalf("unexpected body: %q", doc.Body)
		}
		if _, ok := doc.Frontmatter["metadata"]; !ok {
			t.Fatalf("expected metadata in frontmatter")
		}
	})

	t.Run("minimal frontmatter applies defaults", func(t *testing.T) {
		doc, err := Parse([]byte("---\ntitle: Minimal\n---\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.EntryType != "knowledge" {
			t.Fatalf("expected default type knowledge, got %q", doc.EntryType)
		}
		if doc.MatchType != "exact" {
			t.Fatalf("expected default match exact, got %q", doc.MatchType)
		}
		if doc.Probability != 1.0 {
			t.Fatalf("expected default probability 1.0, got %v", doc.Probability)
		}
		if !doc.Active {
			t.Fatalf("expected active by default")
		}
		if doc.Visibility != "public" {
			t.Fatalf("expected default visibility public, got %q", doc.Visibility)
		}
		if doc.SourceType != "manual" {
			t.Fatalf("expected default source manual, got %q", doc.SourceType)
		}
	})

	t.Run("explicit inactive", func(t *testing.T) {
		doc, err := Parse([]byte("---\ntitle: Off\nactive: false\n---\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Active {
			t.Fatalf("expected inactive")
		}
	})

	t.Run("explicit probability zero survives", func(t *testing.T) {
		doc, err := Parse([]byte("---\ntitle: Never\nprobability: 0\n---\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Probability != 0 {
			t.Fatalf("expected probability 0, got %v", doc.Probability)
		}
	})

	t.Run("no frontmatter", func(t *testing.T) {
		_, err := Parse([]byte("Just text"))
		if !errors.Is(err, ErrNoFrontmatter) {
			t.Fatalf("expected ErrNoFrontmatter, got %v", err)
		}
	})

	t.Run("missing closing marker", func(t *testing.T) {
		_, err := Parse([]byte("---\ntitle: Missing\n"))
		if !errors.Is(err, ErrNoFrontmatter) {
			t.Fatalf("expected ErrNoFrontmatter, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Parse([]byte("---\ntitle: [\n---\n"))
		if !errors.Is(err, ErrInvalidYAML) {
			t.Fatalf("expected ErrInvalidYAML, got %v", err)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		_, err := Parse([]byte("---\ntype: lore\n---\n"))
		if !errors.Is(err, ErrMissingTitle) {
			t.Fatalf("expected ErrMissingTitle, got %v", err)
		}
	})

	t.Run("keywords single string", func(t *testing.T) {
		doc, err := Parse([]byte("---\ntitle: One\nkeywords: 长剑\n---\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !reflect.DeepEqual(doc.Keywords, []string{"长剑"}) {
			t.Fatalf("unexpected keywords: %#v", doc.Keywords)
		}
	})

	t.Run("keywords wrong type", func(t *testing.T) {
		if _, err := Parse([]byte("---\ntitle: Bad\nkeywords: 7\n---\n")); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestParse_BOMTrim(t *testing.T) {
	doc, err := Parse([]byte("\ufeff---\ntitle: BOM\n---\n"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if doc.Title != "BOM" {
		t.Fatalf("expected title, got %q", doc.Title)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entry.md")
	content := "---\ntitle: From Disk\nkeywords: [sword]\n---\nBody text.\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}

	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if doc.Title != "From Disk" {
		t.Fatalf("expected title, got %q", doc.Title)
	}
	if doc.SourceFile != path {
		t.Fatalf("expected source file set, got %q", doc.SourceFile)
	}
}

func TestParseFile_ReadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.md")
	if _, err := ParseFile(path); err == nil {
		t.Fatalf("expected error")
	}
}
