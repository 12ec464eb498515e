package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vswrite/agent-core/internal/security"
)

// Store reads entities from <workspace>/entities/*.yaml and sections from
// <workspace>/sections/*.md, and supports adding/removing tags in a
// section's frontmatter (the only mutation tools.entities exposes).
type Store struct {
	workspace string
	mu        sync.Mutex
}

// New creates a Store rooted at workspace.
func New(workspace string) *Store {
	return &Store{workspace: workspace}
}

func (s *Store) entitiesDir() string { return filepath.Join(s.workspace, "entities") }
func (s *Store) sectionsDir() string { return filepath.Join(s.workspace, "sections") }

// GetEntity loads one entity by id, or (nil, nil) if not found.
func (s *Store) GetEntity(id string) (*EntityRecord, error) {
	entities, err := s.ListAll()
	if err != nil {
		return nil, err
	}
	for i := range entities {
		if entities[i].ID == id {
			return &entities[i], nil
		}
	}
	return nil, nil
}

// ListByType returns all entities of the given type.
func (s *Store) ListByType(entityType string) ([]EntityRecord, error) {
	all, err := s.ListAll()
	if err != nil {
		return nil, err
	}
	out := make([]EntityRecord, 0)
	for _, e := range all {
		if string(e.Type) == entityType {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListAll returns every entity in the workspace, sorted by ID.
func (s *Store) ListAll() ([]EntityRecord, error) {
	dir := s.entitiesDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read entities dir: %w", err)
	}
	var out []EntityRecord
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		rec, err := loadEntity(path)
		if err != nil {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Search does a case-insensitive substring match over name/description/aliases.
func (s *Store) Search(query string) ([]EntityRecord, error) {
	all, err := s.ListAll()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	out := make([]EntityRecord, 0)
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Description), q) {
			out = append(out, e)
			continue
		}
		for _, a := range e.Aliases {
			if strings.Contains(strings.ToLower(a), q) {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

// GetRelationships returns an entity plus every section that tags it.
func (s *Store) GetRelationships(entityID string) (*Relationships, error) {
	entity, err := s.GetEntity(entityID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, fmt.Errorf("entity %q not found", entityID)
	}
	sections, err := s.ListSections()
	if err != nil {
		return nil, err
	}
	var tagged []SectionRecord
	for _, sec := range sections {
		for _, tag := range sec.Tags {
			if tag.EntityID == entityID {
				tagged = append(tagged, sec)
				break
			}
		}
	}
	return &Relationships{Entity: *entity, Sections: tagged}, nil
}

// GetSection loads one section by id, or (nil, nil) if not found.
func (s *Store) GetSection(id string) (*SectionRecord, error) {
	sections, err := s.ListSections()
	if err != nil {
		return nil, err
	}
	for i := range sections {
		if sections[i].ID == id {
			return &sections[i], nil
		}
	}
	return nil, nil
}

// ListSections returns every section in the workspace, ordered by Order.
func (s *Store) ListSections() ([]SectionRecord, error) {
	dir := s.sectionsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sections dir: %w", err)
	}
	var out []SectionRecord
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".md") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		rec, err := loadSection(path)
		if err != nil {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// GetTags returns the tags on one section.
func (s *Store) GetTags(sectionID string) ([]Tag, error) {
	sec, err := s.GetSection(sectionID)
	if err != nil {
		return nil, err
	}
	if sec == nil {
		return nil, fmt.Errorf("section %q not found", sectionID)
	}
	return sec.Tags, nil
}

// AddTag appends a tag to a section's frontmatter and rewrites the file.
func (s *Store) AddTag(sectionID, entityID string, from, to int) (*Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, err := s.GetSection(sectionID)
	if err != nil {
		return nil, err
	}
	if sec == nil {
		return nil, fmt.Errorf("section %q not found", sectionID)
	}
	tag := Tag{ID: fmt.Sprintf("tag-%d", len(sec.Tags)+1), EntityID: entityID, From: from, To: to}
	sec.Tags = append(sec.Tags, tag)
	if err := writeSection(sec); err != nil {
		return nil, err
	}
	return &tag, nil
}

// RemoveTag removes a tag by id from a section's frontmatter.
func (s *Store) RemoveTag(sectionID, tagID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, err := s.GetSection(sectionID)
	if err != nil {
		return false, err
	}
	if sec == nil {
		return false, fmt.Errorf("section %q not found", sectionID)
	}
	kept := sec.Tags[:0]
	removed := false
	for _, t := range sec.Tags {
		if t.ID == tagID {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	sec.Tags = kept
	if removed {
		if err := writeSection(sec); err != nil {
			return false, err
		}
	}
	return removed, nil
}

func isYAML(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}

func loadEntity(path string) (*EntityRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec EntityRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	rec.path = path
	return &rec, nil
}

const frontmatterDelim = "---"

func loadSection(path string) (*SectionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fm, body, err := splitFrontmatter(string(data))
	if err != nil {
		return nil, err
	}
	var front SectionFrontmatter
	if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return &SectionRecord{SectionFrontmatter: front, Content: body, path: path}, nil
}

func splitFrontmatter(raw string) (frontmatter, body string, err error) {
	lines := strings.Split(raw, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontmatterDelim {
		return "", "", fmt.Errorf("missing frontmatter delimiter")
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontmatterDelim {
			frontmatter = strings.Join(lines[1:i], "\n")
			body = strings.Join(lines[i+1:], "\n")
			return frontmatter, strings.TrimPrefix(body, "\n"), nil
		}
	}
	return "", "", fmt.Errorf("unterminated frontmatter")
}

func writeSection(sec *SectionRecord) error {
	fm, err := yaml.Marshal(sec.SectionFrontmatter)
	if err != nil {
		return fmt.Errorf("encode frontmatter: %w", err)
	}
	var b strings.Builder
	b.WriteString(frontmatterDelim)
	b.WriteString("\n")
	b.Write(fm)
	b.WriteString(frontmatterDelim)
	b.WriteString("\n")
	b.WriteString(sec.Content)
	return os.WriteFile(sec.path, []byte(b.String()), 0o644)
}

// VerifyWorkspacePath is a defense-in-depth check used before any write:
// entity/section paths are always derived from directory scans rather than
// caller input, but this guards against future callers passing raw paths.
func VerifyWorkspacePath(workspace, path string) error {
	_, err := security.SafePath(workspace, path)
	return err
}
