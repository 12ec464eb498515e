// Package store implements the entity/section store backing
// tools.entities in the Script Sandbox Host: entities are YAML files and
// sections are markdown files with a YAML frontmatter prelude, both read
// from (and, for tags, written back to) the workspace filesystem.
package store

import "time"

// EntityType enumerates the fixed entity kinds.
type EntityType string

const (
	EntityFact         EntityType = "fact"
	EntityRule         EntityType = "rule"
	EntityConcept      EntityType = "concept"
	EntityRelationship EntityType = "relationship"
	EntityEvent        EntityType = "event"
	EntityCustom       EntityType = "custom"
)

// EntityRecord is one parsed entity YAML file.
type EntityRecord struct {
	ID         string         `yaml:"id" json:"id"`
	Name       string         `yaml:"name" json:"name"`
	Type       EntityType     `yaml:"type" json:"type"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Aliases    []string       `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	CreatedAt  *time.Time     `yaml:"created_at,omitempty" json:"created_at,omitempty"`
	ModifiedAt *time.Time     `yaml:"modified_at,omitempty" json:"modified_at,omitempty"`
	Metadata   map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`

	path string // absolute source path, unexported (not serialized)
}

// Tag marks a character range within a section as referring to an entity.
type Tag struct {
	ID       string `yaml:"id" json:"id"`
	EntityID string `yaml:"entity_id" json:"entity_id"`
	From     int    `yaml:"from" json:"from"`
	To       int    `yaml:"to" json:"to"`
}

// SectionFrontmatter is the parsed YAML prelude of a section file.
type SectionFrontmatter struct {
	ID         string     `yaml:"id"`
	Title      string     `yaml:"title"`
	Order      int        `yaml:"order"`
	Alignment  string     `yaml:"alignment,omitempty"`
	ParentID   string     `yaml:"parent_id,omitempty"`
	Collapsed  bool       `yaml:"collapsed,omitempty"`
	EntityIDs  []string   `yaml:"entity_ids,omitempty"`
	Tags       []Tag      `yaml:"tags,omitempty"`
	CreatedAt  *time.Time `yaml:"created_at,omitempty"`
	ModifiedAt *time.Time `yaml:"modified_at,omitempty"`
}

// SectionRecord is one parsed section file: frontmatter plus markdown body.
type SectionRecord struct {
	SectionFrontmatter
	Content string `json:"content"`

	path string
}

// Relationships bundles an entity with the sections that tag it.
type Relationships struct {
	Entity   EntityRecord    `json:"entity"`
	Sections []SectionRecord `json:"sections"`
}
