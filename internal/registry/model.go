// Package registry holds the catalog of models under monitoring: the
// model descriptor type, validation rules, and the in-memory registry
// with task and library groupings.
package registry

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Model describes a single hub model tracked by the monitor. Name and
// task type are normalized on construction; size and downloads are
// optional because hub listings frequently omit them.
type Model struct {
	Name         string   `json:"name" yaml:"name" mapstructure:"name" validate:"required,max=100"`
	TaskType     string   `json:"task_type" yaml:"task_type" mapstructure:"task_type" validate:"required"`
	Library      string   `json:"library" yaml:"library" mapstructure:"library" validate:"required"`
	SizeMB       *float64 `json:"size_mb,omitempty" yaml:"size_mb,omitempty" mapstructure:"size_mb" validate:"omitempty,gt=0"`
	Downloads    *int64   `json:"downloads,omitempty" yaml:"downloads,omitempty" mapstructure:"downloads" validate:"omitempty,gte=0"`
	LastModified string   `json:"last_modified,omitempty" yaml:"last_modified,omitempty" mapstructure:"last_modified"`
	Tags         []string `json:"tags,omitempty" yaml:"tags,omitempty" mapstructure:"tags"`
}

// NewModel creates a normalized model descriptor.
func NewModel(name, taskType, library string) *Model {
	m := &Model{Name: name, TaskType: taskType, Library: library}
	m.normalize()
	return m
}

// ModelFromMap decodes a generic map (parsed JSON/YAML, API payloads)
// into a normalized model.
func ModelFromMap(data map[string]interface{}) (*Model, error) {
	var m Model
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &m,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("building model decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decoding model data: %w", err)
	}
	m.normalize()
	return &m, nil
}

func (m *Model) normalize() {
	m.Name = strings.ToLower(strings.TrimSpace(m.Name))
	if m.TaskType != "" {
		m.TaskType = strings.ReplaceAll(strings.ToLower(m.TaskType), " ", "-")
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
}

// ID returns the registry key for the model.
func (m *Model) ID() string {
	return fmt.Sprintf("%s_%s_%s", m.Name, m.TaskType, m.Library)
}

// IsLarge reports whether the declared size exceeds 1 GB.
func (m *Model) IsLarge() bool {
	return m.SizeMB != nil && *m.SizeMB > 1024
}

// DeclaredSizeMB returns the declared size, or 0 and false when unknown.
func (m *Model) DeclaredSizeMB() (float64, bool) {
	if m.SizeMB == nil {
		return 0, false
	}
	return *m.SizeMB, true
}

var numberPrinter = message.NewPrinter(language.English)

// titleCase builds its caser per call; cases.Caser is stateful and must
// not be shared between goroutines.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// DisplayInfo returns the model formatted for tables and dashboards.
func (m *Model) DisplayInfo() map[string]string {
	size := "Unknown"
	if m.SizeMB != nil && *m.SizeMB > 0 {
		size = fmt.Sprintf("%.1f MB", *m.SizeMB)
	}
	downloads := "Unknown"
	if m.Downloads != nil && *m.Downloads > 0 {
		downloads = numberPrinter.Sprintf("%d", *m.Downloads)
	}
	tags := "None"
	if len(m.Tags) > 0 {
		tags = strings.Join(m.Tags, ", ")
	}
	return map[string]string{
		"name":      m.Name,
		"task":      titleCase(strings.ReplaceAll(m.TaskType, "-", " ")),
		"library":   strings.ToUpper(m.Library),
		"size":      size,
		"downloads": downloads,
		"tags":      tags,
	}
}

// Comparison captures how two models relate.
type Comparison struct {
	SameTask           bool     `json:"same_task"`
	SameLibrary        bool     `json:"same_library"`
	SizeDifference     *float64 `json:"size_difference"`
	DownloadDifference *int64   `json:"download_difference"`
}

// Compare reports task/library equality and absolute size and download
// deltas where both sides declare them.
func Compare(a, b *Model) Comparison {
	cmp := Comparison{
		SameTask:    a.TaskType == b.TaskType,
		SameLibrary: a.Library == b.Library,
	}
	if a.SizeMB != nil && b.SizeMB != nil {
		d := *a.SizeMB - *b.SizeMB
		if d < 0 {
			d = -d
		}
		cmp.SizeDifference = &d
	}
	if a.Downloads != nil && b.Downloads != nil {
		d := *a.Downloads - *b.Downloads
		if d < 0 {
			d = -d
		}
		cmp.DownloadDifference = &d
	}
	return cmp
}
