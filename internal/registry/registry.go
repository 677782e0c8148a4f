package registry

import (
	"sort"
	"strings"
	"sync"

	"modelhub-monitor/internal/apperrors"
)

var (
	// ErrAlreadyExists is returned when adding a model whose ID is taken.
	ErrAlreadyExists error = apperrors.New(apperrors.CodeAlreadyExists, "model already exists")
	// ErrNotFound is returned when a named model is not registered.
	ErrNotFound error = apperrors.New(apperrors.CodeNotFound, "model not found")
)

// Registry is the in-memory model catalog. It groups models by task and
// library for statistics and lookups and is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Model
	groups map[string][]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]*Model),
		groups: make(map[string][]string),
	}
}

// Add registers a model, rejecting duplicates by ID.
func (r *Registry) Add(m *Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := m.ID()
	if _, exists := r.models[id]; exists {
		return ErrAlreadyExists
	}
	r.models[id] = m
	r.groups["task_"+m.TaskType] = append(r.groups["task_"+m.TaskType], id)
	r.groups["library_"+m.Library] = append(r.groups["library_"+m.Library], id)
	return nil
}

// Remove unregisters the first model matching the given name.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, m := range r.models {
		if m.Name == name {
			delete(r.models, id)
			r.cleanupGroups()
			return nil
		}
	}
	return ErrNotFound
}

// Get returns the model registered under the given name.
func (r *Registry) Get(name string) (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.models {
		if m.Name == name {
			return m, nil
		}
	}
	return nil, ErrNotFound
}

// All returns every registered model, ordered by name for stable output.
func (r *Registry) All() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

// ByTask returns models registered for a task type.
func (r *Registry) ByTask(taskType string) []*Model {
	taskType = strings.ToLower(taskType)
	return r.filter(func(m *Model) bool { return m.TaskType == taskType })
}

// ByLibrary returns models registered for a library.
func (r *Registry) ByLibrary(library string) []*Model {
	library = strings.ToLower(library)
	return r.filter(func(m *Model) bool { return m.Library == library })
}

// Search returns models whose name, task, or library contains the query.
func (r *Registry) Search(query string) []*Model {
	q := strings.ToLower(query)
	return r.filter(func(m *Model) bool {
		return strings.Contains(m.Name, q) ||
			strings.Contains(m.TaskType, q) ||
			strings.Contains(m.Library, q)
	})
}

func (r *Registry) filter(keep func(*Model) bool) []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Model
	for _, m := range r.models {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// BulkAdd registers models in order, reporting the outcome per name.
func (r *Registry) BulkAdd(models []*Model) map[string]error {
	results := make(map[string]error, len(models))
	for _, m := range models {
		results[m.Name] = r.Add(m)
	}
	return results
}

// Groups returns a copy of the task_ and library_ group index.
func (r *Registry) Groups() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.groups))
	for g, ids := range r.groups {
		out[g] = append([]string(nil), ids...)
	}
	return out
}

// cleanupGroups drops groups whose members are all gone. Caller holds the
// write lock.
func (r *Registry) cleanupGroups() {
	for group, ids := range r.groups {
		live := false
		for _, id := range ids {
			if _, ok := r.models[id]; ok {
				live = true
				break
			}
		}
		if !live {
			delete(r.groups, group)
		}
	}
}

// Statistics summarizes the registry contents.
type Statistics struct {
	TotalModels         int            `json:"total_models"`
	TaskDistribution    map[string]int `json:"task_distribution,omitempty"`
	LibraryDistribution map[string]int `json:"library_distribution,omitempty"`
	TotalSizeMB         float64        `json:"total_size_mb"`
	AverageSizeMB       float64        `json:"average_size_mb"`
	LargeModelCount     int            `json:"large_models_count"`
}

// Stats computes distribution and size statistics over the catalog.
// Average size divides declared sizes across all models, sized or not.
func (r *Registry) Stats() Statistics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Statistics{TotalModels: len(r.models)}
	if len(r.models) == 0 {
		return stats
	}

	stats.TaskDistribution = make(map[string]int)
	stats.LibraryDistribution = make(map[string]int)
	for _, m := range r.models {
		stats.TaskDistribution[m.TaskType]++
		stats.LibraryDistribution[m.Library]++
		if m.SizeMB != nil {
			stats.TotalSizeMB += *m.SizeMB
			if m.IsLarge() {
				stats.LargeModelCount++
			}
		}
	}
	stats.AverageSizeMB = stats.TotalSizeMB / float64(len(r.models))
	return stats
}
