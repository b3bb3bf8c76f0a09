package client

import "strings"

// Filter values for the mirror's derived view. Status additionally
// accepts the task status values, priority the priority values.
const FilterAll = "all"

// Mirror caches the signed-in user's full task list and derives a
// filtered view from it. The source list only changes after the server
// confirms a write; a failed call leaves it untouched. The view is
// recomputed in full on every read instead of patched incrementally.
type Mirror struct {
	tasks []Task

	Status   string
	Priority string
	Search   string
}

func NewMirror() *Mirror {
	return &Mirror{
		Status:   FilterAll,
		Priority: FilterAll,
	}
}

// SetTasks replaces the cached list, e.g. after the initial fetch.
func (m *Mirror) SetTasks(tasks []Task) {
	m.tasks = append([]Task(nil), tasks...)
}

func (m *Mirror) Len() int {
	return len(m.tasks)
}

// Visible recomputes the derived view: status filter, then priority
// filter, then a case-insensitive substring search over title and
// description. Source order (newest-created first) is preserved.
func (m *Mirror) Visible() []Task {
	visible := make([]Task, 0, len(m.tasks))
	needle := strings.ToLower(m.Search)

	for _, task := range m.tasks {
		if m.Status != FilterAll && m.Status != "" && task.Status != m.Status {
			continue
		}
		if m.Priority != FilterAll && m.Priority != "" && task.Priority != m.Priority {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(task.Title), needle) &&
			!strings.Contains(strings.ToLower(task.Description), needle) {
			continue
		}
		visible = append(visible, task)
	}
	return visible
}

type Stats struct {
	Total      int
	Completed  int
	Incomplete int
}

func (m *Mirror) Stats() Stats {
	s := Stats{Total: len(m.tasks)}
	for _, task := range m.tasks {
		if task.Status == "completed" {
			s.Completed++
		} else {
			s.Incomplete++
		}
	}
	return s
}

// Add prepends a server-confirmed new task, matching the server's
// newest-first ordering.
func (m *Mirror) Add(task Task) {
	m.tasks = append([]Task{task}, m.tasks...)
}

// Replace applies a server-confirmed update. A response older than the
// copy already held (by UpdatedAt) is a stale echo of an overlapping
// edit and is discarded, so the newest server write wins regardless of
// response arrival order. It reports whether the update was applied.
func (m *Mirror) Replace(task Task) bool {
	for i := range m.tasks {
		if m.tasks[i].ID != task.ID {
			continue
		}
		if task.UpdatedAt.Before(m.tasks[i].UpdatedAt) {
			return false
		}
		m.tasks[i] = task
		return true
	}
	return false
}

// Remove drops a server-confirmed deleted task. Staleness does not
// matter here: any delete confirmation means the row is gone.
func (m *Mirror) Remove(id string) bool {
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return true
		}
	}
	return false
}
