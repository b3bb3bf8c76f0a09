// Package tui is the interactive dashboard over the client mirror:
// every mutation goes to the server first and the local view changes
// only once the response confirms it.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskboard-dev/taskboard/internal/client"
)

const requestTimeout = 15 * time.Second

type mode int

const (
	modeList mode = iota
	modeSearch
	modeAdd
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Add     key.Binding
	Delete  key.Binding
	Search  key.Binding
	Status  key.Binding
	Prio    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Status:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status filter")),
	Prio:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority filter")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type tasksLoadedMsg struct{ tasks []client.Task }

type taskCreatedMsg struct{ task client.Task }

type taskUpdatedMsg struct{ task client.Task }

type taskDeletedMsg struct{ id string }

type requestFailedMsg struct{ err error }

type Model struct {
	api    *client.APIClient
	mirror *client.Mirror
	user   *client.User

	mode    mode
	cursor  int
	input   textinput.Model
	status  string
	loading bool
}

func NewModel(api *client.APIClient, user *client.User) Model {
	ti := textinput.New()
	ti.CharLimit = 100

	return Model{
		api:     api,
		mirror:  client.NewMirror(),
		user:    user,
		input:   ti,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return m.fetchTasks()
}

func (m Model) fetchTasks() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		tasks, err := m.api.Tasks(ctx, "", "")
		if err != nil {
			return requestFailedMsg{err}
		}
		return tasksLoadedMsg{tasks}
	}
}

func (m Model) createTask(title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		task, err := m.api.CreateTask(ctx, client.TaskDraft{Title: title})
		if err != nil {
			return requestFailedMsg{err}
		}
		return taskCreatedMsg{*task}
	}
}

func (m Model) toggleTask(task client.Task) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		status := "completed"
		if task.Status == "completed" {
			status = "incomplete"
		}
		updated, err := m.api.UpdateTask(ctx, task.ID, client.TaskPatch{Status: &status})
		if err != nil {
			return requestFailedMsg{err}
		}
		return taskUpdatedMsg{*updated}
	}
}

func (m Model) deleteTask(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := m.api.DeleteTask(ctx, id); err != nil {
			return requestFailedMsg{err}
		}
		return taskDeletedMsg{id}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		m.loading = false
		m.mirror.SetTasks(msg.tasks)
		m.clampCursor()
		return m, nil

	case taskCreatedMsg:
		m.mirror.Add(msg.task)
		m.status = "added"
		return m, nil

	case taskUpdatedMsg:
		if !m.mirror.Replace(msg.task) {
			// Stale echo of an overlapping edit; the newer state stays.
			return m, nil
		}
		m.status = "updated"
		m.clampCursor()
		return m, nil

	case taskDeletedMsg:
		m.mirror.Remove(msg.id)
		m.status = "deleted"
		m.clampCursor()
		return m, nil

	case requestFailedMsg:
		m.loading = false
		m.status = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeList {
		switch msg.Type {
		case tea.KeyEsc:
			if m.mode == modeSearch {
				m.mirror.Search = ""
			}
			m.mode = modeList
			m.input.Blur()
			return m, nil
		case tea.KeyEnter:
			value := strings.TrimSpace(m.input.Value())
			wasAdd := m.mode == modeAdd
			m.mode = modeList
			m.input.Blur()
			if wasAdd && value != "" {
				return m, m.createTask(value)
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.mode == modeSearch {
			m.mirror.Search = m.input.Value()
			m.clampCursor()
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.mirror.Visible())-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Toggle):
		if task, ok := m.selected(); ok {
			return m, m.toggleTask(task)
		}

	case key.Matches(msg, keys.Delete):
		if task, ok := m.selected(); ok {
			return m, m.deleteTask(task.ID)
		}

	case key.Matches(msg, keys.Add):
		m.mode = modeAdd
		m.input.Placeholder = "task title"
		m.input.SetValue("")
		m.input.Focus()

	case key.Matches(msg, keys.Search):
		m.mode = modeSearch
		m.input.Placeholder = "search"
		m.input.SetValue(m.mirror.Search)
		m.input.Focus()

	case key.Matches(msg, keys.Status):
		m.mirror.Status = nextStatusFilter(m.mirror.Status)
		m.clampCursor()

	case key.Matches(msg, keys.Prio):
		m.mirror.Priority = nextPriorityFilter(m.mirror.Priority)
		m.clampCursor()

	case key.Matches(msg, keys.Refresh):
		m.loading = true
		return m, m.fetchTasks()
	}

	return m, nil
}

func (m Model) selected() (client.Task, bool) {
	visible := m.mirror.Visible()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return client.Task{}, false
	}
	return visible[m.cursor], true
}

func (m *Model) clampCursor() {
	if n := len(m.mirror.Visible()); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func nextStatusFilter(current string) string {
	switch current {
	case client.FilterAll:
		return "incomplete"
	case "incomplete":
		return "completed"
	default:
		return client.FilterAll
	}
}

func nextPriorityFilter(current string) string {
	switch current {
	case client.FilterAll:
		return "high"
	case "high":
		return "medium"
	case "medium":
		return "low"
	default:
		return client.FilterAll
	}
}

func (m Model) View() string {
	var b strings.Builder

	stats := m.mirror.Stats()
	header := fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Taskboard · "+m.user.Name),
		successStyle.Render("✔"), stats.Completed,
		pendingStyle.Render("•"), stats.Incomplete,
		accentStyle.Render("Total"), stats.Total,
	)
	b.WriteString(header + "\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("status: %s  priority: %s  search: %q",
		m.mirror.Status, m.mirror.Priority, m.mirror.Search)) + "\n\n")

	if m.loading {
		b.WriteString(mutedStyle.Render("loading tasks...") + "\n")
		return b.String()
	}

	visible := m.mirror.Visible()
	if len(visible) == 0 {
		b.WriteString(mutedStyle.Render("no tasks") + "\n")
	}
	for i, task := range visible {
		box := mutedStyle.Render(boxUnchecked)
		text := task.Title
		if task.Status == "completed" {
			box = successStyle.Render(boxChecked)
			text = doneStyle.Render(text)
		}

		badge := priorityStyles[task.Priority].Render(task.Priority)
		line := fmt.Sprintf("%s %s %s", box, text, badge)
		if task.Deadline != nil {
			line += " " + mutedStyle.Render("due "+task.Deadline.Format("2006-01-02"))
		}

		prefix := "  "
		if i == m.cursor {
			prefix = selectedStyle.Render("> ")
		}
		b.WriteString(prefix + line + "\n")
	}

	if m.mode != modeList {
		b.WriteString("\n" + m.input.View() + "\n")
	}
	if m.status != "" {
		b.WriteString("\n" + errorOrInfo(m.status) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render(
		"space toggle · a add · d delete · / search · s status · p priority · r refresh · q quit") + "\n")
	return b.String()
}

func errorOrInfo(status string) string {
	switch status {
	case "added", "updated", "deleted":
		return successStyle.Render(status)
	default:
		return errorStyle.Render(status)
	}
}
