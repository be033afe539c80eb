// Package tui is the Interactive Controller: it translates keystrokes into
// operations on the selected resource (scale, toggle routing mode, quit)
// and renders the cached status table. It is a thin bubbletea.Model over
// internal/resource and internal/routing — it never talks to kubectl
// directly.
//
// Grounded on kcli's internal/ui/tui.go for the bubbletea Model/Update/View
// shape and lipgloss style declarations, and on the Python predecessor's
// devexy/commands/workon.py (ClusterTable.get_status's exact branch order
// and its keymap: ↑/↓ move, s start/stop, m toggle routing mode, q quit).
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sycdan/devexy/internal/resource"
	"github.com/sycdan/devexy/internal/routing"
)

const tickInterval = 200 * time.Millisecond

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("24")).Padding(0, 1)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	runningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	stoppedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type tickMsg time.Time

// Model is the bubbletea model driving the interactive resource table.
type Model struct {
	ctx        context.Context
	resources  []*resource.Resource
	supervisor *routing.Supervisor
	selected   int
	width      int
	message    string
}

// New returns a Model over resources, which must all be scalable — the
// caller (internal/cli) is responsible for filtering the reconciled or
// queried resource list down to the scalable kinds before handing it here.
// ctx bounds the status pollers this Model starts when a resource is scaled
// up from the table.
func New(ctx context.Context, resources []*resource.Resource, supervisor *routing.Supervisor) Model {
	return Model{ctx: ctx, resources: resources, supervisor: supervisor}
}

// Init starts the render tick.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles keystrokes and the periodic render tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			m.moveSelection(-1)
		case "down", "j":
			m.moveSelection(1)
		case "s":
			m.toggleScale()
		case "m":
			m.toggleRoutingMode()
		case "q", "esc", "ctrl+c":
			m.stopAll()
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) moveSelection(delta int) {
	n := len(m.resources)
	if n == 0 {
		return
	}
	m.selected = ((m.selected+delta)%n + n) % n
}

func (m *Model) toggleScale() {
	if len(m.resources) == 0 {
		return
	}
	res := m.resources[m.selected]
	replicas, _ := res.DocReplicas()
	scalingUp := replicas == 0
	if scalingUp {
		res.SetReplicas(1)
		m.message = fmt.Sprintf("starting %s", res.Key())
	} else {
		res.SetReplicas(0)
		m.message = fmt.Sprintf("stopping %s", res.Key())
	}
	if outcome := res.Apply(); outcome == resource.Failed {
		m.message = fmt.Sprintf("failed to apply %s", res.Key())
		return
	}
	if scalingUp {
		m.supervisor.EnableServices(m.ctx, res)
	}
}

func (m *Model) toggleRoutingMode() {
	if len(m.resources) == 0 {
		return
	}
	res := m.resources[m.selected]
	proxying, err := m.supervisor.ToggleRoutingMode(res)
	if err != nil {
		m.message = fmt.Sprintf("%s: %v", res.Key(), err)
		return
	}
	if outcome := res.Apply(); outcome == resource.Failed {
		m.message = fmt.Sprintf("failed to apply routing change for %s", res.Key())
		return
	}
	if proxying {
		m.message = fmt.Sprintf("%s now routing cluster -> laptop", res.Key())
	} else {
		m.message = fmt.Sprintf("%s now routing laptop -> cluster", res.Key())
	}
}

func (m *Model) stopAll() {
	for _, res := range m.resources {
		res.StopStatusPoller()
		m.supervisor.StopForwarding(res)
	}
}

// View renders the resource table.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-15s %-15s %-20s %-10s %-12s", "Namespace", "Kind", "Name", "Port", "Status")))
	b.WriteString("\n")

	for i, res := range m.resources {
		line := fmt.Sprintf("%-15s %-15s %-20s %-10s %-12s",
			res.Namespace(), res.Kind(), res.Name(), portColumn(res), Status(res))
		if i == m.selected {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.message != "" {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(m.message))
		b.WriteString("\n")
	}

	b.WriteString(footerStyle.Render("[↑/↓] move  [s] start/stop  [m] toggle routing  [q] quit"))
	return b.String()
}

func portColumn(res *resource.Resource) string {
	port, ok := res.LocalPort()
	if !ok {
		return "undefined"
	}
	return fmt.Sprintf("%d", port)
}

// Status derives the human-readable status text for res from its cached
// observations, following the exact branch order of the predecessor's
// ClusterTable.get_status: starting, then routing-aware running, then
// unavailable, then stopped, then unknown.
func Status(res *resource.Resource) string {
	status := res.ObservedStatus()

	unavailable := intOr(status["unavailableReplicas"])
	available := intOr(status["availableReplicas"])
	current := intOr(status["currentReplicas"])
	ready := intOr(status["readyReplicas"])

	if current > ready {
		return "starting"
	}
	if available > 0 {
		switch {
		case res.IsProxying():
			return runningStyle.Render("☸ -> 💻")
		case res.IsForwarding():
			return runningStyle.Render("💻 -> ☸")
		default:
			return runningStyle.Render("running")
		}
	}
	if unavailable > 0 && available == 0 {
		return warnStyle.Render("unavailable")
	}
	if current == 0 {
		return stoppedStyle.Render("stopped")
	}
	return "unknown"
}

func intOr(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
