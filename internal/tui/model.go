package tui

import (
	"bytes"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vito/progrock"
	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/ui/style"
)

const (
	taskListWidthRatio = 0.4
	logPaneBorderWidth = 4
	barWidth           = 12
)

type status int

const (
	statusPending status = iota
	statusRunning
	statusDone
	statusFailed
	statusSkipped
	statusCanceled
)

// row is one task line in the list.
type row struct {
	Name     string
	Status   status
	Percent  int
	Started  time.Time
	Duration time.Duration
	Err      string
	Logs     bytes.Buffer
}

// Model is the Bubble Tea model of a running pipeline. Lifecycle comes from
// the progrock tape; plan, progress, output and outcomes arrive as messages.
type Model struct {
	tape    TapeSource
	rows    []*row
	index   map[string]*row
	active  string
	spinner spinner.Model
	bar     progress.Model
	logs    viewport.Model
	width   int
	height  int
	ended   bool
}

// NewModel creates a model reading lifecycle updates from tape.
func NewModel(tape TapeSource) *Model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = runningStyle

	return &Model{
		tape:    tape,
		index:   make(map[string]*row),
		spinner: s,
		bar: progress.New(
			progress.WithSolidFill(string(style.Water)),
			progress.WithWidth(barWidth),
			progress.WithoutPercentage(),
		),
		logs: viewport.New(0, 0),
	}
}

// Init starts reading from the tape.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(WaitForTape(m.tape), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case MsgPlan:
		for _, name := range msg.Tasks {
			m.lookup(name)
		}
	case MsgProgress:
		m.lookup(msg.Name).Percent = msg.Percent
	case MsgLog:
		m.appendLog(msg.Name, msg.Data)
	case MsgOutcome:
		m.outcome(msg)
	case MsgTapeUpdate:
		m.apply(msg.Update)
		return m, WaitForTape(m.tape)
	case MsgTapeEnded:
		m.ended = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	listWidth := int(float64(width) * taskListWidthRatio)
	m.logs.Width = max(width-listWidth-logPaneBorderWidth, 0)
	m.logs.Height = max(height-2, 0)
}

// lookup returns the row of name, appending one for tasks outside the plan.
func (m *Model) lookup(name string) *row {
	if r, ok := m.index[name]; ok {
		return r
	}
	r := &row{Name: name}
	m.rows = append(m.rows, r)
	m.index[name] = r
	return r
}

func (m *Model) apply(update *progrock.StatusUpdate) {
	if update == nil {
		return
	}
	for _, v := range update.Vertexes {
		r := m.lookup(v.Name)
		if v.Started != nil && r.Started.IsZero() {
			r.Started = v.Started.AsTime()
			if r.Status == statusPending {
				r.Status = statusRunning
			}
			m.active = r.Name
		}
		if v.Completed == nil {
			continue
		}
		if v.Started != nil {
			r.Duration = v.Completed.AsTime().Sub(v.Started.AsTime())
		}
		// An outcome message may already carry the precise state.
		if r.Status == statusPending || r.Status == statusRunning {
			if v.Error != nil {
				r.Status = statusFailed
			} else {
				r.Status = statusDone
				r.Percent = 100
			}
		}
	}
}

func (m *Model) outcome(msg MsgOutcome) {
	r := m.lookup(msg.Name)
	switch msg.State {
	case domain.StateSucceeded:
		r.Status = statusDone
		r.Percent = 100
	case domain.StateFailed:
		if msg.Ran {
			r.Status = statusFailed
		} else {
			r.Status = statusSkipped
		}
	case domain.StateCanceled:
		r.Status = statusCanceled
	}
	if msg.Err != nil {
		r.Err = msg.Err.Error()
	}
}

func (m *Model) appendLog(name string, data []byte) {
	r := m.lookup(name)
	r.Logs.Write(data)
	if m.active == "" {
		m.active = name
	}
	if m.active == name {
		m.logs.SetContent(r.Logs.String())
		m.logs.GotoBottom()
	}
}
