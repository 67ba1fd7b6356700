// Package tui implements the interactive terminal views of the client.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wellnessflow/internal/app"
	"wellnessflow/internal/domain"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	readOnlyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("178")).Italic(true)
)

const (
	fieldTitle = iota
	fieldDescription
	fieldTags
	fieldDataURL
	fieldCount
)

type (
	autosavedMsg     struct{ doc domain.SessionDocument }
	savedExpiredMsg  struct{}
	saveResultMsg    struct {
		doc *domain.SessionDocument
		err error
	}
	publishResultMsg struct {
		doc *domain.SessionDocument
		err error
	}
)

// Editor is the session editor view. Every keystroke updates the in-memory
// document and feeds the autosave coalescer; explicit save and publish go
// through the lifecycle controller.
type Editor struct {
	doc      domain.SessionDocument
	verdict  domain.Verdict
	autosave *app.AutosaveService
	publish  *app.PublishService

	title       textinput.Model
	description textarea.Model
	tags        textinput.Model
	dataURL     textinput.Model
	focus       int

	readOnly   bool
	busy       bool
	savedShown bool
	notice     string
	errMsg     string
}

// NewEditor creates an editor for the given document and ownership verdict.
func NewEditor(doc domain.SessionDocument, verdict domain.Verdict, autosave *app.AutosaveService, publish *app.PublishService) Editor {
	readOnly := !verdict.Mutable()

	title := textinput.New()
	title.Placeholder = "Enter a compelling title for your session"
	title.CharLimit = 200
	title.Width = 60
	title.SetValue(doc.Title)

	description := textarea.New()
	description.Placeholder = "Describe what participants will learn or experience..."
	description.SetWidth(60)
	description.SetHeight(4)
	description.SetValue(doc.Description)

	tags := textinput.New()
	tags.Placeholder = "mindfulness, meditation, stress-relief (comma-separated)"
	tags.Width = 60
	tags.SetValue(doc.Tags)

	dataURL := textinput.New()
	dataURL.Placeholder = "https://example.com/session-data.json"
	dataURL.Width = 60
	dataURL.SetValue(doc.JSONFileURL)

	if !readOnly {
		title.Focus()
	}

	return Editor{
		doc:         doc,
		verdict:     verdict,
		autosave:    autosave,
		publish:     publish,
		title:       title,
		description: description,
		tags:        tags,
		dataURL:     dataURL,
		readOnly:    readOnly,
	}
}

// Document returns the editor's current in-memory document.
func (m Editor) Document() domain.SessionDocument { return m.doc }

// Init implements tea.Model.
func (m Editor) Init() tea.Cmd { return textinput.Blink }

// Update implements tea.Model.
func (m Editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.autosave.Close()
			return m, tea.Quit
		case "tab", "shift+tab":
			if m.readOnly {
				return m, nil
			}
			if msg.String() == "tab" {
				m.focus = (m.focus + 1) % fieldCount
			} else {
				m.focus = (m.focus + fieldCount - 1) % fieldCount
			}
			return m, m.applyFocus()
		case "ctrl+s":
			if m.readOnly || m.busy {
				return m, nil
			}
			m.busy = true
			m.errMsg = ""
			return m, m.saveCmd()
		case "ctrl+p":
			if m.readOnly || m.busy {
				return m, nil
			}
			m.busy = true
			m.errMsg = ""
			return m, m.publishCmd()
		}

	case autosavedMsg:
		m.savedShown = true
		return m, tea.Tick(app.SavedIndicatorTTL, func(time.Time) tea.Msg { return savedExpiredMsg{} })

	case savedExpiredMsg:
		m.savedShown = false
		return m, nil

	case saveResultMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = saveError(msg.err)
			return m, nil
		}
		// Adopting the backend record is the CLI's navigation to the
		// now-addressable editor: subsequent edits autosave against the id.
		m.doc = *msg.doc
		m.notice = "Draft saved"
		return m, nil

	case publishResultMsg:
		m.busy = false
		if msg.err != nil {
			// On a partial composite publish the local view stays exactly
			// as it was; the draft exists server-side only.
			m.errMsg = saveError(msg.err)
			return m, nil
		}
		m.doc = *msg.doc
		m.notice = "Session published"
		return m, nil
	}

	if m.readOnly {
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case fieldTitle:
		m.title, cmd = m.title.Update(msg)
	case fieldDescription:
		m.description, cmd = m.description.Update(msg)
	case fieldTags:
		m.tags, cmd = m.tags.Update(msg)
	case fieldDataURL:
		m.dataURL, cmd = m.dataURL.Update(msg)
	}

	if _, ok := msg.(tea.KeyMsg); ok {
		m.syncDoc()
		m.errMsg = ""
		m.autosave.OnEdit(m.doc)
	}
	return m, cmd
}

// View implements tea.Model.
func (m Editor) View() string {
	var b strings.Builder

	switch {
	case m.readOnly:
		b.WriteString(titleStyle.Render("View Session"))
		b.WriteString("\n")
		b.WriteString(readOnlyStyle.Render("Viewing a published wellness session (read-only)"))
	case m.doc.HasID():
		b.WriteString(titleStyle.Render("Edit Session"))
	default:
		b.WriteString(titleStyle.Render("Create New Session"))
	}
	b.WriteString("  " + statusBadge(m.doc.Status))
	if m.savedShown {
		b.WriteString("  " + noticeStyle.Render("Auto-saved ✓"))
	}
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Title *") + "\n" + m.title.View() + "\n\n")
	b.WriteString(labelStyle.Render("Description") + "\n" + m.description.View() + "\n\n")
	b.WriteString(labelStyle.Render("Tags") + "\n" + m.tags.View() + "\n\n")
	b.WriteString(labelStyle.Render("Session Data URL") + "\n" + m.dataURL.View() + "\n\n")

	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg) + "\n")
	} else if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice) + "\n")
	}

	if m.readOnly {
		b.WriteString(helpStyle.Render("esc: back"))
	} else if m.busy {
		b.WriteString(helpStyle.Render("working..."))
	} else {
		b.WriteString(helpStyle.Render("tab: next field • ctrl+s: save draft • ctrl+p: publish • esc: back"))
	}
	return b.String()
}

func (m *Editor) syncDoc() {
	m.doc.Title = m.title.Value()
	m.doc.Description = m.description.Value()
	m.doc.Tags = m.tags.Value()
	m.doc.JSONFileURL = m.dataURL.Value()
}

func (m *Editor) applyFocus() tea.Cmd {
	m.title.Blur()
	m.description.Blur()
	m.tags.Blur()
	m.dataURL.Blur()
	switch m.focus {
	case fieldTitle:
		return m.title.Focus()
	case fieldDescription:
		return m.description.Focus()
	case fieldTags:
		return m.tags.Focus()
	default:
		return m.dataURL.Focus()
	}
}

func (m Editor) saveCmd() tea.Cmd {
	doc := m.doc
	svc := m.publish
	return func() tea.Msg {
		saved, err := svc.SaveDraft(context.Background(), doc)
		return saveResultMsg{doc: saved, err: err}
	}
}

func (m Editor) publishCmd() tea.Cmd {
	doc := m.doc
	svc := m.publish
	return func() tea.Msg {
		published, err := svc.Publish(context.Background(), doc)
		return publishResultMsg{doc: published, err: err}
	}
}

func saveError(err error) string {
	if errors.Is(err, app.ErrTitleRequired) {
		return "Please add a title first"
	}
	var partial *app.PartialPublishError
	if errors.As(err, &partial) {
		return fmt.Sprintf("Publish failed (draft %d was created): %v", partial.Draft.ID, partial.Err)
	}
	return err.Error()
}

// RunEditor drives the editor view to completion and returns the final
// in-memory document. It resets the coalescer for the loaded document and
// wires its saved hook into the program's message loop.
func RunEditor(doc domain.SessionDocument, verdict domain.Verdict, autosave *app.AutosaveService, publish *app.PublishService) (domain.SessionDocument, error) {
	m := NewEditor(doc, verdict, autosave, publish)
	p := tea.NewProgram(m)

	autosave.Reset(verdict)
	autosave.SetOnSaved(func(d domain.SessionDocument) {
		p.Send(autosavedMsg{doc: d})
	})
	defer autosave.Close()

	final, err := p.Run()
	if err != nil {
		return doc, err
	}
	return final.(Editor).Document(), nil
}
