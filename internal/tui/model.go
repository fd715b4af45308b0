/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"screenwriter/internal/backend"
	"screenwriter/internal/editor"
	applog "screenwriter/internal/log"
	"screenwriter/internal/script"
)

// Config wires runtime options into the editor program.
type Config struct {
	Session *editor.Session
	// Checker enables the scene match panel when set. SceneMatch decides
	// whether matching starts switched on; Ctrl+T toggles it.
	Checker    backend.SceneChecker
	SceneMatch bool
	Debounce   time.Duration
}

const (
	panelWidth     = 34
	minEditorWidth = 40
	statusHeight   = 2
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	helperStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("81")).Padding(0, 1)
	scoreStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
)

// matchResultMsg carries a scene match delivered by the matcher goroutine.
type matchResultMsg struct{ match *backend.SceneMatch }

// Model is the terminal editor. It owns the session; every key press is
// applied to the session synchronously inside Update.
type Model struct {
	sess     *editor.Session
	matcher  *backend.SceneMatcher
	matches  chan *backend.SceneMatch
	viewport viewport.Model

	width, height int
	match         *backend.SceneMatch
	info          string
	err           string
	quitArmed     bool
	quitting      bool
}

// New returns a Model ready to be mounted into a Program.
func New(cfg Config) *Model {
	sess := cfg.Session
	if sess == nil {
		sess = editor.NewSession(editor.Draft{}, nil)
	}
	m := &Model{
		sess:     sess,
		viewport: viewport.New(80, 20),
		info:     "F1-F12 formats · Ctrl+S save · Ctrl+T scene match · Ctrl+Q quit",
	}
	if cfg.Checker != nil {
		m.matches = make(chan *backend.SceneMatch, 1)
		m.matcher = backend.NewSceneMatcher(cfg.Checker, cfg.Debounce, m.deliver)
		m.matcher.SetEnabled(cfg.SceneMatch)
		sess.OnChange(m.matcher.Update)
	}
	return m
}

// deliver hands a match to the UI goroutine. Only the newest undelivered
// result is kept.
func (m *Model) deliver(sm *backend.SceneMatch) {
	for {
		select {
		case m.matches <- sm:
			return
		default:
		}
		select {
		case <-m.matches:
		default:
		}
	}
}

func waitForMatch(ch <-chan *backend.SceneMatch) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg { return matchResultMsg{match: <-ch} }
}

// Session returns the edited session.
func (m *Model) Session() *editor.Session { return m.sess }

// Close stops background scene matching.
func (m *Model) Close() {
	if m.matcher != nil {
		m.matcher.Close()
	}
}

func (m *Model) Init() tea.Cmd {
	if m.matcher != nil && m.matcher.Enabled() {
		m.matcher.Update(m.sess.Document())
	}
	return waitForMatch(m.matches)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
	case matchResultMsg:
		m.match = msg.match
		return m, waitForMatch(m.matches)
	case tea.KeyMsg:
		if cmd, done := m.handleKey(msg); done {
			return m, cmd
		}
	}
	m.refresh()
	return m, nil
}

// handleKey applies one key press. done reports that Update should return
// the command immediately.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.Type != tea.KeyCtrlQ && msg.Type != tea.KeyCtrlC {
		m.quitArmed = false
		m.err = ""
	}
	if f, ok := formatForKey(msg.Type); ok {
		m.sess.InsertFormat(f)
		return nil, false
	}
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyCtrlQ:
		if m.sess.Dirty() && !m.quitArmed {
			m.quitArmed = true
			m.err = "unsaved changes: press Ctrl+Q again to quit without saving"
			return nil, false
		}
		m.quitting = true
		m.Close()
		return tea.Quit, true
	case tea.KeyCtrlS:
		m.save()
	case tea.KeyCtrlT:
		m.toggleMatch()
	case tea.KeyCtrlP:
		m.sess.InsertFormat(editor.FormatPageBreak)
	case tea.KeyEnter:
		if msg.Alt {
			m.sess.InsertNewline()
		} else {
			m.sess.SubmitLine()
		}
	case tea.KeyCtrlJ:
		m.sess.InsertNewline()
	case tea.KeyBackspace:
		m.sess.DeleteBackward()
	case tea.KeyDelete:
		m.sess.DeleteForward()
	case tea.KeyLeft:
		m.sess.MoveLeft()
	case tea.KeyRight:
		m.sess.MoveRight()
	case tea.KeyUp:
		m.sess.MoveUp()
	case tea.KeyDown:
		m.sess.MoveDown()
	case tea.KeyHome:
		m.sess.MoveLineStart()
	case tea.KeyEnd:
		m.sess.MoveLineEnd()
	case tea.KeyPgUp:
		m.viewport.HalfViewUp()
		return nil, true
	case tea.KeyPgDown:
		m.viewport.HalfViewDown()
		return nil, true
	case tea.KeyTab:
		m.sess.InsertText("\t")
	case tea.KeySpace:
		m.sess.InsertText(" ")
	case tea.KeyRunes:
		m.sess.InsertText(string(msg.Runes))
	}
	return nil, false
}

// formatForKey maps F1..F12 onto the first twelve toolbar formats.
func formatForKey(k tea.KeyType) (editor.Format, bool) {
	keys := []tea.KeyType{
		tea.KeyF1, tea.KeyF2, tea.KeyF3, tea.KeyF4, tea.KeyF5, tea.KeyF6,
		tea.KeyF7, tea.KeyF8, tea.KeyF9, tea.KeyF10, tea.KeyF11, tea.KeyF12,
	}
	formats := editor.Formats()
	for i, fk := range keys {
		if fk == k && i < len(formats) {
			return formats[i], true
		}
	}
	return editor.Format{}, false
}

func (m *Model) save() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.sess.Save(ctx); err != nil {
		m.err = "save failed: " + err.Error()
		applog.WithComponent("tui").Error("save failed", "err", err)
		return
	}
	m.err = ""
	m.info = "Saved " + time.Now().Format("15:04:05")
}

func (m *Model) toggleMatch() {
	if m.matcher == nil {
		m.err = "scene match needs a backend"
		return
	}
	on := !m.matcher.Enabled()
	m.matcher.SetEnabled(on)
	if on {
		m.matcher.Update(m.sess.Document())
		m.info = "Scene match on"
	} else {
		m.match = nil
		m.info = "Scene match off"
	}
}

func (m *Model) editorWidth() int {
	w := m.width
	if m.showPanel() {
		w -= panelWidth + 2
	}
	return max(w, minEditorWidth)
}

func (m *Model) showPanel() bool { return m.match != nil && m.width >= minEditorWidth+panelWidth+2 }

func (m *Model) layout() {
	m.viewport.Width = m.editorWidth()
	m.viewport.Height = max(m.height-statusHeight-1, 1)
	m.refresh()
}

// refresh re-renders the document and scrolls the cursor row into view.
func (m *Model) refresh() {
	m.viewport.Width = m.editorWidth()
	content, row := renderDocument(m.sess.Document(), m.sess.Mode(), m.sess.Cursor(), m.viewport.Width)
	m.viewport.SetContent(content)
	switch {
	case row < m.viewport.YOffset:
		m.viewport.SetYOffset(row)
	case row >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(row - m.viewport.Height + 1)
	}
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	header := titleStyle.Render(m.sess.Title())
	if m.sess.Dirty() {
		header += helperStyle.Render(" •")
	}
	body := m.viewport.View()
	if m.showPanel() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, "  ", renderMatch(m.match))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.statusLine())
}

func (m *Model) statusLine() string {
	row, col := m.sess.RowCol()
	kind := m.sess.CurrentLine().Kind
	if m.sess.Mode() == script.ModeNovel {
		kind = script.KindAction
	}
	pos := helperStyle.Render(fmt.Sprintf("Ln %d, Col %d · %s", row+1, col+1, kind))
	msg := helperStyle.Render(m.info)
	if m.err != "" {
		msg = errorStyle.Render(m.err)
	}
	return pos + "  " + msg
}

// renderMatch draws the scene match panel.
func renderMatch(sm *backend.SceneMatch) string {
	w := panelWidth - 4
	var b strings.Builder
	b.WriteString(titleStyle.Render("Scene match"))
	b.WriteString("  ")
	b.WriteString(scoreStyle.Render(fmt.Sprintf("%d%%", sm.MatchScore)))
	b.WriteString("\n")
	b.WriteString(wordwrap.String(fmt.Sprintf("%s (%d)", sm.Film, sm.Year), w))
	b.WriteString("\n")
	b.WriteString(helperStyle.Render(wordwrap.String(sm.Director+" · "+sm.Runtime+" · "+sm.Language, w)))
	if sm.SceneTimestamp != "" {
		b.WriteString("\n" + helperStyle.Render("at "+sm.SceneTimestamp))
	}
	b.WriteString("\n\n")
	b.WriteString(wordwrap.String(sm.Text, w))
	return panelStyle.Width(panelWidth).Render(b.String())
}

// Run starts the full-screen editor and blocks until the user quits or ctx
// is cancelled. The session keeps whatever the user typed.
func Run(ctx context.Context, cfg Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	m := New(cfg)
	defer m.Close()
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}
