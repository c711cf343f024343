package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/n3utr7no/Kaze-AI/chat"
)

// TUI message types
type StateMsg struct{ State State }
type HistoryMsg struct{ Messages []chat.Message }
type BarsMsg struct{ Levels []float64 }
type NotificationMsg struct{ Text string }
type tickMsg time.Time

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// programSink forwards component events into the running program.
type programSink struct{}

func (programSink) StateChanged(s State)        { tuiSend(StateMsg{State: s}) }
func (programSink) History(msgs []chat.Message) { tuiSend(HistoryMsg{Messages: msgs}) }
func (programSink) Bars(levels []float64)       { tuiSend(BarsMsg{Levels: levels}) }
func (programSink) Notification(text string)    { tuiSend(NotificationMsg{Text: text}) }

// User-selectable plan categories. "System" is reserved for welcome and
// error records and is never offered here.
var categories = []string{"Travel", "Fashion"}

var (
	styleHeader    = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	styleDim       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleUser      = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Bold(true)
	styleUserSub   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	styleBotTitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Bold(true)
	styleBotBody   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	styleTimeline  = lipgloss.NewStyle().Foreground(lipgloss.Color("109"))
	styleWeather   = lipgloss.NewStyle().Foreground(lipgloss.Color("222"))
	styleNotify    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	styleRecording = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleBars      = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	styleVerify    = lipgloss.NewStyle().Foreground(lipgloss.Color("222"))
	styleInput     = lipgloss.NewStyle().Foreground(lipgloss.Color("231"))
	styleHelp      = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
)

var barGlyphs = []rune("▁▂▃▄▅▆▇█")

// tuiApp bundles everything the key handlers command. The model stays a
// value type; commands run against these shared components and results come
// back as messages.
//
// start opens the history feed. It runs as a command from Init, never
// before: the feed's first snapshot is delivered synchronously and pushes
// into the program, so starting it before the event loop is live would
// block forever in Send.
type tuiApp struct {
	session *Session
	store   HistoryControl
	speech  SpeechControl
	copy    func(string) error
	start   func() error
}

// HistoryControl is the slice of the store the TUI drives directly.
type HistoryControl interface {
	Clear(ctx context.Context) error
	PatchDisplayLanguage(ctx context.Context, id string, lang chat.Language) error
}

// SpeechControl is the TTS surface the TUI drives.
type SpeechControl interface {
	Play(text string, lang chat.Language, slot string)
	Stop()
}

type tuiModel struct {
	app *tuiApp

	state        State
	messages     []chat.Message
	bars         []float64
	notification string
	pending      struct{ source, translated string }

	typing bool
	input  string

	category string
	lang     chat.Language

	frame         int
	width, height int
}

func NewTUIProgram(app *tuiApp) *tea.Program {
	m := tuiModel{
		app:      app,
		category: app.session.Category(),
		lang:     app.session.Language(),
	}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(tuiTick(), startFeedCmd(m.app))
}

func startFeedCmd(app *tuiApp) tea.Cmd {
	return func() tea.Msg {
		if app.start == nil {
			return nil
		}
		if err := app.start(); err != nil {
			return NotificationMsg{Text: "History unavailable"}
		}
		return nil
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case StateMsg:
		m.state = msg.State
		if m.state != StateRecording {
			m.bars = nil
		}
		if m.state == StateVerification {
			pair := m.app.session.Pending()
			m.pending.source = pair.Source
			m.pending.translated = pair.Translated
		} else {
			m.pending.source = ""
			m.pending.translated = ""
		}

	case HistoryMsg:
		m.messages = msg.Messages

	case BarsMsg:
		if m.state == StateRecording {
			m.bars = msg.Levels
		}

	case NotificationMsg:
		m.notification = msg.Text
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.typing {
		switch key {
		case "esc":
			m.typing = false
			m.input = ""
		case "enter":
			text := strings.TrimSpace(m.input)
			m.typing = false
			m.input = ""
			if text != "" {
				return m, func() tea.Msg {
					m.app.session.SubmitText(text)
					return nil
				}
			}
		case "backspace":
			if len(m.input) > 0 {
				runes := []rune(m.input)
				m.input = string(runes[:len(runes)-1])
			}
		case " ":
			m.input += " "
		default:
			if msg.Type == tea.KeyRunes {
				m.input += string(msg.Runes)
			}
		}
		return m, nil
	}

	switch m.state {
	case StateVerification:
		switch key {
		case "enter", "y":
			return m, func() tea.Msg {
				m.app.session.Confirm()
				return nil
			}
		case "n", "esc":
			return m, func() tea.Msg {
				m.app.session.Retry()
				return nil
			}
		}
		return m, nil

	case StateRecording:
		if key == " " || key == "r" {
			return m, func() tea.Msg {
				m.app.session.StopCapture()
				return nil
			}
		}
		return m, nil

	case StateIdle:
		switch key {
		case " ", "r":
			return m, func() tea.Msg {
				m.app.session.StartCapture()
				return nil
			}
		case "t", "/":
			m.typing = true
			m.input = ""
		case "l":
			m.lang = m.lang.Other()
			m.app.session.SetLanguage(m.lang)
			return m, m.patchLanguageCmd(m.lang)
		case "c":
			m.category = nextCategory(m.category)
			m.app.session.SetCategory(m.category)
		case "x":
			return m, func() tea.Msg {
				if err := m.app.store.Clear(context.Background()); err != nil {
					return NotificationMsg{Text: "Clear failed. Please try again."}
				}
				return nil
			}
		case "p":
			if bot := lastBot(m.messages); bot != nil {
				content := bot.Content.For(m.lang)
				m.app.speech.Play(content.Report, m.lang, bot.ID)
			}
		case "ctrl+y":
			if bot := lastBot(m.messages); bot != nil && m.app.copy != nil {
				content := bot.Content.For(m.lang)
				if err := m.app.copy(content.Title + "\n" + content.Report); err == nil {
					m.notification = "Copied"
				}
			}
		}
	}
	return m, nil
}

// patchLanguageCmd rewrites the stored display language of every bot record
// so the rendered language survives a reload on any client.
func (m tuiModel) patchLanguageCmd(lang chat.Language) tea.Cmd {
	ids := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		if bot, ok := msg.(*chat.BotMessage); ok && !bot.Welcome {
			ids = append(ids, bot.ID)
		}
	}
	return func() tea.Msg {
		for _, id := range ids {
			if err := m.app.store.PatchDisplayLanguage(context.Background(), id, lang); err != nil {
				return NotificationMsg{Text: "Language switch didn't fully save"}
			}
		}
		return nil
	}
}

func nextCategory(current string) string {
	for i, c := range categories {
		if c == current {
			return categories[(i+1)%len(categories)]
		}
	}
	return categories[0]
}

func lastBot(msgs []chat.Message) *chat.BotMessage {
	for i := len(msgs) - 1; i >= 0; i-- {
		if bot, ok := msgs[i].(*chat.BotMessage); ok && !bot.Welcome {
			return bot
		}
	}
	return nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder

	header := fmt.Sprintf(" Kaze  %s · %s", m.category, languageLabel(m.lang))
	b.WriteString(styleHeader.Render(header))
	b.WriteString("\n")
	b.WriteString(styleDim.Render(strings.Repeat("─", max(m.width-1, 1))))
	b.WriteString("\n")

	// History pane fills everything between header and the status block.
	statusLines := 4
	paneHeight := m.height - 2 - statusLines
	if paneHeight < 3 {
		paneHeight = 3
	}
	b.WriteString(m.renderHistory(paneHeight))

	b.WriteString(styleDim.Render(strings.Repeat("─", max(m.width-1, 1))))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m tuiModel) renderHistory(height int) string {
	wrap := m.width - 4
	if wrap < 20 {
		wrap = 20
	}

	var lines []string
	for _, msg := range m.messages {
		lines = append(lines, renderMessage(msg, m.lang, wrap)...)
		lines = append(lines, "")
	}
	if len(lines) == 0 {
		lines = []string{styleDim.Render("  No conversation yet")}
	}

	// Keep the tail visible.
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n") + "\n"
}

func renderMessage(msg chat.Message, lang chat.Language, wrap int) []string {
	switch m := msg.(type) {
	case *chat.UserMessage:
		var out []string
		prefix := "  you  "
		if m.Voice {
			prefix = "  you🎤 "
		}
		for i, line := range wrapText(m.MainText, wrap) {
			if i == 0 {
				out = append(out, styleDim.Render(prefix)+styleUser.Render(line))
			} else {
				out = append(out, strings.Repeat(" ", len(prefix))+styleUser.Render(line))
			}
		}
		if m.SubText != "" {
			for _, line := range wrapText(m.SubText, wrap) {
				out = append(out, "        "+styleUserSub.Render(line))
			}
		}
		return out

	case *chat.BotMessage:
		content := m.Content.For(lang)
		var out []string

		head := content.Title
		if m.City != "" {
			head = m.City + " · " + head
		}
		out = append(out, styleDim.Render("  kaze  ")+styleBotTitle.Render(head))

		if m.Weather.Temp != "" {
			w := fmt.Sprintf("        %s %s°C", weatherGlyph(m.Weather.IconCode), m.Weather.Temp)
			out = append(out, styleWeather.Render(w))
		}
		for _, line := range wrapText(content.Report, wrap) {
			out = append(out, "        "+styleBotBody.Render(line))
		}
		for i, item := range content.TimelineItems {
			entry := item.Text
			if item.Name != "" {
				entry += "  @ " + item.Name
			}
			for j, line := range wrapText(entry, wrap-4) {
				if j == 0 {
					out = append(out, styleTimeline.Render(fmt.Sprintf("        %d. %s", i+1, line)))
				} else {
					out = append(out, styleTimeline.Render("           "+line))
				}
			}
		}
		return out
	}
	return nil
}

func weatherGlyph(iconCode string) string {
	if len(iconCode) < 2 {
		return "·"
	}
	switch iconCode[:2] {
	case "01":
		return "☀"
	case "02", "03":
		return "⛅"
	case "04":
		return "☁"
	case "09", "10":
		return "🌧"
	case "11":
		return "⛈"
	case "13":
		return "❄"
	case "50":
		return "🌫"
	}
	return "·"
}

func (m tuiModel) renderStatus() string {
	if m.notification != "" {
		return styleNotify.Render("  ⚠ " + m.notification)
	}

	if m.typing {
		cursor := " "
		if m.frame%2 == 0 {
			cursor = "▌"
		}
		return styleInput.Render("  > " + m.input + cursor)
	}

	switch m.state {
	case StateRecording:
		return styleRecording.Render("  ● REC  ") + styleBars.Render(renderBars(m.bars))
	case StateTranscribing:
		return styleDim.Render("  " + spinner(m.frame) + " transcribing…")
	case StateVerification:
		text := m.pending.translated
		if m.lang == chat.LangJapanese {
			text = m.pending.source
		}
		return styleVerify.Render(fmt.Sprintf("  Heard: %q — enter to send, n to retry", text))
	case StatePlanning:
		return styleDim.Render("  " + spinner(m.frame) + " planning…")
	}
	return styleDim.Render("  ○ ready")
}

func renderBars(levels []float64) string {
	if len(levels) == 0 {
		return ""
	}
	var b strings.Builder
	for _, lv := range levels {
		idx := int(lv * float64(len(barGlyphs)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(barGlyphs) {
			idx = len(barGlyphs) - 1
		}
		b.WriteRune(barGlyphs[idx])
	}
	return b.String()
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func spinner(frame int) string {
	return spinnerFrames[frame%len(spinnerFrames)]
}

func (m tuiModel) renderHelp() string {
	if m.typing {
		return styleHelp.Render("  enter send · esc cancel")
	}
	switch m.state {
	case StateRecording:
		return styleHelp.Render("  space stop")
	case StateVerification:
		return styleHelp.Render("  enter confirm · n retry")
	}
	return styleHelp.Render("  space record · t type · l language · c category · p speak · ctrl+y copy · x clear · ctrl+c quit")
}

func languageLabel(lang chat.Language) string {
	if lang == chat.LangJapanese {
		return "日本語"
	}
	return "English"
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	runes := []rune(text)
	for len(runes) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if runes[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, string(runes[:splitAt]))
		runes = []rune(strings.TrimLeft(string(runes[splitAt:]), " "))
	}
	if len(runes) > 0 {
		lines = append(lines, string(runes))
	}
	return lines
}
