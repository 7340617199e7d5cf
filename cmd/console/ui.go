package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/tannerws/mistweaver/internal/config"
	"github.com/tannerws/mistweaver/internal/engine"
	"github.com/tannerws/mistweaver/internal/services/events"
	"github.com/tannerws/mistweaver/pkg/state"
	"github.com/tannerws/mistweaver/pkg/story"
)

const (
	AgentName       = "Narrator"
	PlaceHolderText = "What do you do next?"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *config.Config
	engine       *engine.Engine
	events       <-chan events.Event
	cancelEvents func()
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Image quality modal state
	showSettingsModal bool
	selectedQuality   int

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type turnResultMsg struct {
	err error
}

type engineEventMsg struct {
	event events.Event
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	suggestionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")) // pale yellow

	imageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("141")) // lavender

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *config.Config, eng *engine.Engine, broadcaster *events.Broadcaster) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	ch, cancel := broadcaster.Subscribe()

	return ConsoleUI{
		config:       cfg,
		engine:       eng,
		events:       ch,
		cancelEvents: cancel,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		ready:        false,
		loading:      true,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(
		m.submitAction(m.config.OpeningAction),
		m.waitForEvent(),
		progressTick(),
		textarea.Blink,
	)
}

// submitAction runs one turn on the engine. The engine blocks until the
// narrative settles; the scene image lands later via an engine event.
func (m ConsoleUI) submitAction(action string) tea.Cmd {
	return func() tea.Msg {
		return turnResultMsg{err: m.engine.Submit(context.Background(), action)}
	}
}

func (m ConsoleUI) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.events
		if !ok {
			return nil
		}
		return engineEventMsg{event: event}
	}
}

func writeMetadata(eng *engine.Engine) string {
	gs := eng.GameState()

	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURE") + "\n\n")

	content.WriteString("Quest:\n")
	content.WriteString(gs.CurrentQuest + "\n\n")

	content.WriteString("Inventory:\n")
	if len(gs.Inventory) == 0 {
		content.WriteString("Empty\n")
	} else {
		for _, item := range gs.Inventory {
			content.WriteString("• " + item.Name + "\n")
		}
	}
	content.WriteString("\n")

	content.WriteString("Image quality:\n")
	content.WriteString(string(gs.ImageQuality) + "\n\n")

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /quality: Image quality\n")

	return content.String()
}

func formatNarratorText(text string, width int) string {
	prefix := AgentName + ": "
	wrapped := wordwrap.String(text, width-len(prefix))
	return narratorStyle.Render(prefix) + wrapped
}

func formatImageLine(turn story.Turn) string {
	switch turn.ImageStatus {
	case story.ImagePending:
		return imageStyle.Render("[conjuring an illustration...]")
	case story.ImageReady:
		if turn.Image != nil && turn.Image.URL != "" {
			return imageStyle.Render("[illustration: " + turn.Image.URL + "]")
		}
		return imageStyle.Render("[illustration ready]")
	case story.ImageUnavailable:
		return imageStyle.Render("[the vision fades before it forms]")
	}
	return ""
}

// writeChatContent rebuilds the chat panel from the session history for
// the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("MISTWEAVER") + "\n\n")
	content.WriteString("Type your actions below to shape the story.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	turns := m.engine.Turns()
	for _, turn := range turns {
		switch turn.Role {
		case story.RoleUser:
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(turn.Text, chatWidth-6) + "\n\n")
		case story.RoleNarrator:
			content.WriteString(formatNarratorText(turn.Text, chatWidth) + "\n\n")
			if line := formatImageLine(turn); line != "" {
				content.WriteString(line + "\n\n")
			}
		}
	}

	if !m.loading {
		if suggestions := m.engine.Suggestions(); len(suggestions) > 0 {
			content.WriteString(suggestionStyle.Render("You could...") + "\n")
			for i, s := range suggestions {
				content.WriteString(suggestionStyle.Render(fmt.Sprintf("%d. %s", i+1, s)) + "\n")
			}
			content.WriteString("\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Modals take over input handling
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showSettingsModal {
		return m.updateSettingsModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.engine))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0
			m.err = nil

			return m, tea.Batch(m.submitAction(input), progressTick())
		}

	case turnResultMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		}
		m.writeChatContent()
		if m.err != nil {
			currentContent := m.chatViewport.View()
			errorMsg := errorStyle.Render("Error: "+m.err.Error()) + "\n\n"
			m.chatViewport.SetContent(currentContent + errorMsg)
		}
		m.chatViewport.GotoBottom()
		m.metaViewport.SetContent(writeMetadata(m.engine))
		return m, nil

	case engineEventMsg:
		// Image continuations land out of band; redraw so the pending
		// marker flips to the resolved state.
		if msg.event.Type == events.EventTypeImageResolved {
			m.writeChatContent()
		}
		return m, m.waitForEvent()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /quality - Change image quality
• /1../4 - Take a suggested action
• Ctrl+C - Quit game

How to play:
• Type your actions and press Enter
• The narrator will respond to guide the story
• Be descriptive for better responses
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()

	case "/quality":
		current := m.engine.GameState().ImageQuality
		for i, q := range state.Qualities() {
			if q == current {
				m.selectedQuality = i
			}
		}
		m.showSettingsModal = true

	case "/1", "/2", "/3", "/4":
		n := int(cmd[1] - '0')
		suggestions := m.engine.Suggestions()
		if n >= 1 && n <= len(suggestions) {
			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0
			m.err = nil
			return m, tea.Batch(m.submitAction(suggestions[n-1]), progressTick())
		}
	}

	m.textarea.Reset()
	return m, nil
}

func (m ConsoleUI) updateSettingsModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case engineEventMsg:
		return m, m.waitForEvent()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showSettingsModal = false
			m.textarea.Focus()
			return m, textarea.Blink
		case tea.KeyUp:
			if m.selectedQuality > 0 {
				m.selectedQuality--
			}
		case tea.KeyDown:
			if m.selectedQuality < len(state.Qualities())-1 {
				m.selectedQuality++
			}
		case tea.KeyEnter:
			quality := state.Qualities()[m.selectedQuality]
			if err := m.engine.SetImageQuality(quality); err != nil {
				m.err = err
			}
			m.showSettingsModal = false
			m.metaViewport.SetContent(writeMetadata(m.engine))
			m.textarea.Focus()
			return m, textarea.Blink
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case engineEventMsg:
		return m, m.waitForEvent()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelEvents()
			return m, tea.Quit
		case tea.KeyEnter:
			m.cancelEvents()
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				m.cancelEvents()
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to quit your adventure?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderSettingsModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Image Quality"))
	content.WriteString("\n\n")

	for i, q := range state.Qualities() {
		if i == m.selectedQuality {
			content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", q)))
		} else {
			content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", q)))
		}
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(promptStyle.Render("Applies to new scenes only. Past images are kept."))
	content.WriteString("\n")
	content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Esc to cancel"))

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if m.showSettingsModal {
		return m.renderSettingsModal()
	}

	if !m.ready {
		if m.loading {
			return "\n  " + loadingStyle.Render("The mists are gathering...")
		}
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
