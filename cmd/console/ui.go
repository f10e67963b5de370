package main

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/skeld-engine/internal/orchestrator"
	"github.com/jwebster45206/skeld-engine/pkg/belief"
	"github.com/jwebster45206/skeld-engine/pkg/game"
	"github.com/jwebster45206/skeld-engine/pkg/meeting"
	"github.com/jwebster45206/skeld-engine/pkg/reward"
)

const PlaceHolderText = "Enter to step, or /kill /meeting /beliefs /rewards /copy /quit ..."

// ConsoleUI is the BubbleTea model that runs the UI. It keeps a small
// local driver state (roster, timestep, queued events) so the decision
// layer can be exercised without a real game engine attached.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	created      *CreatedGame
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Driver state standing in for the game engine.
	roster       []game.Player
	timestep     int
	taskPct      float64
	pending      []game.Event
	meetingOn    bool
	meetingRound int
	nextAgent    int

	log     []string
	beliefs map[game.PlayerID]belief.Matrix

	// Quit confirmation state
	showQuitModal bool
}

type turnResultMsg struct {
	agent  game.PlayerID
	result *orchestrator.TurnResult
	err    error
}

type beliefsMsg struct {
	beliefs map[game.PlayerID]belief.Matrix
	err     error
}

type rewardsMsg struct {
	records []reward.Record
	err     error
}

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

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	rewardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

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

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, created *CreatedGame) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:       cfg,
		client:       client,
		created:      created,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		roster:       created.Players,
		timestep:     1,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.72) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			cmd := m.handleInput(strings.TrimSpace(m.textarea.Value()))
			m.textarea.Reset()
			m.writeChatContent()
			m.metaViewport.SetContent(m.writeMetadata())
			return m, cmd
		}

	case turnResultMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.log = append(m.log, errorStyle.Render(fmt.Sprintf("! turn failed: %v", msg.err)))
		} else {
			m.appendTurn(msg.agent, msg.result)
		}
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())
		return m, nil

	case beliefsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.beliefs = msg.beliefs
		}
		m.metaViewport.SetContent(m.writeMetadata())
		return m, nil

	case rewardsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.log = append(m.log, errorStyle.Render(fmt.Sprintf("! rewards: %v", msg.err)))
		} else {
			m.appendRewardLog(msg.records)
		}
		m.writeChatContent()
		return m, nil
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y", "Y", "enter":
			return m, tea.Quit
		case "n", "N", "esc":
			m.showQuitModal = false
			return m, nil
		}
	}
	return m, nil
}

// handleInput parses one console command and returns the follow-up Cmd.
func (m *ConsoleUI) handleInput(input string) tea.Cmd {
	fields := strings.Fields(input)
	cmd := ""
	if len(fields) > 0 {
		cmd = fields[0]
	}

	switch cmd {
	case "", "/step":
		return m.stepTurn()

	case "/kill":
		// /kill <victim> <room>: queue an impostor kill for the next turn.
		if len(fields) != 3 {
			m.log = append(m.log, errorStyle.Render("! usage: /kill <victim> <room>"))
			return nil
		}
		m.queueKill(game.PlayerID(fields[1]), game.RoomID(fields[2]))
		return nil

	case "/meeting":
		m.meetingOn = !m.meetingOn
		if m.meetingOn {
			m.meetingRound++
			m.log = append(m.log, eventStyle.Render(fmt.Sprintf("-- emergency meeting %d called --", m.meetingRound)))
		} else {
			m.log = append(m.log, eventStyle.Render("-- meeting adjourned --"))
			m.timestep++
		}
		return nil

	case "/beliefs":
		m.loading = true
		return m.loadBeliefs()

	case "/rewards":
		m.loading = true
		return m.loadRewards()

	case "/copy":
		if err := clipboard.WriteAll(m.created.ID.String()); err != nil {
			m.log = append(m.log, errorStyle.Render(fmt.Sprintf("! clipboard: %v", err)))
		} else {
			m.log = append(m.log, eventStyle.Render("game ID copied to clipboard"))
		}
		return nil

	case "/quit":
		m.showQuitModal = true
		return nil

	default:
		m.log = append(m.log, errorStyle.Render(fmt.Sprintf("! unknown command %q", cmd)))
		return nil
	}
}

func (m *ConsoleUI) queueKill(victim game.PlayerID, room game.RoomID) {
	var impostor *game.Player
	var witnesses []game.PlayerID
	for i := range m.roster {
		p := &m.roster[i]
		switch {
		case p.Role == game.RoleImpostor && p.Alive:
			impostor = p
		case p.Alive && p.Location == room && p.ID != victim:
			witnesses = append(witnesses, p.ID)
		}
	}
	if impostor == nil {
		m.log = append(m.log, errorStyle.Render("! no living impostor"))
		return
	}
	impostor.Location = room
	m.pending = append(m.pending, game.Event{
		Timestep:  m.timestep,
		Kind:      game.EventKill,
		Actor:     impostor.ID,
		Victim:    victim,
		Room:      room,
		Witnesses: witnesses,
	})
	for i := range m.roster {
		if m.roster[i].ID == victim {
			m.roster[i].Alive = false
			m.roster[i].Location = room
		}
	}
	m.log = append(m.log, eventStyle.Render(fmt.Sprintf("-- %s killed %s in %s (%d witnesses) --",
		impostor.ID, victim, room, len(witnesses))))
}

// stepTurn sends the next living agent's turn to the API.
func (m *ConsoleUI) stepTurn() tea.Cmd {
	living := 0
	for _, p := range m.roster {
		if p.Alive && !p.Ejected {
			living++
		}
	}
	if living == 0 {
		m.log = append(m.log, errorStyle.Render("! nobody left alive"))
		return nil
	}
	for {
		m.nextAgent = m.nextAgent % len(m.roster)
		if m.roster[m.nextAgent].Alive && !m.roster[m.nextAgent].Ejected {
			break
		}
		m.nextAgent++
	}
	agent := m.roster[m.nextAgent]
	m.nextAgent++
	if m.nextAgent >= len(m.roster) && !m.meetingOn {
		m.timestep++
		m.taskPct += 5
	}

	req := orchestrator.TurnRequest{
		Agent:    agent.ID,
		Snapshot: m.snapshot(),
		Events:   m.pending,
		Roster:   m.roster,
	}
	m.pending = nil
	if m.meetingOn {
		req.Meeting = &orchestrator.MeetingInfo{
			Stage: meeting.StageAccusation,
			Round: m.meetingRound,
		}
	}

	m.loading = true
	client, baseURL, gameID := m.client, m.config.APIBaseURL, m.created.ID
	return func() tea.Msg {
		result, err := runTurn(client, baseURL, gameID, req)
		return turnResultMsg{agent: agent.ID, result: result, err: err}
	}
}

func (m *ConsoleUI) loadBeliefs() tea.Cmd {
	client, baseURL, gameID := m.client, m.config.APIBaseURL, m.created.ID
	return func() tea.Msg {
		beliefs, err := getBeliefs(client, baseURL, gameID)
		return beliefsMsg{beliefs: beliefs, err: err}
	}
}

func (m *ConsoleUI) loadRewards() tea.Cmd {
	client, baseURL, gameID := m.client, m.config.APIBaseURL, m.created.ID
	return func() tea.Msg {
		records, err := getRewards(client, baseURL, gameID)
		return rewardsMsg{records: records, err: err}
	}
}

// appendRewardLog prints the tail of the persisted reward audit log.
func (m *ConsoleUI) appendRewardLog(records []reward.Record) {
	m.log = append(m.log, eventStyle.Render(fmt.Sprintf("-- reward log (%d records) --", len(records))))
	start := 0
	if len(records) > 10 {
		start = len(records) - 10
	}
	for _, rec := range records[start:] {
		m.log = append(m.log, fmt.Sprintf("t%d %s %+.0f (%s)", rec.Timestep, rec.Agent, rec.Value, rec.Category))
	}
}

func (m *ConsoleUI) snapshot() game.Snapshot {
	snap := game.Snapshot{Timestep: m.timestep, TaskPct: m.taskPct}
	for _, p := range m.roster {
		switch {
		case p.Role == game.RoleImpostor && p.Alive && !p.Ejected:
			snap.LivingImpostors++
		case p.Role == game.RoleImpostor:
			snap.DeadImpostors++
		case p.Alive && !p.Ejected:
			snap.LivingCrew++
		default:
			snap.DeadCrew++
		}
	}
	return snap
}

func (m *ConsoleUI) appendTurn(agent game.PlayerID, res *orchestrator.TurnResult) {
	if res.Speech != nil {
		line := speakerStyle.Render(string(agent)+": ") + res.Speech.Statement
		if res.Speech.UsedFallback {
			line += loadingStyle.Render("  (fallback)")
		}
		m.log = append(m.log, line)
	} else if res.Candidate != nil && res.Candidate.Action != "" {
		m.log = append(m.log, eventStyle.Render(fmt.Sprintf("%s -> %s", agent, res.Candidate.Action)))
	}
	m.log = append(m.log, rewardStyle.Render(fmt.Sprintf("   reward %+.1f (%s)  vCrew %.2f", res.Reward, res.Category, res.Context.VCrew)))
	if len(res.Beliefs) > 0 {
		if m.beliefs == nil {
			m.beliefs = make(map[game.PlayerID]belief.Matrix)
		}
		m.beliefs[agent] = res.Beliefs
	}
}

func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("SKELD ENGINE") + "\n\n")
	content.WriteString("Step agent turns and watch the decision layer work.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	for _, line := range m.log {
		content.WriteString(wordwrap.String(line, chatWidth) + "\n")
	}

	if m.loading {
		content.WriteString("\n" + loadingStyle.Render("thinking..."))
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("GAME") + "\n\n")

	content.WriteString("Game ID:\n")
	content.WriteString(m.created.ID.String()[:8] + "...\n\n")

	content.WriteString(fmt.Sprintf("Timestep: %d\n", m.timestep))
	content.WriteString(fmt.Sprintf("Tasks: %.0f%%\n", m.taskPct))
	if m.meetingOn {
		content.WriteString(fmt.Sprintf("Meeting: round %d\n", m.meetingRound))
	}
	content.WriteString("\nRoster:\n")
	for _, p := range m.roster {
		mark := "+"
		if !p.Alive || p.Ejected {
			mark = "x"
		}
		content.WriteString(fmt.Sprintf("%s %s\n", mark, p.ID))
	}

	if len(m.beliefs) > 0 {
		content.WriteString("\nSuspicion:\n")
		var agents []string
		for id := range m.beliefs {
			agents = append(agents, string(id))
		}
		sort.Strings(agents)
		for _, id := range agents {
			matrix := m.beliefs[game.PlayerID(id)]
			var peak game.PlayerID
			var peakV float64
			for target, v := range matrix {
				if v > peakV {
					peak, peakV = target, v
				}
			}
			if peak != "" {
				content.WriteString(fmt.Sprintf("%s: %s %.2f\n", id, peak, peakV))
			}
		}
	}

	content.WriteString("\nCommands:\n")
	content.WriteString("• Enter: Step\n")
	content.WriteString("• /kill v room\n")
	content.WriteString("• /meeting\n")
	content.WriteString("• /beliefs\n")
	content.WriteString("• /rewards\n")
	content.WriteString("• /copy\n")
	content.WriteString("• Ctrl+C: Quit\n")

	return content.String()
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.showQuitModal {
		modal := modalStyle.Render(titleStyle.Render("Quit?") + "\n\nPress y to quit, n to stay.")
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	}

	chat := chatPanelStyle.Render(m.chatViewport.View() + "\n\n" + m.textarea.View())
	meta := metaPanelStyle.Render(m.metaViewport.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, chat, meta)
}
