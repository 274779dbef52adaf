package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/credential"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/keys"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/llm"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/source"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/source/email"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/store"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/theme"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/triage"
)

// ConfigMode represents the current state of the configuration view.
type ConfigMode int

const (
	ModeList         ConfigMode = iota // List the prompts
	ModeEditPrompt                     // Edit one prompt
	ModeTesting                        // Running a prompt test
	ModeTestResult                     // Show the test output
	ModeConfirmReset                   // Confirm restoring a builtin prompt
	ModeFormIMAP                       // IMAP ingest form
	ModeIngesting                      // Fetching over IMAP
	ModeIngestResult                   // Show the ingest outcome
	ModeFormAPIKey                     // Store the model API key
)

// ConfigDoneMsg signals the config view should close and return to the main app.
type ConfigDoneMsg struct{}

// IngestedMsg signals that an ingest from the form finished and the inbox
// should be reloaded.
type IngestedMsg struct {
	Fetched int
	Added   int
}

// promptsLoadedMsg is sent when prompts have been loaded from the store.
type promptsLoadedMsg struct {
	prompts model.Prompts
	err     error
}

// promptSavedMsg is sent after a prompt is persisted.
type promptSavedMsg struct {
	name model.PromptName
	err  error
}

// testResultMsg carries the output of a prompt test.
type testResultMsg struct {
	result *triage.TestPromptResult
	err    error
}

// ingestResultMsg carries the outcome of an ingest started from the form.
type ingestResultMsg struct {
	fetched int
	added   int
	err     error
}

// Model is the Bubble Tea model for the prompt and source settings UI.
type Model struct {
	mode        ConfigMode
	svc         *triage.Service
	secrets     credential.SecretStore
	cfg         *model.AppConfig
	cfgPath     string
	prompts     model.Prompts
	selectedIdx int

	// Huh forms
	promptForm  *huh.Form
	imapForm    *huh.Form
	apiKeyForm  *huh.Form
	resetForm   *huh.Form
	resetAnswer bool

	// Form field values (huh binds to these)
	formPrompt   string
	formServer   string
	formPort     string
	formUsername string
	formPassword string
	formMailbox  string
	formLimit    string
	formTLS      bool
	formAPIKey   string

	// Prompt testing
	sample     string
	testResult *triage.TestPromptResult
	testErr    error

	// Ingest outcome
	ingestFetched int
	ingestAdded   int
	ingestErr     error

	spinner spinner.Model

	// Status message for transient feedback
	statusMsg string

	keys          *keys.KeyMap
	width, height int
}

// New creates a new configuration view model. cfg is updated in place and
// written to cfgPath when the IMAP form is saved.
func New(
	svc *triage.Service,
	secrets credential.SecretStore,
	cfg *model.AppConfig,
	cfgPath string,
	k *keys.KeyMap,
	width, height int,
) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeList,
		svc:     svc,
		secrets: secrets,
		cfg:     cfg,
		cfgPath: cfgPath,
		keys:    k,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init loads prompts from the store on first render.
func (m Model) Init() tea.Cmd {
	return m.loadPrompts()
}

// SetSample sets the text prompt tests run against, normally the body of
// the highlighted email.
func (m *Model) SetSample(text string) {
	m.sample = text
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case promptsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error loading prompts: %v", msg.err)
			return m, nil
		}
		m.prompts = msg.prompts
		return m, nil

	case promptSavedMsg:
		m.mode = ModeList
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving prompt: %v", msg.err)
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("%s saved", msg.name.Label())
		return m, m.loadPrompts()

	case testResultMsg:
		m.testResult = msg.result
		m.testErr = msg.err
		m.mode = ModeTestResult
		return m, nil

	case ingestResultMsg:
		m.ingestFetched = msg.fetched
		m.ingestAdded = msg.added
		m.ingestErr = msg.err
		m.mode = ModeIngestResult
		if msg.err != nil {
			return m, nil
		}
		return m, func() tea.Msg {
			return IngestedMsg{Fetched: msg.fetched, Added: msg.added}
		}

	case spinner.TickMsg:
		if m.mode == ModeTesting || m.mode == ModeIngesting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	// Delegate to active form
	return m.updateActiveForm(msg)
}

// handleKeyMsg processes key messages based on the current mode.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeList:
		return m.handleListKeys(msg)
	case ModeEditPrompt, ModeFormIMAP, ModeFormAPIKey, ModeConfirmReset:
		return m.updateActiveForm(msg)
	case ModeTestResult, ModeIngestResult:
		switch msg.String() {
		case "enter", "esc":
			m.mode = ModeList
			return m, nil
		}
		return m, nil
	case ModeTesting, ModeIngesting:
		// The request keeps running; esc only hides it.
		if msg.String() == "esc" {
			m.mode = ModeList
			return m, nil
		}
		return m, nil
	}
	return m, nil
}

// handleListKeys processes key events in the prompt list mode.
func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ConfigDoneMsg{} }

	case key.Matches(msg, m.keys.Select), msg.String() == "e":
		name := m.selectedName()
		m.formPrompt = m.prompts.Get(name)
		m.promptForm = m.buildPromptForm(name)
		m.mode = ModeEditPrompt
		return m, m.promptForm.Init()

	case msg.String() == "t":
		m.mode = ModeTesting
		m.testResult = nil
		m.testErr = nil
		return m, tea.Batch(m.spinner.Tick, m.runTest(m.selectedName()))

	case msg.String() == "x":
		m.resetAnswer = false
		m.resetForm = m.buildResetForm()
		m.mode = ModeConfirmReset
		return m, m.resetForm.Init()

	case key.Matches(msg, m.keys.Ingest):
		return m, m.OpenIMAPForm()

	case msg.String() == "a":
		m.formAPIKey = ""
		m.apiKeyForm = m.buildAPIKeyForm()
		m.mode = ModeFormAPIKey
		return m, m.apiKeyForm.Init()

	case key.Matches(msg, m.keys.Down):
		m.selectedIdx = (m.selectedIdx + 1) % len(model.PromptNames)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.selectedIdx--
		if m.selectedIdx < 0 {
			m.selectedIdx = len(model.PromptNames) - 1
		}
		return m, nil
	}

	return m, nil
}

// updateActiveForm dispatches messages to the currently active form.
func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeEditPrompt:
		return m.updatePromptForm(msg)
	case ModeConfirmReset:
		return m.updateResetForm(msg)
	case ModeFormIMAP:
		return m.updateIMAPForm(msg)
	case ModeFormAPIKey:
		return m.updateAPIKeyForm(msg)
	}
	return m, nil
}

func (m Model) selectedName() model.PromptName {
	return model.PromptNames[m.selectedIdx]
}

// --- Prompt Form ---

func (m *Model) buildPromptForm(name model.PromptName) *huh.Form {
	desc := "Sent as the system message."
	if name == model.PromptAutoReply {
		desc += " {{tone}} is replaced with the selected tone."
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title(name.Label()).
				Description(desc).
				Lines(8).
				CharLimit(4000).
				Value(&m.formPrompt),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updatePromptForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.promptForm == nil {
		return m, nil
	}

	mdl, cmd := m.promptForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.promptForm = f
	}

	if m.promptForm.State == huh.StateCompleted {
		return m, m.savePrompt(m.selectedName(), m.formPrompt)
	}
	if m.promptForm.State == huh.StateAborted {
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

// --- Reset Confirmation ---

func (m *Model) buildResetForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Restore the default %s?", m.selectedName().Label())).
				Description("Your edits to this prompt will be replaced.").
				Affirmative("Yes, restore").
				Negative("Cancel").
				Value(&m.resetAnswer),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateResetForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.resetForm == nil {
		return m, nil
	}

	mdl, cmd := m.resetForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.resetForm = f
	}

	if m.resetForm.State == huh.StateCompleted {
		if !m.resetAnswer {
			m.mode = ModeList
			return m, nil
		}
		defaults, err := store.DefaultPrompts()
		if err != nil {
			m.statusMsg = fmt.Sprintf("Error reading defaults: %v", err)
			m.mode = ModeList
			return m, nil
		}
		name := m.selectedName()
		return m, m.savePrompt(name, defaults.Get(name))
	}
	if m.resetForm.State == huh.StateAborted {
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

// --- IMAP Form ---

// OpenIMAPForm opens the ingest form directly, for the inbox shortcut.
func (m *Model) OpenIMAPForm() tea.Cmd {
	m.fillIMAPFields()
	m.imapForm = m.buildIMAPForm()
	m.mode = ModeFormIMAP
	return m.imapForm.Init()
}

// Reset returns to the prompt list and reloads it.
func (m *Model) Reset() tea.Cmd {
	m.mode = ModeList
	m.statusMsg = ""
	return m.loadPrompts()
}

func (m *Model) fillIMAPFields() {
	c := m.cfg.IMAP
	m.formServer = c.Server
	m.formPort = c.Port
	m.formUsername = c.Username
	m.formPassword = "" // Never pre-fill credentials
	m.formMailbox = c.Mailbox
	m.formLimit = strconv.Itoa(c.Limit)
	m.formTLS = c.TLS
}

func (m *Model) buildIMAPForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("IMAP Server").
				Description("IMAP server hostname").
				Placeholder("imap.gmail.com").
				Value(&m.formServer).
				Validate(validateRequired("IMAP Server")),
			huh.NewInput().
				Title("IMAP Port").
				Description("IMAP server port (e.g., 993)").
				Placeholder("993").
				Value(&m.formPort).
				Validate(validatePort),
			huh.NewInput().
				Title("Username").
				Description("Email account username").
				Placeholder("user@example.com").
				Value(&m.formUsername).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Title("Password").
				Description("App password; stored in the system keyring. Leave empty to keep the saved one.").
				EchoMode(huh.EchoModePassword).
				Value(&m.formPassword),
			huh.NewInput().
				Title("Mailbox").
				Placeholder(email.DefaultMailbox).
				Value(&m.formMailbox),
			huh.NewInput().
				Title("Limit").
				Description(fmt.Sprintf("Most recent messages to fetch (1-%d)", email.MaxLimit)).
				Value(&m.formLimit).
				Validate(validateLimit),
			huh.NewConfirm().
				Title("Use TLS").
				Affirmative("Yes").
				Negative("No").
				Value(&m.formTLS),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateIMAPForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.imapForm == nil {
		return m, nil
	}

	mdl, cmd := m.imapForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.imapForm = f
	}

	if m.imapForm.State == huh.StateCompleted {
		return m.saveIMAPAndIngest()
	}
	if m.imapForm.State == huh.StateAborted {
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

func (m Model) saveIMAPAndIngest() (Model, tea.Cmd) {
	limit, _ := strconv.Atoi(strings.TrimSpace(m.formLimit))
	mailbox := strings.TrimSpace(m.formMailbox)
	if mailbox == "" {
		mailbox = email.DefaultMailbox
	}

	imapCfg := m.cfg.IMAP
	imapCfg.Server = strings.TrimSpace(m.formServer)
	imapCfg.Port = strings.TrimSpace(m.formPort)
	imapCfg.Username = strings.TrimSpace(m.formUsername)
	imapCfg.Mailbox = mailbox
	imapCfg.Limit = limit
	imapCfg.TLS = m.formTLS

	if m.formPassword != "" {
		if err := m.secrets.Set(credential.KeyIMAPPassword, m.formPassword); err != nil {
			m.statusMsg = fmt.Sprintf("Error saving credential: %v", err)
			m.mode = ModeList
			return m, nil
		}
		imapCfg.Password = m.formPassword
	}

	m.cfg.IMAP = imapCfg
	if err := model.SaveIMAPConfig(m.cfgPath, imapCfg); err != nil {
		m.statusMsg = fmt.Sprintf("Error saving config: %v", err)
	}

	m.mode = ModeIngesting
	return m, tea.Batch(m.spinner.Tick, m.ingest(imapCfg))
}

// --- API Key Form ---

func (m *Model) buildAPIKeyForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("OpenAI API Key").
				Description("Stored in the system keyring; used from the next start.").
				EchoMode(huh.EchoModePassword).
				Value(&m.formAPIKey).
				Validate(validateRequired("API key")),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateAPIKeyForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.apiKeyForm == nil {
		return m, nil
	}

	mdl, cmd := m.apiKeyForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.apiKeyForm = f
	}

	if m.apiKeyForm.State == huh.StateCompleted {
		m.mode = ModeList
		if err := m.secrets.Set(credential.KeyOpenAI, strings.TrimSpace(m.formAPIKey)); err != nil {
			m.statusMsg = fmt.Sprintf("Error saving credential: %v", err)
			return m, nil
		}
		m.formAPIKey = ""
		m.statusMsg = "API key saved. Restart to leave mock mode."
		return m, nil
	}
	if m.apiKeyForm.State == huh.StateAborted {
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

// --- View ---

// View renders the configuration UI based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeList:
		return m.viewList()
	case ModeEditPrompt:
		return m.viewForm(m.promptForm)
	case ModeConfirmReset:
		return m.viewForm(m.resetForm)
	case ModeFormIMAP:
		return m.viewForm(m.imapForm)
	case ModeFormAPIKey:
		return m.viewForm(m.apiKeyForm)
	case ModeTesting:
		return m.viewWaiting("Running prompt")
	case ModeIngesting:
		return m.viewWaiting("Fetching mail")
	case ModeTestResult:
		return m.viewTestResult()
	case ModeIngestResult:
		return m.viewIngestResult()
	default:
		return ""
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	b.WriteString(titleStyle.Render("Prompts"))
	b.WriteString("\n\n")

	previewStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	for i, name := range model.PromptNames {
		line := name.Label()
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
		b.WriteString(previewStyle.Render("    " + preview(m.prompts.Get(name), m.width-8)))
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		statusStyle := lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true)
		b.WriteString(statusStyle.Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	hintStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	b.WriteString(hintStyle.Render(
		"enter edit | t test | x restore default | i IMAP ingest | a API key | esc back",
	))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(f.View())
}

func (m Model) viewWaiting(what string) string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	return style.Render(fmt.Sprintf(
		"%s %s...\n\nPress esc to hide.",
		m.spinner.View(), what,
	))
}

func (m Model) viewTestResult() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	hint := lipgloss.NewStyle().Foreground(theme.ColorGray).Render("enter/esc back")

	if m.testErr != nil {
		errStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed)
		return style.Render(errStyle.Render("Test failed") + "\n\n" +
			m.testErr.Error() + "\n\n" + hint)
	}

	var out string
	if m.testResult != nil {
		out = m.testResult.Text
		if out == "" {
			out = prettyStructured(m.testResult.Structured)
		}
	}
	if llm.IsErrorSentinel(out) {
		out = theme.ErrorStyle.Render(out)
	}

	okStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen)
	title := "Test output"
	if m.testResult != nil {
		title = m.testResult.Name.Label() + " output"
	}
	return style.Render(okStyle.Render(title) + "\n\n" + out + "\n\n" + hint)
}

func (m Model) viewIngestResult() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	hint := lipgloss.NewStyle().Foreground(theme.ColorGray).Render("enter/esc back")

	if m.ingestErr != nil {
		title := "Ingest failed"
		if source.IsAuthError(m.ingestErr) {
			title = "Authentication failed"
		}
		errStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed)
		return style.Render(errStyle.Render(title) + "\n\n" +
			m.ingestErr.Error() + "\n\n" + hint)
	}

	okStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen)
	return style.Render(okStyle.Render("Ingest complete") + "\n\n" +
		fmt.Sprintf("Fetched %d, added %d new.", m.ingestFetched, m.ingestAdded) +
		"\n\n" + hint)
}

// --- Helpers ---

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// preview returns the first line of s, cut to width.
func preview(s string, width int) string {
	if s == "" {
		return "(empty: builtin default is used)"
	}
	line, _, _ := strings.Cut(s, "\n")
	if width < 10 {
		width = 10
	}
	r := []rune(line)
	if len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return line
}

func prettyStructured(s model.Structured) string {
	if raw, ok := s.Raw(); ok {
		return raw
	}
	return s.String()
}

// loadPrompts returns a command that loads all prompts from the store.
func (m Model) loadPrompts() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		prompts, err := svc.Prompts(context.Background())
		return promptsLoadedMsg{prompts: prompts, err: err}
	}
}

// savePrompt returns a command that persists one prompt.
func (m Model) savePrompt(name model.PromptName, content string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		err := svc.SavePrompt(context.Background(), name, content)
		return promptSavedMsg{name: name, err: err}
	}
}

// runTest returns a command that runs the stored prompt against the sample.
func (m Model) runTest(name model.PromptName) tea.Cmd {
	svc, sample := m.svc, m.sample
	tone := m.cfg.Display.DefaultTone
	return func() tea.Msg {
		if strings.TrimSpace(sample) == "" {
			return testResultMsg{err: fmt.Errorf("select an email in the inbox to test against")}
		}
		res, err := svc.TestPrompt(context.Background(), name, "", sample, tone)
		return testResultMsg{result: res, err: err}
	}
}

// ingest returns a command that fetches mail with the given settings.
func (m Model) ingest(cfg model.IMAPConfig) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		fetched, added, err := svc.IngestFrom(context.Background(), email.NewIMAPClient(cfg))
		return ingestResultMsg{fetched: fetched, added: added, err: err}
	}
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePort(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("port is required")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return fmt.Errorf("port must be a number")
		}
	}
	return nil
}

func validateLimit(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("limit must be a number")
	}
	if n < 1 || n > email.MaxLimit {
		return fmt.Errorf("limit must be between 1 and %d", email.MaxLimit)
	}
	return nil
}
