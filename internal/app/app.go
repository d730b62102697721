package app

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"

	"podboard/internal/catalog"
	"podboard/internal/config"
	"podboard/internal/domain"
	"podboard/internal/feeds"
	"podboard/internal/fuzzy"
	"podboard/internal/itunes"
	"podboard/internal/processor"
	"podboard/internal/render"
	"podboard/internal/repository"
	"podboard/internal/theme"
)

// ErrAlreadyProcessing is returned by Process when the same feed URL is
// still being processed.
var ErrAlreadyProcessing = errors.New("feed is already being processed")

type commandHandler func(context.Context, []string) (CommandResult, error)

type command struct {
	name    string
	usage   string
	summary string
	handler commandHandler
}

// CommandResult is what a command hands back to the dashboard. Record is
// set when the command produced a document to display.
type CommandResult struct {
	Message string
	Record  *domain.PodcastRecord
	Titles  []string
	Quit    bool
}

type App struct {
	config     config.Config
	configPath string
	db         *sql.DB
	httpClient *http.Client
	processor  processor.FeedProcessor
	itunes     *itunes.Client
	ledger     *repository.Store
	commands   map[string]*command

	mu     sync.RWMutex
	loaded catalog.Result

	submitMu sync.Mutex
}

// Dependencies overrides the collaborators App would otherwise build from
// the configuration.
type Dependencies struct {
	HTTPClient *http.Client
	Processor  processor.FeedProcessor
	ITunes     *itunes.Client
}

func New(cfg config.Config, configPath string, db *sql.DB) *App {
	return NewWithDependencies(cfg, configPath, db, Dependencies{})
}

func NewWithDependencies(cfg config.Config, configPath string, db *sql.DB, deps Dependencies) *App {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second, Transport: newTransport(cfg)}
	}

	itunesClient := deps.ITunes
	if itunesClient == nil {
		itunesClient = itunes.NewClient(httpClient, "")
	}

	proc := deps.Processor
	if proc == nil {
		// Processing jobs run for minutes; only the caller's context bounds them.
		proc = processor.NewClient(&http.Client{Transport: newTransport(cfg)}, processor.Options{
			BaseURL:      cfg.ProcessorURL,
			Token:        cfg.ProcessorToken,
			Function:     cfg.Function(),
			OutputPath:   cfg.OutputPath,
			PollInterval: cfg.PollInterval(),
			UserAgent:    cfg.UserAgent,
		})
	}

	application := &App{
		config:     cfg,
		configPath: configPath,
		db:         db,
		httpClient: httpClient,
		processor:  proc,
		itunes:     itunesClient,
		ledger:     repository.New(db),
		commands:   make(map[string]*command),
	}
	application.registerCommands()
	application.Reload()
	return application
}

func newTransport(cfg config.Config) *http.Transport {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.TLSVerify},
	}
	if proxyURL := strings.TrimSpace(cfg.Proxy); proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	}
	return transport
}

func (a *App) Config() config.Config {
	return a.config
}

func (a *App) Theme() theme.Theme {
	return theme.ForName(a.config.ColorTheme)
}

func (a *App) CommandNames() []string {
	names := make([]string, 0, len(a.commands))
	for name := range a.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Initialize marks submissions left running by a previous session as failed.
func (a *App) Initialize(ctx context.Context) error {
	n, err := a.ledger.AbandonRunning(ctx)
	if err != nil {
		return fmt.Errorf("abandon running submissions: %w", err)
	}
	if n > 0 {
		log.Printf("marked %d interrupted submissions as failed", n)
	}
	return nil
}

// Reload rebuilds the catalog from the configured directory.
func (a *App) Reload() catalog.Result {
	result := catalog.Load(a.config.CatalogDir)
	log.Printf("catalog: loaded %d records from %s, %d diagnostics", result.Catalog.Len(), a.config.CatalogDir, len(result.Diagnostics))

	a.mu.Lock()
	a.loaded = result
	a.mu.Unlock()
	return result
}

func (a *App) Catalog() *catalog.Catalog {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loaded.Catalog
}

// Diagnostics returns the problems found by the most recent load.
func (a *App) Diagnostics() []catalog.Diagnostic {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]catalog.Diagnostic(nil), a.loaded.Diagnostics...)
}

// Render lays out a record with the configured theme and options. Catalog
// and processor records take the same path.
func (a *App) Render(rec domain.PodcastRecord, width int) string {
	return render.Record(a.Theme(), rec, render.Options{
		Width:               width,
		SkipEmptyHighlights: a.config.SkipEmptyHighlights,
	})
}

// Process hands feedURL to the processing function and waits for its
// record. The submission is written to the ledger first; a URL that is
// still running is refused with ErrAlreadyProcessing.
func (a *App) Process(ctx context.Context, feedURL string) (domain.PodcastRecord, error) {
	id, err := a.begin(ctx, feedURL)
	if err != nil {
		return domain.PodcastRecord{}, err
	}
	log.Printf("submission %d: processing %s", id, feedURL)

	rec, err := a.processor.ProcessFeed(ctx, feedURL)
	done := context.WithoutCancel(ctx)
	if err != nil {
		log.Printf("submission %d failed: %v", id, err)
		if ferr := a.ledger.Fail(done, id, err.Error()); ferr != nil {
			log.Printf("submission %d: record failure: %v", id, ferr)
		}
		return domain.PodcastRecord{}, err
	}

	log.Printf("submission %d succeeded: %q", id, rec.Title())
	if serr := a.ledger.Succeed(done, id, rec.Title()); serr != nil {
		log.Printf("submission %d: record success: %v", id, serr)
	}
	return rec, nil
}

func (a *App) begin(ctx context.Context, feedURL string) (int64, error) {
	a.submitMu.Lock()
	defer a.submitMu.Unlock()

	running, err := a.ledger.Running(ctx, feedURL)
	if err != nil {
		return 0, fmt.Errorf("check submissions: %w", err)
	}
	if running {
		return 0, fmt.Errorf("%w: %s", ErrAlreadyProcessing, feedURL)
	}
	id, err := a.ledger.Begin(ctx, feedURL)
	if err != nil {
		return 0, fmt.Errorf("record submission: %w", err)
	}
	return id, nil
}

// History returns the most recent submissions, newest first.
func (a *App) History(ctx context.Context) ([]domain.Submission, error) {
	return a.ledger.Recent(ctx, a.config.HistoryLimit)
}

func (a *App) Execute(ctx context.Context, input string) (CommandResult, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return CommandResult{}, nil
	}

	args, err := shellquote.Split(input)
	if err != nil {
		return CommandResult{}, err
	}
	if len(args) == 0 {
		return CommandResult{}, nil
	}

	cmdName := strings.ToLower(args[0])
	cmd, ok := a.commands[cmdName]
	if !ok {
		if isFeedURL(args[0]) && len(args) == 1 {
			return a.processCommand(ctx, args)
		}
		return CommandResult{Message: fmt.Sprintf("unknown command: %s", args[0])}, nil
	}

	return cmd.handler(ctx, args[1:])
}

// ProcessTarget reports whether input asks for a feed to be processed and
// returns the feed URL if so.
func (a *App) ProcessTarget(input string) (string, bool) {
	args, err := shellquote.Split(strings.TrimSpace(input))
	if err != nil || len(args) == 0 {
		return "", false
	}
	if cmd, ok := a.commands[strings.ToLower(args[0])]; ok {
		if cmd.name == "process" && len(args) == 2 {
			return args[1], true
		}
		return "", false
	}
	if len(args) == 1 && isFeedURL(args[0]) {
		return args[0], true
	}
	return "", false
}

func isFeedURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func (a *App) registerCommands() {
	a.registerCommand("help", "help", "Show available commands", a.helpCommand, "?")
	a.registerCommand("list", "list [filter]", "List catalog titles (optionally filtered)", a.listCommand, "ls")
	a.registerCommand("show", "show <title>", "Display a catalog record", a.showCommand)
	a.registerCommand("reload", "reload", "Rescan the catalog directory", a.reloadCommand, "r")
	a.registerCommand("diagnostics", "diagnostics", "Show files excluded by the last scan", a.diagnosticsCommand, "diag")
	a.registerCommand("process", "process <feed_url>", "Run the processing function on a feed", a.processCommand, "p")
	a.registerCommand("peek", "peek <feed_url>", "Preview a feed before processing it", a.peekCommand)
	a.registerCommand("search", "search <query>", "Find podcast feeds in the iTunes directory", a.searchCommand, "s")
	a.registerCommand("history", "history", "Show recent submissions", a.historyCommand, "h")
	a.registerCommand("config", "config [show]", "View or edit application configuration", a.configCommand)
	a.registerCommand("exit", "exit", "Exit the application", a.exitCommand, "quit")
}

func (a *App) registerCommand(name, usage, summary string, handler commandHandler, aliases ...string) {
	cmd := &command{name: name, usage: usage, summary: summary, handler: handler}
	names := append([]string{name}, aliases...)
	for _, alias := range names {
		a.commands[alias] = cmd
	}
}

func (a *App) helpCommand(_ context.Context, _ []string) (CommandResult, error) {
	seen := make(map[string]bool)
	cmds := make([]*command, 0, len(a.commands))
	for _, cmd := range a.commands {
		if seen[cmd.name] {
			continue
		}
		seen[cmd.name] = true
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].name < cmds[j].name })

	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, cmd := range cmds {
		fmt.Fprintf(&b, "  %-22s %s\n", cmd.usage, cmd.summary)
	}
	b.WriteString("A bare http(s):// URL is processed directly.")
	return CommandResult{Message: b.String()}, nil
}

func (a *App) listCommand(_ context.Context, args []string) (CommandResult, error) {
	cat := a.Catalog()
	query := strings.Join(args, " ")
	titles := cat.Filter(query)

	if len(titles) == 0 {
		if query == "" {
			return CommandResult{Message: "Catalog is empty."}, nil
		}
		return CommandResult{Message: fmt.Sprintf("No titles match %q.", query)}, nil
	}

	var b strings.Builder
	for i, title := range titles {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(title)
	}
	return CommandResult{Message: b.String(), Titles: titles}, nil
}

func (a *App) showCommand(_ context.Context, args []string) (CommandResult, error) {
	if len(args) == 0 {
		return CommandResult{Message: "Usage: show <title>"}, nil
	}
	title := strings.Join(args, " ")
	cat := a.Catalog()

	rec, ok := cat.Get(title)
	if !ok {
		matches := cat.Filter(title)
		if len(matches) != 1 {
			return CommandResult{Message: fmt.Sprintf("No record titled %q.", title), Titles: matches}, nil
		}
		rec, _ = cat.Get(matches[0])
	}
	return CommandResult{Record: &rec}, nil
}

func (a *App) reloadCommand(_ context.Context, _ []string) (CommandResult, error) {
	result := a.Reload()
	msg := fmt.Sprintf("Loaded %d records from %s.", result.Catalog.Len(), a.config.CatalogDir)
	if excluded := result.Excluded(); len(excluded) > 0 {
		msg += fmt.Sprintf(" %d files excluded; see diagnostics.", len(excluded))
	}
	return CommandResult{Message: msg, Titles: result.Catalog.Titles()}, nil
}

func (a *App) diagnosticsCommand(_ context.Context, _ []string) (CommandResult, error) {
	diags := a.Diagnostics()
	if len(diags) == 0 {
		return CommandResult{Message: "No problems found in the last scan."}, nil
	}
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = d.String()
	}
	return CommandResult{Message: strings.Join(lines, "\n")}, nil
}

func (a *App) processCommand(ctx context.Context, args []string) (CommandResult, error) {
	if len(args) != 1 {
		return CommandResult{Message: "Usage: process <feed_url>"}, nil
	}
	feedURL := args[0]
	rec, err := a.Process(ctx, feedURL)
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessing) {
			return CommandResult{Message: fmt.Sprintf("%s is already being processed.", feedURL)}, nil
		}
		return CommandResult{}, err
	}
	return CommandResult{Message: fmt.Sprintf("Processed %s.", feedURL), Record: &rec}, nil
}

func (a *App) peekCommand(ctx context.Context, args []string) (CommandResult, error) {
	if len(args) != 1 {
		return CommandResult{Message: "Usage: peek <feed_url>"}, nil
	}
	preview, err := feeds.Fetch(ctx, a.httpClient, a.config.UserAgent, args[0], 5)
	if err != nil {
		return CommandResult{}, err
	}

	var b strings.Builder
	title := preview.Title
	if title == "" {
		title = args[0]
	}
	b.WriteString(title)
	if preview.Author != "" {
		fmt.Fprintf(&b, " by %s", preview.Author)
	}
	fmt.Fprintf(&b, "\n%d episodes", preview.Total)
	for _, ep := range preview.Episodes {
		b.WriteString("\n  ")
		if ep.HasPublish {
			b.WriteString(ep.PublishedAt.Format("2006-01-02"))
			b.WriteString("  ")
		}
		b.WriteString(ep.Title)
	}
	return CommandResult{Message: b.String()}, nil
}

func (a *App) searchCommand(ctx context.Context, args []string) (CommandResult, error) {
	if len(args) == 0 {
		return CommandResult{Message: "Usage: search <query>"}, nil
	}

	term := strings.Join(args, " ")
	results, err := a.itunes.Search(ctx, term, 25)
	if err != nil {
		return CommandResult{}, err
	}

	type scoredShow struct {
		show  itunes.Show
		score float64
	}

	scored := make([]scoredShow, 0, len(results))
	for _, r := range results {
		score := fuzzy.Score(r.Title, term)
		if authorScore := fuzzy.Score(r.Author, term) * 0.5; authorScore > score {
			score = authorScore
		}
		if score > 0.3 {
			scored = append(scored, scoredShow{show: r, score: score})
		}
	}
	if len(scored) == 0 {
		return CommandResult{Message: "No podcasts found."}, nil
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > 10 {
		scored = scored[:10]
	}

	var b strings.Builder
	for i, s := range scored {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (%s)", s.show.Title, s.show.ID)
		if s.show.Author != "" {
			fmt.Fprintf(&b, " by %s", s.show.Author)
		}
		fmt.Fprintf(&b, "\n  %s", s.show.FeedURL)
	}
	return CommandResult{Message: b.String()}, nil
}

func (a *App) historyCommand(ctx context.Context, _ []string) (CommandResult, error) {
	subs, err := a.History(ctx)
	if err != nil {
		return CommandResult{}, err
	}
	if len(subs) == 0 {
		return CommandResult{Message: "No submissions yet."}, nil
	}

	lines := make([]string, len(subs))
	for i, s := range subs {
		line := fmt.Sprintf("#%d %s %-9s %s", s.ID, s.StartedAt.Local().Format("2006-01-02 15:04"), s.Status, s.FeedURL)
		switch s.Status {
		case domain.SubmissionSucceeded:
			line += fmt.Sprintf(" -> %q", s.ResultTitle)
		case domain.SubmissionFailed:
			line += ": " + s.Error
		}
		lines[i] = line
	}
	return CommandResult{Message: strings.Join(lines, "\n")}, nil
}

func (a *App) configCommand(ctx context.Context, args []string) (CommandResult, error) {
	if len(args) > 0 && strings.ToLower(args[0]) == "show" {
		shown := a.config
		if shown.ProcessorToken != "" {
			shown.ProcessorToken = "********"
		}
		data, err := yaml.Marshal(shown)
		if err != nil {
			return CommandResult{}, err
		}
		return CommandResult{Message: string(data)}, nil
	}
	return a.editConfig(ctx)
}

func (a *App) editConfig(ctx context.Context) (CommandResult, error) {
	updated, err := config.EditInteractive(ctx, a.config)
	if err != nil {
		return CommandResult{}, err
	}
	if err := config.Save(a.configPath, updated); err != nil {
		return CommandResult{}, err
	}
	a.config = updated
	log.Println("configuration updated")
	return CommandResult{Message: "Configuration saved. Restart to apply processor settings."}, nil
}

func (a *App) exitCommand(_ context.Context, _ []string) (CommandResult, error) {
	return CommandResult{Quit: true}, nil
}
