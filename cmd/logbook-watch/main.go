package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/MrSnakeDoc/logbook/internal/client"
	"github.com/MrSnakeDoc/logbook/internal/console"
	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/MrSnakeDoc/logbook/internal/logger"
	"github.com/MrSnakeDoc/logbook/internal/version"
	"github.com/MrSnakeDoc/logbook/internal/view"
)

const clearScreen = "\033[H\033[2J"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ logbook-watch: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = pflag.StringP("config", "c", console.DefaultPath(), "settings file")
		server      = pflag.StringP("server", "s", "", "logbook server address")
		project     = pflag.StringP("project", "p", "", "project name or id")
		search      = pflag.StringP("search", "q", "", "initial filter")
		debug       = pflag.Bool("debug", false, "log connection details to stderr")
		showVersion = pflag.BoolP("version", "v", false, "print version and exit")
	)
	pflag.Parse()

	if *showVersion {
		fmt.Println("logbook-watch", version.String())
		return nil
	}

	cfg, err := console.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if pflag.CommandLine.Changed("server") {
		cfg.Server = *server
	}
	if pflag.CommandLine.Changed("project") {
		cfg.Project = *project
	}
	if pflag.CommandLine.Changed("search") {
		cfg.Search = *search
	}
	if cfg.Project == "" {
		return errors.New("no project given, use --project or set project in the settings file")
	}

	level := "warn"
	if *debug {
		level = "debug"
	}
	log := logger.New(level, true)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api, err := client.NewClient(cfg.Server)
	if err != nil {
		return err
	}

	current, err := resolveProject(ctx, api, cfg.Project)
	if err != nil {
		return err
	}

	w := client.NewWatcher(api, current.ID, client.WatcherOptions{Logger: log})
	w.SetSearch(cfg.Search)

	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("watcher stopped", logger.Error(err))
		}
	}()

	lines := make(chan string)
	go readLines(ctx, lines)

	r := console.NewRenderer(cfg)
	s := &session{ctx: ctx, api: api, w: w, project: current, search: cfg.Search}

	for {
		s.draw(r)
		select {
		case <-ctx.Done():
			return nil
		case <-w.Updates():
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if s.handle(line) {
				return nil
			}
		}
	}
}

type session struct {
	ctx     context.Context
	api     *client.Client
	w       *client.Watcher
	project *domain.Project
	search  string
	status  string
}

func (s *session) draw(r *console.Renderer) {
	screen := console.Screen{
		Project: s.project.Name,
		Search:  s.search,
		Loading: s.w.State() == view.Empty,
		Err:     s.w.Err(),
		Buckets: s.w.View(),
	}
	fmt.Print(clearScreen)
	fmt.Print(r.Render(screen))
	if s.status != "" {
		fmt.Println()
		fmt.Println(r.Styles.Warning.Render(s.status))
	}
	fmt.Print("> ")
}

// handle applies one command line and reports whether to quit.
func (s *session) handle(line string) bool {
	s.status = ""

	cmd, err := console.ParseCommand(line)
	if err != nil {
		s.status = err.Error() + "\n" + console.Help
		return false
	}

	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	switch cmd.Action {
	case console.ActionQuit:
		return true
	case console.ActionSearch:
		s.search = cmd.Arg
		s.w.SetSearch(cmd.Arg)
	case console.ActionDeleteEntry:
		id, err := console.FindEntry(s.w.View(), cmd.Arg)
		if err != nil {
			s.status = err.Error()
			return false
		}
		if err := s.w.DeleteEntry(ctx, id); err != nil {
			s.status = fmt.Sprintf("delete %s: %v", id, err)
		}
	case console.ActionDeleteDay:
		n, err := s.w.DeleteDay(ctx, cmd.Arg)
		if err != nil {
			s.status = fmt.Sprintf("delete day %s: %v", cmd.Arg, err)
			return false
		}
		s.status = fmt.Sprintf("deleted %d entries from %s", n, cmd.Arg)
	case console.ActionClearAll:
		n, err := s.w.ClearAll(ctx)
		if err != nil {
			s.status = fmt.Sprintf("clear: %v", err)
			return false
		}
		s.status = fmt.Sprintf("deleted %d entries", n)
	case console.ActionProject:
		p, err := resolveProject(ctx, s.api, cmd.Arg)
		if err != nil {
			s.status = err.Error()
			return false
		}
		s.project = p
		s.w.SetProject(s.ctx, p.ID)
	}
	return false
}

func resolveProject(ctx context.Context, api *client.Client, ref string) (*domain.Project, error) {
	projects, err := api.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	p, err := console.ResolveProject(projects, ref)
	if err != nil {
		if client.IsNotFound(err) {
			return nil, fmt.Errorf("unknown project %q", ref)
		}
		return nil, err
	}
	return p, nil
}

func readLines(ctx context.Context, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case out <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
}
