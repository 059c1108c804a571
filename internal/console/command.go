package console

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/logbook/internal/aggregate"
	"github.com/MrSnakeDoc/logbook/internal/domain"
)

// Action is what a command line asks for.
type Action int

const (
	ActionNone Action = iota
	ActionSearch
	ActionDeleteEntry
	ActionDeleteDay
	ActionClearAll
	ActionProject
	ActionQuit
)

// Command is one parsed stdin line.
type Command struct {
	Action Action
	Arg    string
}

// Help lists the commands understood by ParseCommand.
const Help = `commands:
  /<text>        filter entries (3+ characters)
  /              clear the filter
  rm <entry-id>  delete one entry
  day <label>    delete a day, e.g. "day Jun 3"
  clear          delete every entry of the project
  project <ref>  switch project (name or id)
  q              quit`

// ParseCommand parses one line typed by the user.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Action: ActionNone}, nil
	}
	if strings.HasPrefix(line, "/") {
		return Command{Action: ActionSearch, Arg: strings.TrimSpace(line[1:])}, nil
	}

	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(verb) {
	case "q", "quit", "exit":
		return Command{Action: ActionQuit}, nil
	case "clear":
		return Command{Action: ActionClearAll}, nil
	case "rm", "del":
		if arg == "" {
			return Command{}, fmt.Errorf("%s needs an entry id", verb)
		}
		return Command{Action: ActionDeleteEntry, Arg: arg}, nil
	case "day":
		if arg == "" {
			return Command{}, fmt.Errorf("day needs a label")
		}
		return Command{Action: ActionDeleteDay, Arg: arg}, nil
	case "project", "p":
		if arg == "" {
			return Command{}, fmt.Errorf("project needs a name or id")
		}
		return Command{Action: ActionProject, Arg: arg}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q", verb)
}

// FindEntry resolves an id or unique id prefix against the shown view.
func FindEntry(buckets aggregate.Buckets, prefix string) (string, error) {
	var found []string
	for _, bucket := range buckets {
		for _, e := range bucket.Entries {
			if e.ID == prefix {
				return e.ID, nil
			}
			if strings.HasPrefix(e.ID, prefix) {
				found = append(found, e.ID)
			}
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no entry matches %q", prefix)
	case 1:
		return found[0], nil
	}
	return "", fmt.Errorf("%q matches %d entries", prefix, len(found))
}

// ResolveProject finds a project by id, then by exact name, then by
// case-insensitive name.
func ResolveProject(projects []*domain.Project, ref string) (*domain.Project, error) {
	ref = strings.TrimSpace(ref)
	for _, p := range projects {
		if p.ID == ref {
			return p, nil
		}
	}
	for _, p := range projects {
		if p.Name == ref {
			return p, nil
		}
	}
	var match *domain.Project
	for _, p := range projects {
		if strings.EqualFold(p.Name, ref) {
			if match != nil {
				return nil, fmt.Errorf("project %q is ambiguous", ref)
			}
			match = p
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: project %q", domain.ErrNotFound, ref)
	}
	return match, nil
}
