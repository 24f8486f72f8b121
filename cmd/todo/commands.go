package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/store"
)

const usage = `usage: todo [--config path] [command]

Without a command the interactive task list starts.

commands:
  add <text...>         add a task
  ls [all|active|completed]
                        list tasks, newest first
  done <id>             toggle a task's completed state
  edit <id> <text...>   replace a task's text (empty text deletes it)
  rm <id>               delete a task
  clear                 delete all completed tasks
  left                  print the number of tasks left

ids may be shortened to a unique prefix or suffix; the
last few characters of an id are random.`

var errUsage = errors.New("invalid arguments\n" + usage)

// runCommand executes one scriptable command against s
func runCommand(s *store.Store, args []string, out io.Writer) error {
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		fmt.Fprintln(out, usage)
		return nil

	case "add":
		task, ok := s.AddTask(strings.Join(rest, " "))
		if !ok {
			return errors.New("task text is empty")
		}
		fmt.Fprintln(out, task.ID)

	case "ls", "list":
		filter := models.FilterAll
		if len(rest) > 0 {
			var err error
			if filter, err = models.ParseFilter(rest[0]); err != nil {
				return err
			}
		}
		for _, t := range s.ListTasks(filter) {
			check := "[ ]"
			if t.Completed {
				check = "[x]"
			}
			fmt.Fprintf(out, "%s %s  %s  (%s)\n", check, t.ID, t.Text, t.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(out, "%d task(s) left\n", s.RemainingCount())
		return nil

	case "done", "toggle":
		if len(rest) != 1 {
			return errUsage
		}
		id, err := resolveID(s, rest[0])
		if err != nil {
			return err
		}
		s.ToggleComplete(id)

	case "edit":
		if len(rest) < 1 {
			return errUsage
		}
		id, err := resolveID(s, rest[0])
		if err != nil {
			return err
		}
		s.EditTask(id, strings.Join(rest[1:], " "))

	case "rm", "delete":
		if len(rest) != 1 {
			return errUsage
		}
		id, err := resolveID(s, rest[0])
		if err != nil {
			return err
		}
		s.DeleteTask(id)

	case "clear":
		fmt.Fprintf(out, "cleared %d completed task(s)\n", s.ClearCompleted())

	case "left":
		fmt.Fprintln(out, s.RemainingCount())
		return nil

	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}

	// The store keeps working in memory when storage fails; a one-shot
	// command would lose the change on exit, so report it.
	if err := s.LastError(); err != nil {
		return fmt.Errorf("changes not saved: %w", err)
	}
	return nil
}

// resolveID accepts a full id or a unique prefix or suffix of one.
// Ids start with a timestamp, so suffixes are the useful short form.
func resolveID(s *store.Store, ref string) (string, error) {
	if ref == "" {
		return "", errors.New("empty task id")
	}
	if _, ok := s.Get(ref); ok {
		return ref, nil
	}

	var matches []string
	for _, t := range s.ListTasks(models.FilterAll) {
		if strings.HasPrefix(t.ID, ref) || strings.HasSuffix(t.ID, ref) {
			matches = append(matches, t.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no task with id %q", ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id %q is ambiguous (%d tasks match)", ref, len(matches))
	}
}
