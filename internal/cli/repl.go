package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isUnlocked() bool
	Init(ctx context.Context, args []string) error
	Unlock(ctx context.Context, args []string) error
	Lock(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Backup(ctx context.Context, args []string) error
	Rotate(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
}

const (
	helpLocked   = "Available commands: init, unlock, status, help, exit"
	helpUnlocked = "Available commands: add, show <id>, edit <id>, delete <id>, (l)ist, export <file>, backup, rotate [rollback], lock, status, help, exit"
)

// runREPL reads commands from r until EOF, "exit" or "quit".
//
// The first token of a line selects the command and the rest are passed as
// arguments. Handler errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, r *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "credvault (%s)> ", statusFn())
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var handler func(context.Context, []string) error
		switch cmd {
		case "help":
			if a.isUnlocked() {
				fmt.Fprintln(w, helpUnlocked)
			} else {
				fmt.Fprintln(w, helpLocked)
			}
			continue
		case "init":
			handler = a.Init
		case "unlock":
			handler = a.Unlock
		case "lock":
			handler = a.Lock
		case "add":
			handler = a.Add
		case "show":
			handler = a.Show
		case "edit":
			handler = a.Edit
		case "delete":
			handler = a.Delete
		case "l", "list":
			handler = a.List
		case "export":
			handler = a.Export
		case "backup":
			handler = a.Backup
		case "rotate":
			handler = a.Rotate
		case "status":
			handler = a.Status
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
			continue
		}

		if err := handler(ctx, args); err != nil {
			fmt.Fprintln(w, "Error:", err)
		}
	}
}
