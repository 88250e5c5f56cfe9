package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	syncEnabled() bool
	Add(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Status(ctx context.Context) error
	Sync(ctx context.Context) error
	Resolve(ctx context.Context, args []string) error
	CancelDecision(ctx context.Context) error
	Token(ctx context.Context) error
	Logout(ctx context.Context) error
}

const (
	helpLocal = "Available commands: add <kind>, (l)ist <kind>, show <kind> <id>, edit <kind> <id>, delete <kind> <id>, status, token, exit"
	helpSync  = "Available commands: add <kind>, (l)ist <kind>, show <kind> <id>, edit <kind> <id>, delete <kind> <id>, status, sync, resolve <local|remote|merge>, cancel, token, logout, exit"
	helpKinds = "Kinds: resource (r), question (q), subquestion (sq), answer (a)"
)

// runREPL starts a simple read–eval–print loop for the gistkeeper CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a' with the remaining tokens as arguments.
// Unknown commands are reported back to the user. The loop exits on EOF,
// when ctx is done, or when the user types "exit" or "quit".
//
// Errors returned by command handlers are ignored here; handlers print
// their own messages. This keeps the loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("gk %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.syncEnabled() {
				printlnFn(helpSync)
			} else {
				printlnFn(helpLocal)
			}
			printlnFn(helpKinds)

		case "add":
			_ = a.Add(ctx, args)

		case "l", "list":
			_ = a.List(ctx, args)

		case "show":
			_ = a.Show(ctx, args)

		case "edit":
			_ = a.Edit(ctx, args)

		case "delete", "rm":
			_ = a.Delete(ctx, args)

		case "status":
			_ = a.Status(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "resolve":
			_ = a.Resolve(ctx, args)

		case "cancel":
			_ = a.CancelDecision(ctx)

		case "token":
			_ = a.Token(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
