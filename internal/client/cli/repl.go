package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	AddAccount(ctx context.Context) error
	Accounts(ctx context.Context) error
	Switch(ctx context.Context, accountID string) error
	Remove(ctx context.Context, accountID string) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Locale(ctx context.Context, raw string) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// It returns on EOF, on "exit"/"quit" or when ctx is done.
//
// Commands:
//
//	Not logged in:
//	  help, login, accounts, switch <id>, remove <id>, whoami, locale <tag>, exit
//
//	Logged in, additionally:
//	  add        link another account
//	  logout     forget the active session
//
// Handler errors are ignored here; handlers report them to the user.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("al %s > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: add, (l)ist, switch <id>, remove <id>, whoami, locale <tag>, logout, exit")
			} else {
				printlnFn("Available commands: login, (l)ist, switch <id>, remove <id>, locale <tag>, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "add":
			_ = a.AddAccount(ctx)

		case "l", "list", "accounts":
			_ = a.Accounts(ctx)

		case "switch":
			if len(args) != 1 {
				printlnFn("Usage: switch <account id>")
				continue
			}
			_ = a.Switch(ctx, args[0])

		case "remove":
			if len(args) != 1 {
				printlnFn("Usage: remove <account id>")
				continue
			}
			_ = a.Remove(ctx, args[0])

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "locale":
			if len(args) != 1 {
				printlnFn("Usage: locale <tag>, for example: locale ar")
				continue
			}
			_ = a.Locale(ctx, args[0])

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
