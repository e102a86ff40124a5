package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) AddAccount(ctx context.Context) error {
	f.calls = append(f.calls, "add")
	return nil
}
func (f *fakeExec) Accounts(ctx context.Context) error {
	f.calls = append(f.calls, "accounts")
	return nil
}
func (f *fakeExec) Switch(ctx context.Context, accountID string) error {
	f.calls = append(f.calls, "switch")
	f.args = append(f.args, accountID)
	return nil
}
func (f *fakeExec) Remove(ctx context.Context, accountID string) error {
	f.calls = append(f.calls, "remove")
	f.args = append(f.args, accountID)
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) WhoAmI(ctx context.Context) error {
	f.calls = append(f.calls, "whoami")
	return nil
}
func (f *fakeExec) Locale(ctx context.Context, raw string) error {
	f.calls = append(f.calls, "locale")
	f.args = append(f.args, raw)
	return nil
}

func silencePrint(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, 0, len(a))
		for _, v := range a {
			if s, ok := v.(string); ok {
				parts = append(parts, s)
			}
		}
		lines = append(lines, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &lines
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	silencePrint(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"help",
		"add",
		"l",
		"switch 1002",
		"whoami",
		"remove 1003",
		"locale ar",
		"logout",
		"foobar",
		"exit",
		"login",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewReader(input))

	assert.Equal(t, []string{"login", "add", "accounts", "switch", "whoami", "remove", "locale", "logout"}, exec.calls)
	assert.Equal(t, []string{"1002", "1003", "ar"}, exec.args)
}

func TestRunREPL_UsageAndEOF(t *testing.T) {
	lines := silencePrint(t)

	input := strings.NewReader("switch\nremove a b\nlocale\n\n   \nwhoami")
	exec := &fakeExec{loggedIn: true}

	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewReader(input))

	assert.Equal(t, []string{"whoami"}, exec.calls, "last line without newline still runs")
	assert.Contains(t, *lines, "Usage: switch <account id>")
	assert.Contains(t, *lines, "Usage: remove <account id>")
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	silencePrint(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := &fakeExec{}

	runREPL(ctx, exec, func() string { return "s" }, bufio.NewReader(strings.NewReader("login\n")))

	assert.Empty(t, exec.calls)
}
