package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/accountlink/internal/client/locale"
	"github.com/dmitrijs2005/accountlink/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// describe turns err into the line shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrNotAuthenticated):
		return "Please log in first"
	case errors.Is(err, common.ErrAlreadyLinked):
		return "This account is already linked"
	case errors.Is(err, common.ErrSameAccount):
		return "This account is already active"
	case errors.Is(err, common.ErrNotFound):
		return "No such linked account"
	case errors.Is(err, common.ErrNoCachedCredentials):
		return "This account must log in again"
	default:
		return string(common.UserMessage(err))
	}
}

func (a *App) report(ctx context.Context, op string, err error) {
	a.logger.Warn(ctx, op+" failed", "error", err)
	fmt.Fprintln(a.out, describe(err))
}

// Login prompts for credentials and logs in directly. The password is wiped
// before returning.
func (a *App) Login(ctx context.Context) error {
	phone, password, err := readCredentials(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	profile, err := a.auth.Login(ctx, phone, string(password))
	if err != nil {
		a.report(ctx, "login", err)
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", displayName(*profile))
	return nil
}

// AddAccount links another account without switching to it.
func (a *App) AddAccount(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.report(ctx, "add account", common.ErrNotAuthenticated)
		return common.ErrNotAuthenticated
	}

	phone, password, err := readCredentials(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	rec, err := a.auth.AddLinkedAccount(ctx, phone, string(password))
	if err != nil {
		a.report(ctx, "add account", err)
		return err
	}

	fmt.Fprintf(a.out, "Linked %s (%s)\n", rec.DisplayName, rec.AccountID)
	return nil
}

// Accounts prints the current group, master first. The active account is
// starred.
func (a *App) Accounts(ctx context.Context) error {
	list, err := a.auth.Accounts(ctx)
	if err != nil {
		a.report(ctx, "list accounts", err)
		return err
	}

	current := a.session.Current().AccountID
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, r := range list {
		mark := " "
		if r.AccountID == current {
			mark = "*"
		}
		role := r.Role
		if r.IsMaster() {
			role += " [master]"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", mark, r.AccountID, r.DisplayName, role)
	}
	return tw.Flush()
}

// Switch makes accountID the active account.
func (a *App) Switch(ctx context.Context, accountID string) error {
	if err := a.switcher.SwitchTo(ctx, accountID); err != nil {
		a.report(ctx, "switch", err)
		if !a.isLoggedIn() {
			fmt.Fprintln(a.out, "You are now logged out")
		}
		return err
	}

	s := a.session.Current()
	name := s.AccountID
	if s.Profile != nil {
		name = displayName(*s.Profile)
	}
	fmt.Fprintf(a.out, "Switched to %s\n", name)
	return nil
}

// Remove unlinks accountID from the device.
func (a *App) Remove(ctx context.Context, accountID string) error {
	if err := a.registry.RemoveAccount(ctx, accountID); err != nil {
		a.report(ctx, "remove account", err)
		return err
	}
	fmt.Fprintf(a.out, "Removed %s\n", accountID)
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "You are now logged out")
	}
	return nil
}

// Logout forgets the active session; linked accounts stay.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		a.report(ctx, "logout", err)
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	s := a.session.Current()
	if !s.Authenticated {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}

	name := s.AccountID
	role := ""
	if s.Profile != nil {
		name = displayName(*s.Profile)
		role = s.Profile.Role
	}
	how := "switched"
	if s.IsDirectLogin {
		how = "direct login"
	}
	fmt.Fprintf(a.out, "%s, %s, %s\n", name, role, how)
	return nil
}

// Locale stores the preferred UI language.
func (a *App) Locale(ctx context.Context, raw string) error {
	tag, err := a.auth.SetLocale(ctx, raw)
	if err != nil {
		a.report(ctx, "set locale", err)
		return err
	}
	a.locale = tag

	dir := "ltr"
	if locale.IsRTL(tag) {
		dir = "rtl"
	}
	fmt.Fprintf(a.out, "Language set to %s (%s)\n", tag, dir)
	return nil
}
