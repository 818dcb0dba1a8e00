package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/sampleapp/internal/app/models"
	"github.com/dmitrijs2005/sampleapp/internal/common"
)

// TokenEnv names the environment variable consulted when -token is not given.
const TokenEnv = "SAMPLEAPP_TOKEN"

type command struct {
	name    string
	usage   string
	summary string
	run     func(a *App, ctx context.Context, args []string) error
}

var commands = []command{
	{"migrate", "", "apply database migrations", (*App).cmdMigrate},
	{"register", "-name NAME -email EMAIL", "create a user", (*App).cmdRegister},
	{"login", "-email EMAIL", "sign in and print a remember token", (*App).cmdLogin},
	{"logout", "[-token T]", "revoke a remember token", (*App).cmdLogout},
	{"whoami", "[-token T]", "show the signed in user", (*App).cmdWhoami},
	{"passwd", "[-token T] [-name NAME] [-email EMAIL]", "change password, name or email", (*App).cmdPasswd},
	{"follow", "[-token T] -email EMAIL", "follow a user", (*App).cmdFollow},
	{"unfollow", "[-token T] -email EMAIL", "stop following a user", (*App).cmdUnfollow},
	{"follows", "[-token T] -email EMAIL", "tell whether you follow a user", (*App).cmdFollows},
	{"following", "[-token T] [-email EMAIL] [-limit N]", "list users followed", (*App).cmdFollowing},
	{"followers", "[-token T] [-email EMAIL] [-limit N]", "list followers", (*App).cmdFollowers},
	{"delete", "[-token T] -yes", "delete the signed in user and all its relationships", (*App).cmdDelete},
}

func (a *App) dispatch(ctx context.Context, name string, args []string) error {
	if name == "" || name == "help" {
		Usage(a.out)
		return nil
	}
	for _, c := range commands {
		if c.name == name {
			return c.run(a, ctx, args)
		}
	}
	Usage(a.out)
	return fmt.Errorf("unknown command %q", name)
}

// Usage prints the command summary to w.
func Usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: sampleapp [-c file] [-d dsn] [-r redis] [-m scheme] <command> [flags]")
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %-40s %s\n", c.name, c.usage, c.summary)
	}
}

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *App) currentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		token = os.Getenv(TokenEnv)
	}
	if token == "" {
		return nil, fmt.Errorf("not signed in: pass -token or set %s", TokenEnv)
	}

	u, err := a.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, fmt.Errorf("session is no longer valid, sign in again: %w", err)
		}
		return nil, err
	}
	return u, nil
}

func (a *App) askPassword(prompt string) (string, error) {
	pw, err := getPassword(a.in, a.out, prompt)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// readNewPassword asks for a password and its confirmation.
func (a *App) readNewPassword() (string, string, error) {
	p, err := a.askPassword("Password")
	if err != nil {
		return "", "", err
	}
	c, err := a.askPassword("Confirmation")
	if err != nil {
		return "", "", err
	}
	return p, c, nil
}

func (a *App) cmdMigrate(ctx context.Context, args []string) error {
	if err := a.migrate(ctx); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	fmt.Fprintln(a.out, "database is up to date")
	return nil
}

func (a *App) cmdRegister(ctx context.Context, args []string) error {
	fs := a.flagSet("register")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, c, err := a.readNewPassword()
	if err != nil {
		return err
	}

	u, err := a.credentials.Register(ctx, *name, *email, p, c)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("email %s has already been taken", *email)
		}
		return err
	}

	fmt.Fprintf(a.out, "registered %s <%s> (%s)\n", u.Name, u.Email, u.ID)
	return nil
}

func (a *App) cmdLogin(ctx context.Context, args []string) error {
	fs := a.flagSet("login")
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := a.askPassword("Password")
	if err != nil {
		return err
	}

	u, err := a.credentials.Authenticate(ctx, *email, p)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return errors.New("invalid email/password combination")
		}
		return err
	}

	token, err := a.sessions.SignIn(ctx, u)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, token)
	return nil
}

func (a *App) cmdLogout(ctx context.Context, args []string) error {
	fs := a.flagSet("logout")
	token := fs.String("token", os.Getenv(TokenEnv), "remember token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *token == "" {
		return fmt.Errorf("not signed in: pass -token or set %s", TokenEnv)
	}

	if err := a.sessions.SignOut(ctx, *token); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "signed out")
	return nil
}

func (a *App) cmdWhoami(ctx context.Context, args []string) error {
	fs := a.flagSet("whoami")
	token := fs.String("token", "", "remember token")
	if err := fs.Parse(args); err != nil {
		return err
	}

	u, err := a.currentUser(ctx, *token)
	if err != nil {
		return err
	}

	following, followers, err := a.graph.Counts(ctx, u)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "id:        %s\n", u.ID)
	fmt.Fprintf(a.out, "name:      %s\n", u.Name)
	fmt.Fprintf(a.out, "email:     %s\n", u.Email)
	fmt.Fprintf(a.out, "following: %d\n", following)
	fmt.Fprintf(a.out, "followers: %d\n", followers)
	return nil
}

func (a *App) cmdPasswd(ctx context.Context, args []string) error {
	fs := a.flagSet("passwd")
	token := fs.String("token", "", "remember token")
	name := fs.String("name", "", "new display name")
	email := fs.String("email", "", "new email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	u, err := a.currentUser(ctx, *token)
	if err != nil {
		return err
	}

	current, err := a.askPassword("Current password")
	if err != nil {
		return err
	}
	if _, err := a.credentials.Authenticate(ctx, u.Email, current); err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return errors.New("current password is wrong")
		}
		return err
	}

	p, c, err := a.readNewPassword()
	if err != nil {
		return err
	}

	newName, newEmail := u.Name, u.Email
	if *name != "" {
		newName = *name
	}
	if *email != "" {
		newEmail = *email
	}

	if err := a.credentials.Update(ctx, u, newName, newEmail, p, c); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("email %s has already been taken", newEmail)
		}
		return err
	}

	fmt.Fprintf(a.out, "updated %s <%s>\n", u.Name, u.Email)
	return nil
}

// edgeArgs parses -token and -email and resolves both users.
func (a *App) edgeArgs(ctx context.Context, name string, args []string) (*models.User, *models.User, error) {
	fs := a.flagSet(name)
	token := fs.String("token", "", "remember token")
	email := fs.String("email", "", "email of the other user")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if *email == "" {
		return nil, nil, errors.New("-email is required")
	}

	u, err := a.currentUser(ctx, *token)
	if err != nil {
		return nil, nil, err
	}

	other, err := a.credentials.FindByEmail(ctx, *email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, fmt.Errorf("no user with email %s", *email)
		}
		return nil, nil, err
	}
	return u, other, nil
}

func (a *App) cmdFollow(ctx context.Context, args []string) error {
	u, other, err := a.edgeArgs(ctx, "follow", args)
	if err != nil {
		return err
	}

	if _, err := a.graph.Follow(ctx, u, other); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("already following %s", other.Email)
		}
		return err
	}
	fmt.Fprintf(a.out, "now following %s\n", other.Email)
	return nil
}

func (a *App) cmdUnfollow(ctx context.Context, args []string) error {
	u, other, err := a.edgeArgs(ctx, "unfollow", args)
	if err != nil {
		return err
	}

	if err := a.graph.Unfollow(ctx, u, other); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("not following %s", other.Email)
		}
		return err
	}
	fmt.Fprintf(a.out, "no longer following %s\n", other.Email)
	return nil
}

func (a *App) cmdFollows(ctx context.Context, args []string) error {
	u, other, err := a.edgeArgs(ctx, "follows", args)
	if err != nil {
		return err
	}

	_, err = a.graph.IsFollowing(ctx, u, other)
	switch {
	case err == nil:
		fmt.Fprintln(a.out, "yes")
	case errors.Is(err, common.ErrorNotFound):
		fmt.Fprintln(a.out, "no")
	default:
		return err
	}
	return nil
}

func (a *App) cmdFollowing(ctx context.Context, args []string) error {
	return a.list(ctx, "following", args)
}

func (a *App) cmdFollowers(ctx context.Context, args []string) error {
	return a.list(ctx, "followers", args)
}

// list prints one side of the graph for the signed in user, or for the
// user named by -email.
func (a *App) list(ctx context.Context, name string, args []string) error {
	fs := a.flagSet(name)
	token := fs.String("token", "", "remember token")
	email := fs.String("email", "", "list for this user instead")
	limit := fs.Int("limit", common.DefaultLimit, "print at most this many users")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit < 1 {
		return fmt.Errorf("-limit must be at least 1, got %d", *limit)
	}

	var (
		u   *models.User
		err error
	)
	if *email != "" {
		u, err = a.credentials.FindByEmail(ctx, *email)
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("no user with email %s", *email)
		}
	} else {
		u, err = a.currentUser(ctx, *token)
	}
	if err != nil {
		return err
	}

	seq := a.graph.Following(ctx, u)
	if name == "followers" {
		seq = a.graph.Followers(ctx, u)
	}

	n := 0
	for other, err := range seq {
		if err != nil {
			return err
		}
		if n == *limit {
			fmt.Fprintf(a.out, "first %d %s shown\n", n, plural(n, "user"))
			return nil
		}
		fmt.Fprintf(a.out, "%s <%s>\n", other.Name, other.Email)
		n++
	}
	fmt.Fprintf(a.out, "%d %s\n", n, plural(n, "user"))
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func (a *App) cmdDelete(ctx context.Context, args []string) error {
	fs := a.flagSet("delete")
	token := fs.String("token", "", "remember token")
	yes := fs.Bool("yes", false, "confirm deletion")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("refusing to delete without -yes")
	}

	u, err := a.currentUser(ctx, *token)
	if err != nil {
		return err
	}

	if err := a.graph.DeleteUser(ctx, u); err != nil {
		return err
	}
	if err := a.sessions.SignOutEverywhere(ctx, u.ID); err != nil {
		a.logger.Warn(ctx, "sessions not revoked after delete", "user_id", u.ID, "error", err)
	}

	fmt.Fprintf(a.out, "deleted %s\n", u.Email)
	return nil
}
