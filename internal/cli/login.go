package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"github.com/bharadwajkrishnan/finai/internal/adapter/backend"
	"github.com/bharadwajkrishnan/finai/internal/adapter/repository/sqlstore"
	"github.com/bharadwajkrishnan/finai/internal/domain"
)

// loginCmd stores the backend session tokens the tracker sends on every call
type loginCmd struct {
	app     *App
	access  string
	refresh string
	logout  bool
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "store backend session tokens" }
func (*loginCmd) Usage() string {
	return `finai login -access <token> [-refresh <token>]
finai login -logout

  Saves the access and refresh tokens issued by the FinAI backend in the tracker store,
  or removes them with -logout. Run 'finai refresh' afterwards to load assets.
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.access, "access", "", "Access token")
	f.StringVar(&c.refresh, "refresh", "", "Refresh token")
	f.BoolVar(&c.logout, "logout", false, "Remove the stored tokens")
}

func (c *loginCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.logout == (c.access != "") {
		fmt.Fprintln(c.app.Err, c.Usage())
		return subcommands.ExitUsageError
	}

	db, err := sqlstore.NewDB(c.app.DBDriver, c.app.DBConnStr)
	if err != nil {
		return c.app.fail(err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return c.app.fail(err)
	}
	tokens := sqlstore.NewTokenRepository(db)

	if c.logout {
		if err := tokens.Clear(ctx); err != nil {
			return c.app.fail(err)
		}
		fmt.Fprintln(c.app.Out, "Logged out.")
		return subcommands.ExitSuccess
	}

	if exp := backend.TokenExpiry(c.access); !exp.IsZero() && !exp.After(time.Now()) {
		fmt.Fprintf(c.app.Err, "Access token expired at %s\n", exp.Format(time.RFC3339))
		return subcommands.ExitFailure
	}

	if err := tokens.Set(ctx, domain.Tokens{AccessToken: c.access, RefreshToken: c.refresh}); err != nil {
		return c.app.fail(err)
	}

	if exp := backend.TokenExpiry(c.access); !exp.IsZero() {
		fmt.Fprintf(c.app.Out, "Logged in until %s.\n", exp.Local().Format(time.RFC1123))
	} else {
		fmt.Fprintln(c.app.Out, "Logged in.")
	}
	return subcommands.ExitSuccess
}
