// Command surveyctl works with survey documents and a survey backend from the
// command line: it validates and previews exported documents, pushes and
// pulls surveys, shows analytics and can take a published survey.
package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/mbolis/surveyforge/client"
	"github.com/mbolis/surveyforge/database"
	"github.com/mbolis/surveyforge/localstore"
	"github.com/mbolis/surveyforge/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var version = "dev"

type globals struct {
	api      string
	user     string
	password string
	localDB  string
	debug    bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "surveyctl",
		Short:         "Manage surveys of a survey backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetOutput(cmd.ErrOrStderr())
			if g.debug {
				log.SetLevel(log.DebugLevel)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&g.api, "api", envOr("SURVEYCTL_API", "http://localhost/api"), "base URL of the survey API")
	flags.StringVar(&g.user, "user", envOr("SURVEYCTL_USER", "admin"), "admin user name")
	flags.StringVar(&g.password, "password", os.Getenv("SURVEYCTL_PASSWORD"), "admin password")
	flags.StringVar(&g.localDB, "local-db", "", "SQLite file keeping unsaved drafts and answers between runs")
	flags.BoolVar(&g.debug, "debug", false, "debug logging")

	root.AddCommand(
		newValidateCommand(g),
		newPreviewCommand(g),
		newListCommand(g),
		newPullCommand(g),
		newPushCommand(g),
		newAnalyticsCommand(g),
		newTakeCommand(g),
	)
	return root
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// client returns an API client, logged in when admin is set.
func (g *globals) client(ctx context.Context, admin bool) (*client.Client, error) {
	c := client.New(g.api)
	if !admin {
		return c, nil
	}
	if g.password == "" {
		return nil, errors.New("admin password required (--password or SURVEYCTL_PASSWORD)")
	}
	if err := c.Login(ctx, g.user, g.password); err != nil {
		return nil, errors.Wrap(err, "login")
	}
	return c, nil
}

// store opens the local store named by --local-db, or an in-memory one.
func (g *globals) store() (localstore.Store, func(), error) {
	if g.localDB == "" {
		return localstore.NewMemoryStore(), func() {}, nil
	}
	db, err := database.Open(g.localDB)
	if err != nil {
		return nil, nil, err
	}
	return localstore.NewSQLStore(db), func() { closeDB(db) }, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Warnf("surveyctl.local_db.close: %s", err)
	}
}
