package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/classmarket/tutorchat/internal/api"
	"github.com/classmarket/tutorchat/internal/chat"
	"github.com/classmarket/tutorchat/internal/config"
	"github.com/classmarket/tutorchat/internal/db"
	"github.com/classmarket/tutorchat/internal/logging"
)

// App bundles the wired collaborators a command needs: loaded config,
// the REST client, the persisted session and the optional local cache.
type App struct {
	Config   *config.Config
	Client   *api.Client
	Sessions *config.SessionStore
	Session  *config.Session

	cacheDB *db.DB
	cache   *db.MessageCache
}

// newApp loads configuration, initializes logging and builds the REST
// client. The cache database is opened lazily via Cache.
func newApp(cmd *cobra.Command) (*App, error) {
	configFile, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, Exitf(ExitCodeFailure, "load config: %v", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: resolveLogFormat(cfg.Logging.Format),
	})

	client, err := api.NewClient(api.Config{
		BaseURL:     cfg.API.BaseURL,
		Credentials: chat.StaticCredential(cfg.Auth.Token),
		Timeout:     cfg.Timeout(),
	})
	if err != nil {
		return nil, Exitf(ExitCodeFailure, "init api client: %v", err)
	}

	sessions := config.DefaultSessionStore()
	session, err := sessions.Load()
	if err != nil {
		return nil, Exitf(ExitCodeFailure, "load session: %v", err)
	}

	return &App{
		Config:   cfg,
		Client:   client,
		Sessions: sessions,
		Session:  session,
	}, nil
}

// ViewerID resolves the acting user: persisted session first, then the
// configured auth user.
func (a *App) ViewerID() string {
	if id := strings.TrimSpace(a.Session.UserID); id != "" {
		return id
	}
	return strings.TrimSpace(a.Config.Auth.UserID)
}

// Cache returns the local message cache, opening it on first use.
// Returns nil when the cache is disabled.
func (a *App) Cache() (*db.MessageCache, error) {
	if !a.Config.Cache.Enabled {
		return nil, nil
	}
	if a.cache != nil {
		return a.cache, nil
	}
	database, err := db.Open(a.Config.Cache.Path)
	if err != nil {
		return nil, Exitf(ExitCodeFailure, "open cache: %v", err)
	}
	a.cacheDB = database
	a.cache = db.NewMessageCache(database)
	return a.cache, nil
}

// Close releases the cache database if it was opened.
func (a *App) Close() {
	if a.cacheDB != nil {
		_ = a.cacheDB.Close()
		a.cacheDB = nil
		a.cache = nil
	}
}

func resolveLogFormat(format string) string {
	if format != "auto" {
		return format
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return "console"
	}
	return "json"
}
