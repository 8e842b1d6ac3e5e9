// Package dependency wires cronkeeper services using go.uber.org/dig.
package dependency

import (
	"fmt"
	"log/slog"

	"go.uber.org/dig"

	"github.com/crystaldolphin/cronkeeper/internal/config"
	"github.com/crystaldolphin/cronkeeper/internal/cron"
	"github.com/crystaldolphin/cronkeeper/internal/crontab"
	"github.com/crystaldolphin/cronkeeper/internal/httpapi"
	"github.com/crystaldolphin/cronkeeper/internal/schedule"
)

// Container holds the resolved service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	cfg    *config.Config
	store  crontab.Store
	repo   *cron.Repository
	parser *schedule.Parser
	server *httpapi.Server
}

func (c *Container) Config() *config.Config       { return c.cfg }
func (c *Container) Store() crontab.Store         { return c.store }
func (c *Container) Repository() *cron.Repository { return c.repo }
func (c *Container) Parser() *schedule.Parser     { return c.parser }
func (c *Container) HTTPServer() *httpapi.Server  { return c.server }

// New builds and wires all services from cfg. A nil logger uses slog.Default().
func New(cfg *config.Config, log *slog.Logger) (*Container, error) {
	if log == nil {
		log = slog.Default()
	}

	d := dig.New()

	providers := []any{
		func() *config.Config { return cfg },
		func() *slog.Logger { return log },
		newStore,
		newLoader,
		cron.NewRepository,
		schedule.DefaultParser,
		newHTTPServer,
	}
	for _, p := range providers {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		store crontab.Store,
		repo *cron.Repository,
		parser *schedule.Parser,
		server *httpapi.Server,
	) {
		result = &Container{
			cfg:    cfg,
			store:  store,
			repo:   repo,
			parser: parser,
			server: server,
		}
	})
	return result, err
}

func newStore(cfg *config.Config) (crontab.Store, error) {
	switch cfg.Table.Backend {
	case config.BackendUser, "":
		return &crontab.UserStore{Binary: cfg.Table.Binary, User: cfg.Table.User}, nil
	case config.BackendFile:
		if cfg.Table.Path == "" {
			return nil, fmt.Errorf("table.path is required for the %q backend", config.BackendFile)
		}
		return &crontab.FileStore{Path: cfg.Table.Path}, nil
	default:
		return nil, fmt.Errorf("unknown table backend %q", cfg.Table.Backend)
	}
}

func newLoader(store crontab.Store) cron.Loader {
	return crontab.NewLoader(store)
}

func newHTTPServer(
	cfg *config.Config,
	repo *cron.Repository,
	parser *schedule.Parser,
	log *slog.Logger,
) *httpapi.Server {
	return httpapi.New(repo, parser, httpapi.Options{
		ManagedOnly: cfg.ManagedOnly,
		Transport:   cfg.Transport,
	}, log)
}
