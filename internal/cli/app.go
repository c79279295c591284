// Package cli wires configuration, stores and the hybrid repository into
// the millkeeper commands.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/millkeeper/internal/archive"
	"github.com/dmitrijs2005/millkeeper/internal/auth"
	"github.com/dmitrijs2005/millkeeper/internal/config"
	"github.com/dmitrijs2005/millkeeper/internal/filex"
	"github.com/dmitrijs2005/millkeeper/internal/logging"
	"github.com/dmitrijs2005/millkeeper/internal/remotestore"
	"github.com/dmitrijs2005/millkeeper/internal/repository"
	"github.com/dmitrijs2005/millkeeper/internal/timex"
)

// App is the assembled application shared by every command.
type App struct {
	cfg    *config.Config
	logger logging.Logger
	cal    *timex.Calendar
	repo   *repository.HybridRepository

	in  *bufio.Reader
	out io.Writer

	closers []func() error
}

// Streams are the terminal streams bound to a command.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// NewApp signs in and opens both stores. Credentials missing from the
// configuration are prompted for.
func NewApp(ctx context.Context, cfg *config.Config, s Streams) (*App, error) {
	logger, err := logging.New(cfg.Log.Format, cfg.Log.Level, s.Err)
	if err != nil {
		return nil, err
	}
	cal, err := timex.LoadCalendar(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		cal:    cal,
		in:     bufio.NewReader(s.In),
		out:    s.Out,
	}
	if z, ok := logger.(*logging.ZapLogger); ok {
		a.closers = append(a.closers, func() error { _ = z.Sync(); return nil })
	}

	session, err := a.login(ctx, s.Err)
	if err != nil {
		return nil, err
	}
	remote := remotestore.New(cfg.DatabaseURL, cfg.Collection, session.Token, cfg.RequestTimeout(), logger)

	archivePath, err := filex.EnsureParentDir(cfg.ArchiveDB)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare archive: %w", err)
	}
	local, err := archive.Open(ctx, archivePath, cal, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, local.Close)

	a.repo = repository.New(remote, local, cal, repository.Options{
		HybridDays:    cfg.HybridDays,
		RetentionDays: cfg.RetentionDays,
	}, logger)
	return a, nil
}

// newAppFromParts assembles an App around an existing repository.
func newAppFromParts(cfg *config.Config, logger logging.Logger, cal *timex.Calendar,
	repo *repository.HybridRepository, in io.Reader, out io.Writer) *App {
	return &App{cfg: cfg, logger: logger, cal: cal, repo: repo, in: bufio.NewReader(in), out: out}
}

func (a *App) login(ctx context.Context, prompt io.Writer) (*auth.Session, error) {
	email := a.cfg.Auth.Email
	if email == "" {
		var err error
		if email, err = GetSimpleText(a.in, "Email", prompt); err != nil {
			return nil, fmt.Errorf("failed to read email: %w", err)
		}
	}
	password := a.cfg.Auth.Password
	if password == "" {
		var err error
		if password, err = GetPassword(prompt); err != nil {
			return nil, err
		}
	}

	client := auth.NewClient(auth.Config{
		APIKey:         a.cfg.APIKey,
		IdentityURL:    a.cfg.Auth.IdentityURL,
		SecureTokenURL: a.cfg.Auth.SecureTokenURL,
		Timeout:        a.cfg.RequestTimeout(),
	}, a.logger)

	session, err := auth.Login(ctx, client, email, password, a.logger)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return session, nil
}

// Close releases the stores.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
