package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/buddyread/buddyread-server/internal/config"
	"github.com/buddyread/buddyread-server/internal/logger"
	"github.com/buddyread/buddyread-server/internal/service"
	"github.com/buddyread/buddyread-server/internal/store/sqlite"
)

type rootOptions struct {
	envFile  string
	dataPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "buddyctl",
		Short:         "Manage BuddyRead users, clubs and invites",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Path to .env file")
	cmd.PersistentFlags().StringVar(&opts.dataPath, "data-path", "", "Base path for data storage (default: DATA_PATH or ~/BuddyRead/data)")

	cmd.AddCommand(
		newUserCommand(opts),
		newClubCommand(opts),
		newInviteCommand(opts),
	)
	return cmd
}

// env is the set of services a command runs against.
type env struct {
	cfg     *config.Config
	store   *sqlite.Store
	auth    *service.AuthService
	clubs   *service.ClubService
	invites *service.InviteService
}

// openEnv loads configuration the same way the server does and opens the
// relational store. Sessions are not touched, so the server may keep running.
func (o *rootOptions) openEnv(cmd *cobra.Command) (*env, error) {
	args := []string{"-env-file", o.envFile}
	if o.dataPath != "" {
		args = append(args, "-data-path", o.dataPath)
	}
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Writer:      cmd.ErrOrStderr(),
		Level:       slog.LevelWarn,
		Environment: cfg.App.Environment,
	})

	st, err := sqlite.Open(cfg.Data.DatabasePath(), log.Logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	perms := service.NewPermissionService(st)
	return &env{
		cfg:     cfg,
		store:   st,
		auth:    service.NewAuthService(st, nil, nil, log.Logger),
		clubs:   service.NewClubService(st, perms, nil, log.Logger),
		invites: service.NewInviteService(st, perms, nil, nil, log.Logger, cfg.Server.BaseURL, cfg.Invite.TTL),
	}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

// userID resolves a username to its ID.
func (e *env) userID(ctx context.Context, username string) (int64, error) {
	user, err := e.store.GetUserByUsername(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("user %q: %w", username, err)
	}
	return user.ID, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
