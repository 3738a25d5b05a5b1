package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stwalsh4118/grownby/internal/auth"
	"github.com/stwalsh4118/grownby/internal/backend"
	"github.com/stwalsh4118/grownby/internal/backend/memory"
	"github.com/stwalsh4118/grownby/internal/backend/remote"
	"github.com/stwalsh4118/grownby/internal/config"
	"github.com/stwalsh4118/grownby/internal/farms"
	"github.com/stwalsh4118/grownby/internal/forms"
	"github.com/stwalsh4118/grownby/internal/kv"
	"github.com/stwalsh4118/grownby/internal/logger"
	"github.com/stwalsh4118/grownby/internal/media"
	"github.com/stwalsh4118/grownby/internal/navigator"
	"github.com/stwalsh4118/grownby/internal/screens"
	"github.com/stwalsh4118/grownby/internal/session"
	"github.com/stwalsh4118/grownby/internal/tui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(run).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the grownby command. runApp receives the loaded
// configuration.
func newRootCmd(runApp func(ctx context.Context, cfg *config.AppConfig) error) *cobra.Command {
	v := config.NewAppViper()

	cmd := &cobra.Command{
		Use:           "grownby",
		Short:         "Browse and register farms",
		Long:          "grownby lists the farms registered with a GrownBy backend and lets signed-in users add new ones.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadApp(v)
			if err != nil {
				return err
			}
			return runApp(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("backend", v.GetString("backend"), "GrownBy backend base URL")
	flags.String("data-dir", v.GetString("data-dir"), "directory for the session database and log")
	flags.Bool("offline", false, "use an in-process backend instead of the server")
	flags.String("env", v.GetString("env"), "environment: development or production")

	for _, name := range []string{"backend", "data-dir", "offline", "env"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
	return cmd
}

func run(ctx context.Context, cfg *config.AppConfig) error {
	return runWith(ctx, cfg, func(ctx context.Context, deps tui.Deps) error {
		return tui.Run(ctx, deps)
	})
}

// runWith wires the app and hands it to startUI. Storage problems are
// logged and never stop the app: without device storage nobody is signed
// in and the login screen shows.
func runWith(ctx context.Context, cfg *config.AppConfig, startUI func(context.Context, tui.Deps) error) error {
	logOut, logErr := openLog(cfg)
	defer logOut.Close()

	log := logger.NewWithWriter(cfg.Env, logOut)
	log.Info("Starting grownby", map[string]interface{}{
		"backend": cfg.BackendURL,
		"offline": cfg.Offline,
		"env":     cfg.Env,
	})
	if logErr != nil {
		log.Warn("Data dir log unavailable", map[string]interface{}{
			"path":  cfg.LogPath(),
			"error": logErr.Error(),
		})
	}

	var store backend.KeyValue
	opened, err := kv.Open(ctx, cfg.SessionDBPath())
	if err != nil {
		log.Error("Failed to open device storage", err, map[string]interface{}{
			"path": cfg.SessionDBPath(),
		})
		store = kv.Unavailable{Err: err}
	} else {
		defer opened.Close()
		store = opened
	}

	var client *backend.Client
	if cfg.Offline {
		mem := memory.New()
		defer mem.Close()
		client = mem.Client()
	} else {
		client = remote.New(cfg.BackendURL, nil, store, log).Backend()
	}

	sessions := session.NewStore(store, log)
	gateway := auth.NewGateway(client.Identity, sessions, log)
	repo := farms.NewRepository(client.Documents, log)
	fs := afero.NewOsFs()
	validator, err := forms.NewValidator()
	if err != nil {
		log.Error("Failed to build form validator", err, nil)
		return err
	}

	deps := tui.Deps{
		Navigator: navigator.New(),
		Login:     screens.NewLogin(gateway, sessions, validator, log),
		SignUp:    screens.NewSignUp(gateway, sessions, validator, log),
		AddFarm:   screens.NewAddFarm(repo, media.NewUploader(fs, client.Blobs, log), media.NewPicker(fs), validator, log),
		FarmList:  screens.NewFarmList(repo, gateway, log),
		PickerDir: pickerDir(),
		Log:       log,
	}

	err = startUI(ctx, deps)
	if err != nil {
		log.Error("Terminal UI stopped", err, nil)
	}
	log.Info("grownby exited", nil)
	return err
}

// openLog opens the log file in the data dir. When that fails it falls
// back to the temp dir, then to discarding output, and reports the first
// error.
func openLog(cfg *config.AppConfig) (io.WriteCloser, error) {
	err := os.MkdirAll(cfg.DataDir, 0o700)
	if err == nil {
		var f *os.File
		f, err = os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err == nil {
			return f, nil
		}
	}
	if f, tmpErr := os.OpenFile(filepath.Join(os.TempDir(), "grownby.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600); tmpErr == nil {
		return f, err
	}
	return nopCloser{io.Discard}, err
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func pickerDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	if pictures := filepath.Join(home, "Pictures"); dirExists(pictures) {
		return pictures
	}
	return home
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
