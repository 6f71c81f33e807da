package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cms-portal/internal/apiclient"
	"cms-portal/internal/cms"
	"cms-portal/internal/session"
	"cms-portal/pkg/logger"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "cmsctl:", err)
		os.Exit(1)
	}
}

// globals are the flags every command shares.
type globals struct {
	apiURL      string
	sessionFile string
	timeout     time.Duration
	verbose     bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "cmsctl",
		Short:         "Command line client for the CMS API",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Errors reach the user through RunE; the logger only speaks when asked.
			l := logger.Discard()
			if g.verbose {
				l = logger.NewWithWriter("local", cmd.ErrOrStderr())
			}
			cmd.SetContext(logger.With(cmd.Context(), l))
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&g.apiURL, "api-url", envOr("API_BASE_URL", "http://localhost:8081"), "CMS API base URL (env API_BASE_URL)")
	f.StringVar(&g.sessionFile, "session-file", os.Getenv("CMSCTL_SESSION_FILE"), "credential file (env CMSCTL_SESSION_FILE, default in the user config dir)")
	f.DurationVar(&g.timeout, "timeout", 15*time.Second, "per-request timeout")
	f.BoolVarP(&g.verbose, "verbose", "v", false, "log retries and refreshes to stderr")

	root.AddCommand(newLoginCmd(g))
	root.AddCommand(newLogoutCmd(g))
	root.AddCommand(newWhoamiCmd(g))
	root.AddCommand(newArticlesCmd(g))
	root.AddCommand(newCategoriesCmd(g))
	return root
}

func (g *globals) store() (*session.FileStore, error) {
	path := g.sessionFile
	if path == "" {
		var err error
		if path, err = session.DefaultFilePath(); err != nil {
			return nil, err
		}
	}
	return session.NewFileStore(path, session.DefaultMaxAge), nil
}

// client builds the CMS client over the file-backed credential. Refreshed
// credentials are written back to the same file.
func (g *globals) client() (*cms.Client, *session.FileStore, error) {
	store, err := g.store()
	if err != nil {
		return nil, nil, err
	}
	api, err := apiclient.New(store, apiclient.Options{
		BaseURL:   g.apiURL,
		Timeout:   g.timeout,
		Retry:     apiclient.RetryPolicy{Max: 2, RetryNetwork: true},
		UserAgent: "cmsctl",
	})
	if err != nil {
		return nil, nil, err
	}
	return cms.NewClient(api), store, nil
}

// explain turns upstream failures into something a terminal user can act on.
func explain(err error) error {
	if err == nil {
		return nil
	}
	switch apiclient.KindOf(err) {
	case apiclient.KindAuthExpired:
		return errors.New("not signed in or session expired; run `cmsctl login`")
	case apiclient.KindNetwork:
		return fmt.Errorf("cannot reach the API: %w", err)
	}
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		if msg := apiErr.Message(); msg != "" {
			return fmt.Errorf("%s (HTTP %d)", msg, apiErr.StatusCode)
		}
	}
	return err
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
