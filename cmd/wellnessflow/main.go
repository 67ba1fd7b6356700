// Command wellnessflow is the terminal client for the WellnessFlow backend.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"wellnessflow/internal/adapter/api"
	"wellnessflow/internal/adapter/memory"
	"wellnessflow/internal/app"
	"wellnessflow/internal/domain"
	"wellnessflow/internal/session"
	"wellnessflow/internal/tui"
)

const usageText = `Usage: wellnessflow [flags] <command>

Commands:
  register        create an account and sign in
  login           sign in
  logout          sign out
  sessions        list public wellness sessions
  my-sessions     list your own sessions
  edit [id]       open the editor (no id: new draft)
  publish <id>    publish one of your sessions
  delete <id>     delete one of your sessions
  demo            run against a built-in in-memory backend
`

func main() {
	fs := pflag.NewFlagSet("wellnessflow", pflag.ExitOnError)
	apiBase := fs.String("api", env("WELLNESSFLOW_API", "http://localhost:8080/api"), "backend base URL, including the /api prefix")
	sessionFile := fs.String("session-file", env("WELLNESSFLOW_SESSION_FILE", defaultSessionFile()), "path of the persisted sign-in session")
	verbose := fs.BoolP("verbose", "v", false, "enable debug logging")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usageText+"\nFlags:\n"+fs.FlagUsages()) }
	_ = fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if args[0] == "demo" {
		var err error
		*apiBase, err = startDemoBackend(logger)
		if err != nil {
			fatal(err)
		}
		*sessionFile = "" // demo sessions are not worth persisting
	}

	c, err := newCLI(*apiBase, *sessionFile, logger)
	if err != nil {
		fatal(err)
	}

	if err := c.run(context.Background(), args); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".wellnessflow-session.json"
	}
	return filepath.Join(dir, "wellnessflow", "session.json")
}

type cli struct {
	logger    *slog.Logger
	store     *session.Store
	auth      *app.AuthService
	ownership *app.OwnershipService
	autosave  *app.AutosaveService
	publish   *app.PublishService
	client    *api.Client
}

func newCLI(base, sessionPath string, logger *slog.Logger) (*cli, error) {
	var store *session.Store
	var err error
	if sessionPath == "" {
		store = session.NewStore()
	} else if store, err = session.NewFileStore(sessionPath); err != nil {
		return nil, err
	}

	guard := api.NewTransport(store)
	guard.OnUnauthorized = func() {
		fmt.Fprintln(os.Stderr, "Your session has expired. Please log in again.")
	}
	client := api.New(base, guard, logger)

	return &cli{
		logger:    logger,
		store:     store,
		auth:      app.NewAuthService(client, store),
		ownership: app.NewOwnershipService(client),
		autosave:  app.NewAutosaveService(client, logger, 0),
		publish:   app.NewPublishService(client, logger),
		client:    client,
	}, nil
}

func (c *cli) run(ctx context.Context, args []string) error {
	switch args[0] {
	case "my-sessions", "edit", "publish", "delete":
		if c.auth.SessionExpired(time.Now()) {
			fmt.Fprintln(os.Stderr, "Your saved session has expired. Please log in again.")
		}
	}

	switch args[0] {
	case "register":
		return c.signIn(ctx, true)
	case "login":
		return c.signIn(ctx, false)
	case "logout":
		c.auth.SignOut()
		fmt.Println("Signed out.")
		return nil
	case "sessions":
		docs, err := c.client.ListPublic(ctx)
		if err != nil {
			return err
		}
		fmt.Print(tui.RenderSessions(docs))
		return nil
	case "my-sessions":
		docs, err := c.client.ListMine(ctx)
		if err != nil {
			return err
		}
		fmt.Print(tui.RenderSessions(docs))
		return nil
	case "edit", "demo":
		if args[0] == "demo" {
			if _, err := c.auth.Login(ctx, "demo@wellnessflow.demo", "demo"); err != nil {
				return err
			}
		}
		var id int64
		if args[0] == "edit" && len(args) > 1 {
			var err error
			if id, err = strconv.ParseInt(args[1], 10, 64); err != nil {
				return fmt.Errorf("invalid session id %q", args[1])
			}
		}
		return c.edit(ctx, id)
	case "publish":
		if len(args) < 2 {
			return errors.New("publish requires a session id")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid session id %q", args[1])
		}
		return c.publishByID(ctx, id)
	case "delete":
		if len(args) < 2 {
			return errors.New("delete requires a session id")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid session id %q", args[1])
		}
		return c.delete(ctx, id)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (c *cli) signIn(ctx context.Context, register bool) error {
	in := bufio.NewReader(os.Stdin)
	email, err := prompt(in, "Email: ")
	if err != nil {
		return err
	}
	password, err := prompt(in, "Password: ")
	if err != nil {
		return err
	}

	var sess *domain.AuthSession
	if register {
		sess, err = c.auth.Register(ctx, email, password)
	} else {
		sess, err = c.auth.Login(ctx, email, password)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s\n", sess.Email)
	return nil
}

func (c *cli) edit(ctx context.Context, id int64) error {
	doc := domain.SessionDocument{Status: domain.StatusDraft, Owned: true}
	verdict := domain.VerdictOwned

	if id != 0 {
		var found *domain.SessionDocument
		var err error
		verdict, found, err = c.ownership.Resolve(ctx, id)
		if err != nil {
			return err
		}
		doc = *found
	}

	// Publishing from inside the editor makes any previously fetched list
	// stale; refetch after the editor closes instead of trusting it.
	stale := false
	c.publish.OnPublished = func(int64) { stale = true }

	final, err := tui.RunEditor(doc, verdict, c.autosave, c.publish)
	if err != nil {
		return err
	}

	if stale {
		docs, err := c.client.ListMine(ctx)
		if err == nil {
			fmt.Println("Your sessions:")
			fmt.Print(tui.RenderSessions(docs))
			return nil
		}
	}
	if final.HasID() {
		fmt.Printf("Session %d (%s)\n", final.ID, final.Status)
	}
	return nil
}

func (c *cli) publishByID(ctx context.Context, id int64) error {
	verdict, doc, err := c.ownership.Resolve(ctx, id)
	if err != nil {
		return err
	}
	if !verdict.Mutable() {
		return app.ErrNotAccessible
	}
	published, err := c.publish.Publish(ctx, *doc)
	if err != nil {
		return err
	}
	fmt.Printf("Session %d is now %s.\n", published.ID, published.Status)
	return nil
}

func (c *cli) delete(ctx context.Context, id int64) error {
	in := bufio.NewReader(os.Stdin)
	answer, err := prompt(in, fmt.Sprintf("Delete session %d? [y/N] ", id))
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") {
		fmt.Println("Aborted.")
		return nil
	}
	if err := c.publish.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Session %d deleted.\n", id)
	return nil
}

func prompt(in *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// startDemoBackend serves the in-memory backend on a loopback port and
// returns its base URL. A demo account is pre-registered along with a
// published session from another author, so both collections have content.
func startDemoBackend(logger *slog.Logger) (string, error) {
	backend := memory.New()

	author, err := backend.Register("guide@wellnessflow.demo", "demo")
	if err != nil {
		return "", err
	}
	doc, err := backend.SaveDraft(author.UserID, domain.SessionDocument{
		Title:       "Morning Breathing Basics",
		Description: "A ten minute guided breathing session to start the day.",
		Tags:        "breathing, mindfulness",
	})
	if err != nil {
		return "", err
	}
	if _, err := backend.Publish(author.UserID, doc.ID); err != nil {
		return "", err
	}
	if _, err := backend.Register("demo@wellnessflow.demo", "demo"); err != nil {
		return "", err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	go func() {
		if err := http.Serve(ln, backend.Handler()); err != nil {
			logger.Debug("demo backend stopped", "error", err)
		}
	}()

	base := fmt.Sprintf("http://%s/api", ln.Addr())
	fmt.Fprintf(os.Stderr, "demo backend on %s (log in as demo@wellnessflow.demo / demo)\n", base)
	return base, nil
}
