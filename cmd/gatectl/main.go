// Package main provides gatectl, a command line client for the GateLink
// access control backend. The session survives between invocations in an
// encrypted file under the user config directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatelink/gatelink/internal/auth"
	"github.com/gatelink/gatelink/internal/backend"
	"github.com/gatelink/gatelink/internal/character"
	"github.com/gatelink/gatelink/internal/device"
	"github.com/gatelink/gatelink/internal/module"
	"github.com/gatelink/gatelink/internal/session"
	"github.com/gatelink/gatelink/internal/session/securefile"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const usage = `Usage: gatectl <command> [flags]

Commands:
  login       -email <addr> -password <pw>   authenticate against the backend
  logout                                     end the session and wipe it from disk
  whoami                                     show the current session
  devices     [-search <term>] [-all]        list devices page by page
  device      <id>                           show one device
  modules     [-refresh]                     show the session's module list
  characters  [-search <term>] [-pages <n>]  browse the Rick and Morty API
`

func main() {
	// Logs go to stderr so stdout stays parseable.
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Str("service", "gatectl").
		Str("version", Version).
		Logger()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()

	app, err := newApp(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}

	cmd, args := os.Args[1], os.Args[2:]

	var runErr error
	switch cmd {
	case "login":
		runErr = app.login(ctx, args)
	case "logout":
		runErr = app.logout(ctx)
	case "whoami":
		runErr = app.whoami()
	case "devices":
		runErr = app.devices(ctx, args)
	case "device":
		runErr = app.device(ctx, args)
	case "modules":
		runErr = app.modules(ctx, args)
	case "characters":
		runErr = app.characters(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if runErr != nil {
		log.Error().Err(runErr).Str("command", cmd).Msg("command failed")
		os.Exit(1)
	}
}

// app wires the session store and the backend services for one invocation.
type app struct {
	store      *session.Store
	auth       *auth.Service
	deviceSvc  *device.Service
	moduleSvc  *module.Service
	charClient *character.Client
	logger     zerolog.Logger
}

func newApp(ctx context.Context, log zerolog.Logger) (*app, error) {
	baseURL := os.Getenv("GATELINK_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	secret := os.Getenv("GATELINK_DEVICE_SECRET")
	if secret == "" {
		secret = "local-dev-device-secret-change-in-production"
		log.Warn().Msg("using default device secret - not secure for production")
	}

	sessionPath := os.Getenv("GATELINK_SESSION_FILE")
	if sessionPath == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		sessionPath = filepath.Join(configDir, "gatelink", "auth-storage.enc")
	}

	storage, err := securefile.New(securefile.Config{
		Path:   sessionPath,
		Secret: []byte(secret),
	})
	if err != nil {
		return nil, fmt.Errorf("open session storage: %w", err)
	}

	store := session.New(session.Config{
		Storage: storage,
		Logger:  log,
	})
	if err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	api := backend.New(backend.Config{
		BaseURL:     baseURL,
		TokenSource: store,
		OnUnauthorized: func() {
			log.Warn().Msg("backend rejected the token, session ended")
			store.Logout(ctx)
		},
		Logger: log,
	})

	return &app{
		store:      store,
		auth:       auth.NewService(auth.ServiceConfig{API: api, Store: store, Logger: log}),
		deviceSvc:  device.NewService(device.ServiceConfig{API: api, Logger: log}),
		moduleSvc:  module.NewService(module.ServiceConfig{API: api, Store: store, Logger: log}),
		charClient: character.NewClient(character.ClientConfig{Logger: log}),
		logger:     log,
	}, nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := a.auth.Login(ctx, *email, *password)
	if err != nil {
		return err
	}

	fmt.Printf("logged in as %s %s <%s>\n", sess.User.FirstName, sess.User.LastName, sess.User.Email)
	fmt.Printf("client %s (instance %d), api %s, %d modules\n",
		sess.ClientUID, sess.InstanceID, sess.Version.API, len(sess.Modules))
	return nil
}

func (a *app) logout(ctx context.Context) error {
	a.auth.Logout(ctx)
	fmt.Println("logged out")
	return nil
}

func (a *app) whoami() error {
	if !a.store.IsAuthenticated() {
		fmt.Println("not logged in")
		return nil
	}

	sess := a.store.Snapshot()
	fmt.Printf("user:     %s %s <%s> (id %d)\n",
		sess.User.FirstName, sess.User.LastName, sess.User.Email, sess.User.ID)
	fmt.Printf("client:   %s (id %d, instance %d)\n", sess.ClientUID, sess.ClientID, sess.InstanceID)
	fmt.Printf("api:      %s / oauth %s\n", sess.Version.API, sess.Version.OAuth)
	fmt.Printf("modules:  %d\n", len(sess.Modules))

	if info := auth.InspectToken(sess.Token); info.HasClaims {
		fmt.Printf("token:    subject %s, expires %s\n",
			info.Subject, info.ExpiresAt.Format(time.RFC3339))
	} else {
		fmt.Println("token:    opaque")
	}
	return nil
}

func (a *app) devices(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("devices", flag.ExitOnError)
	search := fs.String("search", "", "filter devices by name")
	all := fs.Bool("all", false, "fetch every page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	query := a.deviceSvc.Queries().Query(*search)
	if err := query.FetchNextPage(ctx); err != nil {
		return err
	}
	for *all && query.HasNextPage() {
		if err := query.FetchNextPage(ctx); err != nil {
			return err
		}
	}

	items := query.Items()
	for _, d := range items {
		state := "offline"
		if d.Online() {
			state = "online"
		}
		if d.Disabled() {
			state = "disabled"
		}
		fmt.Printf("%6d  %-24s  %-10s  %s  %s\n",
			d.ID, d.Name, d.Model, d.Settings.AccessType, state)
	}

	if query.HasNextPage() {
		fmt.Printf("%d devices shown, more available (use -all)\n", len(items))
	} else {
		fmt.Printf("%d devices\n", len(items))
	}
	return nil
}

func (a *app) device(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: gatectl device <id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid device id %q", args[0])
	}

	d, err := a.deviceSvc.Resource().Get(ctx, id)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("device %d not found", id)
	}

	fmt.Printf("id:       %d\n", d.ID)
	fmt.Printf("name:     %s\n", d.Name)
	fmt.Printf("model:    %s (%s)\n", d.Model, d.FactoryFamily)
	fmt.Printf("access:   %s\n", d.Settings.AccessType)
	fmt.Printf("online:   %t\n", d.Online())
	fmt.Printf("disabled: %t\n", d.Disabled())
	if d.Settings.WifiSettings != nil {
		fmt.Printf("wifi:     %s\n", d.Settings.WifiSettings.SSID)
	}
	if d.Settings.EthernetSettings != nil {
		fmt.Printf("ethernet: %s\n", d.Settings.EthernetSettings.IP)
	}
	return nil
}

func (a *app) modules(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("modules", flag.ExitOnError)
	refresh := fs.Bool("refresh", false, "refetch the module list from the backend")
	if err := fs.Parse(args); err != nil {
		return err
	}

	modules := a.store.Snapshot().Modules
	if *refresh {
		var err error
		modules, err = a.moduleSvc.Refresh(ctx)
		if err != nil {
			return err
		}
	}

	for _, m := range module.Sorted(modules) {
		visible := " "
		if m.IsRenderMobile == 1 {
			visible = "m"
		}
		fmt.Printf("%4d  [%s]  %-16s  %s\n", m.ID, visible, m.Name, m.Path)
	}
	fmt.Printf("%d modules\n", len(modules))
	return nil
}

func (a *app) characters(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("characters", flag.ExitOnError)
	search := fs.String("search", "", "filter characters by name")
	pages := fs.Int("pages", 1, "number of pages to fetch")
	if err := fs.Parse(args); err != nil {
		return err
	}

	query := a.charClient.Queries().Query(*search)
	for i := 0; i < *pages && query.HasNextPage(); i++ {
		if err := query.FetchNextPage(ctx); err != nil {
			return err
		}
	}

	items := query.Items()
	for _, c := range items {
		fmt.Printf("%5d  %-24s  %-8s  %s\n", c.ID, c.Name, c.Status, c.Species)
	}
	fmt.Printf("%d characters\n", len(items))
	return nil
}
