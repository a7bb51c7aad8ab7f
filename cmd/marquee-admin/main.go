// Package main is the entry point for the Marquee admin CLI.
// This tool provisions manager accounts and seeds the default manager.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/prn-tf/marquee/internal/config"
	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/logging"
	"github.com/prn-tf/marquee/internal/pkg/crypto"
	"github.com/prn-tf/marquee/internal/repository"
	"github.com/prn-tf/marquee/internal/repository/factory"
	"github.com/prn-tf/marquee/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// errUsage is returned for malformed command lines; usage has already been printed.
var errUsage = errors.New("invalid usage")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("Marquee Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		return

	case "help", "-h", "--help":
		printUsage()
		return

	case "keygen":
		if err := keygen(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return

	case "manager", "seed":
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, command, os.Args[2:]); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string) error {
	cfg, err := config.Load(os.Getenv("MARQUEE_CONFIG"))
	if err != nil {
		return err
	}

	// The CLI only reports problems; successful operations print their own output.
	cfg.Logging.Format = "console"
	logger := logging.NewWithWriter(cfg.Logging, os.Stderr).Level(zerolog.WarnLevel)

	db, err := factory.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Database.Close()

	if err := db.Database.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	auth := service.NewAuthService(db.Repos.Manager, nil, nil, cfg.Auth, logger)

	if command == "seed" {
		created, err := auth.EnsureDefaultManager(ctx, cfg.Seed)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("Created default manager %q\n", domain.NormalizeUsername(cfg.Seed.Username))
		} else {
			fmt.Println("Managers already exist or seeding is disabled; nothing to do")
		}
		return nil
	}

	return runManager(ctx, auth, args)
}

// =============================================================================
// Manager Commands
// =============================================================================

func runManager(ctx context.Context, auth *service.AuthService, args []string) error {
	if len(args) < 1 {
		printManagerUsage()
		return errUsage
	}

	sub, args := args[0], args[1:]
	switch sub {
	case "create":
		return createManager(ctx, auth, args)
	case "list":
		return listManagers(ctx, auth)
	case "set-role":
		return setRole(ctx, auth, args)
	case "activate":
		return setActive(ctx, auth, args, true)
	case "deactivate":
		return setActive(ctx, auth, args, false)
	case "passwd":
		return changePassword(ctx, auth, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown manager command: %s\n\n", sub)
		printManagerUsage()
		return errUsage
	}
}

func createManager(ctx context.Context, auth *service.AuthService, args []string) error {
	fs := flag.NewFlagSet("manager create", flag.ContinueOnError)
	username := fs.String("username", "", "login name (3-30 characters)")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "initial password")
	displayName := fs.String("display-name", "", "name shown in the console")
	role := fs.String("role", string(domain.RoleAdmin), "admin or superadmin")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	manager, err := auth.CreateManager(ctx, service.CreateManagerInput{
		Username:    *username,
		Email:       *email,
		Password:    *password,
		DisplayName: *displayName,
		Role:        *role,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created manager %q (id %d, role %s)\n", manager.Username, manager.ID, manager.Role)
	return nil
}

func listManagers(ctx context.Context, auth *service.AuthService) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tACTIVE\tLAST LOGIN")

	const pageSize = 100
	for offset := 0; ; offset += pageSize {
		result, err := auth.ListManagers(ctx, repository.ListOptions{Offset: offset, Limit: pageSize})
		if err != nil {
			return err
		}

		for _, m := range result.Items {
			lastLogin := "never"
			if m.LastLogin != nil {
				lastLogin = m.LastLogin.UTC().Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t%s\n", m.ID, m.Username, m.Email, m.Role, m.IsActive, lastLogin)
		}

		if int64(offset+len(result.Items)) >= result.Total || len(result.Items) == 0 {
			break
		}
	}

	return w.Flush()
}

func setRole(ctx context.Context, auth *service.AuthService, args []string) error {
	fs := flag.NewFlagSet("manager set-role", flag.ContinueOnError)
	username := fs.String("username", "", "manager to change")
	role := fs.String("role", "", "admin or superadmin")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	manager, err := lookup(ctx, auth, *username)
	if err != nil {
		return err
	}

	manager, err = auth.SetRole(ctx, manager.ID, *role)
	if err != nil {
		return err
	}

	fmt.Printf("Manager %q is now %s\n", manager.Username, manager.Role)
	return nil
}

func setActive(ctx context.Context, auth *service.AuthService, args []string, active bool) error {
	fs := flag.NewFlagSet("manager activate", flag.ContinueOnError)
	username := fs.String("username", "", "manager to change")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	manager, err := lookup(ctx, auth, *username)
	if err != nil {
		return err
	}

	manager, err = auth.SetActive(ctx, manager.ID, active)
	if err != nil {
		return err
	}

	state := "deactivated"
	if manager.IsActive {
		state = "activated"
	}
	fmt.Printf("Manager %q %s\n", manager.Username, state)
	return nil
}

func changePassword(ctx context.Context, auth *service.AuthService, args []string) error {
	fs := flag.NewFlagSet("manager passwd", flag.ContinueOnError)
	username := fs.String("username", "", "manager to change")
	password := fs.String("password", "", "new password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	manager, err := lookup(ctx, auth, *username)
	if err != nil {
		return err
	}

	if err := auth.ChangePassword(ctx, manager.ID, *password); err != nil {
		return err
	}

	fmt.Printf("Password changed for %q\n", manager.Username)
	return nil
}

func lookup(ctx context.Context, auth *service.AuthService, username string) (*domain.Manager, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: --username is required", domain.ErrValidation)
	}
	return auth.GetManagerByUsername(ctx, username)
}

// keygen prints fresh secrets for the session and auth configuration.
func keygen() error {
	sessionKey, err := crypto.GenerateMasterKey()
	if err != nil {
		return err
	}
	tokenSecret, err := crypto.GenerateTokenSecret()
	if err != nil {
		return err
	}

	fmt.Printf("MARQUEE_SESSION_ENCRYPTION_KEY=%s\n", sessionKey)
	fmt.Printf("MARQUEE_AUTH_TOKEN_SECRET=%s\n", tokenSecret)
	return nil
}

func printUsage() {
	fmt.Println(`Marquee Admin CLI

Usage:
  marquee-admin <command> [arguments]

Commands:
  manager     Manage manager accounts (create, list, set-role, activate, deactivate, passwd)
  seed        Create the default manager when no managers exist
  keygen      Generate a session encryption key and a token secret
  version     Print version information
  help        Show this help message

Environment Variables:
  MARQUEE_CONFIG    Optional path to the configuration file
  MARQUEE_*         Any configuration key, e.g. MARQUEE_DATABASE_PATH

Examples:
  marquee-admin manager create --username alice --email alice@example.com --password secret1
  marquee-admin manager set-role --username alice --role superadmin
  marquee-admin manager deactivate --username alice
  marquee-admin seed`)
}

func printManagerUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  marquee-admin manager create --username <name> --email <email> --password <password> [--display-name <name>] [--role admin|superadmin]
  marquee-admin manager list
  marquee-admin manager set-role --username <name> --role admin|superadmin
  marquee-admin manager activate --username <name>
  marquee-admin manager deactivate --username <name>
  marquee-admin manager passwd --username <name> --password <password>`)
}
