// cmd/tools/verifier-settings/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"captcha-workers/internal/common/captcha"
	"captcha-workers/internal/common/config"
	"captcha-workers/internal/common/database"
	httpclient "captcha-workers/internal/common/http"
	"captcha-workers/internal/common/logger"
)

// assignments collects repeated -set key=value flags.
type assignments map[string]interface{}

func (a assignments) String() string {
	return fmt.Sprintf("%d settings", len(a))
}

func (a assignments) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	a[key] = val
	return nil
}

var configPath string

func main() {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	setCmd := flag.NewFlagSet("set", flag.ExitOnError)
	removeCmd := flag.NewFlagSet("remove", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{listCmd, setCmd, removeCmd, importCmd, validateCmd} {
		fs.StringVar(&configPath, "config", "", "Path to a config file (defaults to ./configs/config.yaml)")
	}

	// Set command flags
	nameSet := setCmd.String("name", "", "Verifier name (e.g., Recaptcha)")
	values := assignments{}
	setCmd.Var(values, "set", "Setting to change as key=value, repeatable")

	// Remove command flags
	nameRemove := removeCmd.String("name", "", "Verifier name to remove")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "list":
		listCmd.Parse(os.Args[2:])
		err = withStore(listVerifiers)

	case "set":
		setCmd.Parse(os.Args[2:])
		if *nameSet == "" || len(values) == 0 {
			fmt.Println("Error: name and at least one -set are required for set.")
			setCmd.Usage()
			os.Exit(1)
		}
		err = withStore(func(ctx context.Context, _ *config.Config, store *database.SettingsStore) error {
			return setVerifier(ctx, store, *nameSet, values)
		})

	case "remove":
		removeCmd.Parse(os.Args[2:])
		if *nameRemove == "" {
			fmt.Println("Error: name is required for remove.")
			removeCmd.Usage()
			os.Exit(1)
		}
		err = withStore(func(ctx context.Context, _ *config.Config, store *database.SettingsStore) error {
			if err := store.Remove(ctx, *nameRemove); err != nil {
				return err
			}
			fmt.Printf("Removed verifier: %s\n", *nameRemove)
			return nil
		})

	case "import":
		importCmd.Parse(os.Args[2:])
		err = withStore(importVerifiers)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		err = withStore(validateVerifiers)

	case "help":
		fallthrough
	default:
		help()
		return
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// withStore connects to the configured Redis and runs fn against its settings store.
func withStore(fn func(context.Context, *config.Config, *database.SettingsStore) error) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx); err != nil {
		return err
	}

	store := database.NewSettingsStore(rdb.Client, cfg.Database.Redis.KeyPrefix, logger.NewStructured("warn", "console"))
	return fn(ctx, cfg, store)
}

func listVerifiers(ctx context.Context, _ *config.Config, store *database.SettingsStore) error {
	names, err := store.Names(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No verifiers stored.")
		return nil
	}

	for _, name := range names {
		settings, err := store.Load(ctx, name)
		if err != nil {
			return err
		}
		state := "enabled"
		if !captcha.IsEnabled(settings) {
			state = "disabled"
		}
		fmt.Printf("%s (%s)\n", name, state)

		keys := make([]string, 0, len(settings))
		for k := range settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %s = %v\n", k, displayValue(k, settings[k]))
		}
	}
	return nil
}

// setVerifier overlays values on the stored settings of name.
func setVerifier(ctx context.Context, store *database.SettingsStore, name string, values map[string]interface{}) error {
	settings, err := store.Load(ctx, name)
	if err != nil {
		return err
	}
	if settings == nil {
		settings = map[string]interface{}{}
	}
	for k, v := range values {
		settings[k] = v
	}
	if err := store.Save(ctx, name, settings); err != nil {
		return err
	}
	fmt.Printf("Updated verifier %s (%d settings)\n", name, len(values))
	return nil
}

// importVerifiers copies the verifiers of the config file into Redis, keeping their order.
func importVerifiers(ctx context.Context, cfg *config.Config, store *database.SettingsStore) error {
	for _, entry := range cfg.Captcha.Verifiers {
		if err := store.Save(ctx, entry.Name, entry.Settings); err != nil {
			return fmt.Errorf("failed to import %s: %w", entry.Name, err)
		}
		fmt.Printf("Imported verifier: %s\n", entry.Name)
	}
	return nil
}

// validateVerifiers builds every enabled stored verifier the way the worker would.
func validateVerifiers(ctx context.Context, cfg *config.Config, store *database.SettingsStore) error {
	names, err := store.Names(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no verifiers stored")
	}

	registry := captcha.NewRegistry(captcha.RegistryOptions{
		Settings:  store,
		Client:    httpclient.NewClient(config.GetDuration(cfg.Captcha.HTTPTimeout)),
		HostNames: cfg.Captcha.HostNames,
	})

	enabled := 0
	for _, name := range names {
		settings, err := store.Load(ctx, name)
		if err != nil {
			return err
		}
		if !captcha.IsEnabled(settings) {
			continue
		}
		if _, err := registry.LoadVerifier(name, settings); err != nil {
			return fmt.Errorf("verifier %s: %w", name, err)
		}
		enabled++
	}
	if enabled == 0 {
		return fmt.Errorf("no enabled verifier among %d stored", len(names))
	}

	fmt.Printf("Settings validation passed. %d of %d verifiers enabled.\n", enabled, len(names))
	return nil
}

func displayValue(key string, value interface{}) interface{} {
	if strings.Contains(strings.ToLower(key), "secret") {
		return "[REDACTED]"
	}
	return value
}

func help() {
	fmt.Print(`
Usage: verifier-settings <command> [flags]

Commands:
  list      List stored verifiers in order, secrets redacted
  set       Change settings of a verifier, adding it when new
  remove    Remove a verifier
  import    Copy the verifiers of the config file into Redis
  validate  Build every enabled stored verifier
  help      Show this help message

Examples:
  verifier-settings import -config configs/config.yaml
  verifier-settings set -name HCaptcha -set enabled=true -set secret=$HCAPTCHA_SECRET
  verifier-settings remove -name Recaptcha
  verifier-settings validate

Use 'verifier-settings <command> -h' for more information about a command.
`)
}
