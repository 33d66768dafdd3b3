package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/pkg/authn"
	"github.com/gatehouse/gatehouse/pkg/config"
	"github.com/gatehouse/gatehouse/pkg/db"
	"github.com/gatehouse/gatehouse/pkg/directory"
	"github.com/gatehouse/gatehouse/pkg/provider"
	"github.com/gatehouse/gatehouse/pkg/server"
	"github.com/gatehouse/gatehouse/pkg/server/endpoints"
	gormstore "github.com/gatehouse/gatehouse/pkg/server/store/gorm"
	"github.com/gatehouse/gatehouse/pkg/token"
)

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8000"
}

func defaultPortInt() int {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return 8000
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the Gatehouse authentication server",
	Long: `Run the Gatehouse authentication server.

Requires DATABASE_URL and a session secret, either from the config file
or from GATEHOUSE_SESSION_SECRET.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}
		if os.Getenv("DATABASE_URL") == "" {
			fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is required")
			os.Exit(1)
		}

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			log.Println("Running database migrations...")
			if err := runMigrations(); err != nil {
				fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
				os.Exit(1)
			}
		}

		gormDB, err := db.Connect(db.Config{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to connect to DB: %v\n", err)
			os.Exit(1)
		}

		users := gormstore.NewUserStore(gormDB)

		pipeline, idp, err := buildPipeline(cfg, users)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to build authentication pipeline: %v\n", err)
			os.Exit(1)
		}

		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		s := server.NewServer(users, pipeline, idp, cfg, gormDB, host, port)

		endpoints.RegisterAll(s)

		// Reloads are picked up for reference, but the pipeline is built
		// once; a restart applies scheme-level changes.
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			_ = config.Watch(stop,
				func(*config.GatehouseConfig) {
					log.Println("Configuration file reloaded; restart the server to apply changes")
				},
				func(err error) {
					log.Printf("Configuration reload failed: %v", err)
				},
			)
		}()

		log.Printf("Running server at http://%s:%s...\n", host, port)
		log.Fatal(s.Start())
	},
}

// buildPipeline assembles the resolution pipeline from the configuration.
func buildPipeline(cfg *config.GatehouseConfig, users *gormstore.UserStore) (*authn.Pipeline, *provider.Verifier, error) {
	codec, err := token.NewCodec([]byte(cfg.SessionSecret))
	if err != nil {
		return nil, nil, err
	}

	var idp *provider.Verifier
	if cfg.ProviderEnabled() {
		idp, err = provider.NewVerifier(provider.Config{
			Domain:       cfg.ProviderDomain,
			Audience:     cfg.ProviderAudience,
			ClientID:     cfg.ProviderClientID,
			ClientSecret: cfg.ProviderClientSecret,
			CallbackURL:  cfg.ProviderCallbackURL,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	var dir *directory.Authenticator
	if cfg.EnableDirectory {
		dir, err = directory.New(cfg.Directory)
		if err != nil {
			return nil, nil, err
		}
	}

	role, err := cfg.ParsedDefaultRole()
	if err != nil {
		return nil, nil, err
	}
	ttl, err := cfg.SessionTTLDuration()
	if err != nil {
		return nil, nil, err
	}

	pipeline := authn.NewPipeline(users, codec, idp, dir, authn.Settings{
		DisableAuth:             !cfg.EnableAuth,
		EnableSignup:            cfg.EnableSignup,
		EnableAPIKeys:           cfg.EnableAPIKeys,
		APIKeyAllowedOperations: cfg.APIKeyAllowedOperations,
		DefaultRole:             role,
		SessionTTL:              ttl,
	})
	return pipeline, idp, nil
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
}
