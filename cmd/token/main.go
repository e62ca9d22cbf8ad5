// Package main issues entitlement tokens for local development and smoke tests
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/alchemorsel/nutriplan/internal/infrastructure/config"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/security"
	"github.com/alchemorsel/nutriplan/pkg/logger"
)

func main() {
	var (
		configPath = flag.String("config", "", "Configuration file path")
		userID     = flag.String("user", "demo-balanced", "User ID placed in the token")
		tier       = flag.String("tier", "premium", "Subscription tier claim")
		ttl        = flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}
	if cfg.IsProduction() {
		fmt.Fprintln(os.Stderr, "Refusing to issue tokens in production")
		os.Exit(1)
	}
	if cfg.Auth.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "auth.jwt_secret is not set (NUTRIPLAN_AUTH_JWT_SECRET)")
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: "warn", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	token, err := security.NewAuthService(cfg, log).GenerateToken(*userID, *tier, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
