// Command token prints a signed bearer token for local development, using
// the same JWT_SECRET the server reads.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mmynk/bizlens/internal/auth"
	"github.com/mmynk/bizlens/internal/config"
	"github.com/mmynk/bizlens/pkg/logging"
)

func main() {
	logging.Setup()

	user := flag.String("user", "dev", "user id to embed")
	store := flag.String("store", "local", "store id to embed")
	role := flag.String("role", auth.RoleOwner, "viewer or owner")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if !cfg.AuthEnabled() {
		slog.Error("JWT_SECRET is not set; the server accepts unauthenticated calls")
		os.Exit(1)
	}

	token, err := auth.NewJWTManager(cfg.JWTSecret, *ttl).Generate(*user, *store, *role)
	if err != nil {
		slog.Error("Failed to generate token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
