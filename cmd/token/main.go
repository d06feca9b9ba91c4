// Command token issues an access token for local testing of the API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jwalitptl/health-assistant/config"
	"github.com/jwalitptl/health-assistant/pkg/auth"
	"github.com/jwalitptl/health-assistant/pkg/logger"
)

func main() {
	userID := flag.String("user", "", "user id to put in the token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to jwt.access_ttl")
	flag.Parse()

	log := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Output: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load configuration")
	}
	if *ttl > 0 {
		cfg.JWT.AccessTTL = *ttl
	}

	token, expiresAt, err := auth.NewJWTManager(cfg.JWT).GenerateAccessToken(*userID)
	if err != nil {
		log.Fatal(err, "failed to issue token", "user_id", *userID)
	}

	log.Info("token issued", "user_id", *userID, "expires_at", expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}
