// Command issuetoken prints a bearer token proving the given address, signed
// with the configured JWT secret.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"rentacar-ledger/internal/config"
	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/security"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	address := flag.String("address", "", "Address the token proves")
	ttl := flag.Duration("ttl", 0, "Token lifetime (defaults to jwt.access_token_expiry_minutes)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	addr := domain.Address(*address)
	if err := addr.Validate(); err != nil {
		log.Fatalf("Invalid address: %v", err)
	}

	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = time.Duration(cfg.JWT.AccessTokenExpiry) * time.Minute
	}

	tok, err := security.NewTokenManager(cfg.JWT.Secret, lifetime).GenerateAccessToken(addr)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(tok)
}
