package main

import (
	"flag"
	"fmt"
	"log"

	"smartdash/auth"
	"smartdash/config"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	subject := flag.String("subject", "dashboard", "token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime (default auth.token_ttl)")
	flag.Parse()

	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if !cfg.AuthEnabled() {
		log.Fatal("auth.jwt_secret is empty; task routes are open and need no token")
	}

	lifetime := cfg.Auth.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}
	token, err := auth.GenerateToken([]byte(cfg.Auth.JWTSecret), *subject, lifetime)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(token)
}
