package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"lv-tradecore/internal/auth"

	"github.com/joho/godotenv"
)

// gentoken signs a price stream token for manual testing.
func main() {
	_ = godotenv.Load()
	subject := flag.String("sub", "operator", "token subject")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}
	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "lv-trade"
	}
	token, err := auth.NewVerifier(issuer, []byte(secret), *ttl).Sign(*subject)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
