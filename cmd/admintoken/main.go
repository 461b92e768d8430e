// Command admintoken prints admin credentials for the jwt and bcrypt auth modes.
//
//	admintoken -ttl 24h            sign a token with ADMIN_JWT_SECRET
//	admintoken -hash -secret s3cr  print a bcrypt hash for ADMIN_PASSWORD_HASH
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"account-dispenser/internal/adminauth"
)

var (
	hashMode = flag.Bool("hash", false, "print a bcrypt hash of -secret instead of a token")
	secret   = flag.String("secret", "", "signing secret (token mode, defaults to ADMIN_JWT_SECRET) or password to hash")
	subject  = flag.String("subject", "admin", "token subject")
	ttl      = flag.Duration("ttl", 24*time.Hour, "token lifetime")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	if *hashMode {
		hash, err := adminauth.HashSecret(*secret)
		if err != nil {
			fail(err)
		}
		fmt.Println(hash)
		return
	}

	signingSecret := *secret
	if signingSecret == "" {
		signingSecret = strings.TrimSpace(os.Getenv("ADMIN_JWT_SECRET"))
	}

	token, err := adminauth.IssueToken(signingSecret, *subject, *ttl, time.Now())
	if err != nil {
		fail(err)
	}
	fmt.Println(token)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
