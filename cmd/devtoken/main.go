// devtoken mints a session token for calling the server locally. The private key must pair
// with JWT_PUBLIC_KEY on the server.
//
//	go run ./cmd/devtoken -key ./dev/jwt.key -sub u-admin -org org-1 -role admin
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	membership "workforce-console/backend/internal/membership/domain"
	"workforce-console/backend/internal/security"
)

func main() {
	key := flag.String("key", os.Getenv("DEV_JWT_PRIVATE_KEY"), "PEM private key or path to it")
	sub := flag.String("sub", "", "user id (subject)")
	org := flag.String("org", "", "organization id")
	email := flag.String("email", "", "session email")
	role := flag.String("role", "", "session org role hint (owner, admin, member)")
	issuer := flag.String("issuer", "workforce-identity", "iss claim")
	audience := flag.String("audience", "workforce-console", "aud claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if *sub == "" || *org == "" {
		fmt.Fprintln(os.Stderr, "devtoken: -sub and -org are required")
		os.Exit(2)
	}
	if *role != "" {
		if _, ok := membership.ParseRole(*role); !ok {
			fmt.Fprintf(os.Stderr, "devtoken: unknown role %q\n", *role)
			os.Exit(2)
		}
	}
	signer, err := security.ParsePrivateKey(*key)
	if err != nil {
		fmt.Fprintln(os.Stderr, "devtoken: key:", err)
		os.Exit(1)
	}

	claims := security.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: *sub, ID: uuid.NewString()},
		OrgID:            *org,
		SessionID:        uuid.NewString(),
		Email:            *email,
		OrgRole:          *role,
		Organizations:    []security.OrgClaim{{ID: *org, Role: *role}},
	}
	tok, err := security.NewTokenSigner(signer, *issuer, *audience, *ttl).Sign(claims, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
