// Package main provides a CLI for generating operator secrets for vcissuer:
// the admin API token (with the bcrypt hash to configure) and issuer signing keys.
package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"flag"
	"fmt"
	"os"

	"vcissuer/internal/issuance/generator"
	"vcissuer/pkg/secrets"
)

type adminOutput struct {
	Token string            `json:"token"`
	Hash  string            `json:"hash"`
	Usage map[string]string `json:"usage"`
}

type keyOutput struct {
	KeyID string            `json:"key_id"`
	PEM   string            `json:"pem"`
	Usage map[string]string `json:"usage"`
}

func main() {
	adminCmd := flag.NewFlagSet("admin", flag.ExitOnError)
	adminToken := adminCmd.String("token", "", "Existing token to hash. Generated if empty.")
	adminJSON := adminCmd.Bool("json", false, "Output as JSON")

	keyCmd := flag.NewFlagSet("signing-key", flag.ExitOnError)
	keyID := keyCmd.String("key-id", "key-1", "Key id placed in the JWT kid header")
	keyJSON := keyCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "admin":
		adminCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		generateAdminToken(*adminToken, *adminJSON)
	case "signing-key":
		keyCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		generateSigningKey(*keyID, *keyJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate operator secrets for vcissuer

Usage:
  tokengen <command> [flags]

Commands:
  admin        Generate an admin API token and the bcrypt hash for ADMIN_TOKEN
  signing-key  Generate a P-256 issuer signing key for ISSUER_SIGNING_KEY

Examples:
  # New admin token; configure the hash, hand out the token
  tokengen admin

  # Hash an existing token
  tokengen admin -token "my-existing-token"

  # New signing key as JSON
  tokengen signing-key -key-id key-2 -json

Use "tokengen <command> -h" for more information about a command.`)
}

func generateAdminToken(token string, jsonOutput bool) {
	if token == "" {
		var err error
		if token, err = secrets.Generate(); err != nil {
			fail("Error generating token: %v", err)
		}
	}
	hash, err := secrets.Hash(token)
	if err != nil {
		fail("Error hashing token: %v", err)
	}

	if jsonOutput {
		printJSON(adminOutput{
			Token: token,
			Hash:  hash,
			Usage: map[string]string{
				"server": "ADMIN_TOKEN=<hash>",
				"header": "X-Admin-Token: <token>",
			},
		})
		return
	}
	fmt.Println("Admin API Token")
	fmt.Println("===============")
	fmt.Printf("Token: %s\n", token)
	fmt.Printf("Hash:  %s\n", hash)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  server: ADMIN_TOKEN='<hash>'")
	fmt.Println("  client: curl -H \"X-Admin-Token: <token>\" http://localhost:8080/admin/...")
}

func generateSigningKey(keyID string, jsonOutput bool) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		fail("Error generating key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		fail("Error encoding key: %v", err)
	}
	encoded := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))

	// Round trip through the server's parser so the output is known to load.
	if _, err := generator.ParseECPrivateKeyPEM([]byte(encoded)); err != nil {
		fail("Generated key does not parse: %v", err)
	}

	if jsonOutput {
		printJSON(keyOutput{
			KeyID: keyID,
			PEM:   encoded,
			Usage: map[string]string{
				"server": "ISSUER_SIGNING_KEY=<pem> ISSUER_KEY_ID=<key_id>",
			},
		})
		return
	}
	fmt.Println("Issuer Signing Key (ES256)")
	fmt.Println("==========================")
	fmt.Printf("Key ID: %s\n", keyID)
	fmt.Println()
	fmt.Print(encoded)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  ISSUER_KEY_ID=%s ISSUER_SIGNING_KEY=\"$(cat key.pem)\"\n", keyID)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail("Error encoding JSON: %v", err)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
