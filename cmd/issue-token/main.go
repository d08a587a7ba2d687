// Command issue-token mints caller tokens for local use. It can also create
// a signing key pair and hash API key secrets for the auth.api_keys config.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/floroz/gavel-registry/internal/config"
	"github.com/floroz/gavel-registry/pkg/auth"
)

type options struct {
	identity     string
	privateKey   string
	publicKey    string
	issuer       string
	ttl          time.Duration
	generateKeys bool
	hashSecret   string
}

func main() {
	// Key paths and issuer default to the server's auth config
	defaults := config.AuthConfig{
		Issuer:         "gavel-registry",
		PublicKeyPath:  "keys/public.pem",
		PrivateKeyPath: "keys/private.pem",
	}
	if cfg, err := config.Load(); err == nil {
		if cfg.Auth.PublicKeyPath != "" {
			defaults.PublicKeyPath = cfg.Auth.PublicKeyPath
		}
		if cfg.Auth.PrivateKeyPath != "" {
			defaults.PrivateKeyPath = cfg.Auth.PrivateKeyPath
		}
		defaults.Issuer = cfg.Auth.Issuer
	}

	var opts options
	flag.StringVarP(&opts.identity, "identity", "i", "", "caller identity to put in the token subject")
	flag.StringVar(&opts.privateKey, "private-key", defaults.PrivateKeyPath, "PEM private key used to sign")
	flag.StringVar(&opts.publicKey, "public-key", defaults.PublicKeyPath, "PEM public key")
	flag.StringVar(&opts.issuer, "issuer", defaults.Issuer, "token issuer")
	flag.DurationVar(&opts.ttl, "ttl", auth.DefaultTokenTTL, "token lifetime")
	flag.BoolVar(&opts.generateKeys, "generate-keys", false, "write a new RSA key pair to --private-key and --public-key, then exit")
	flag.StringVar(&opts.hashSecret, "hash-secret", "", "print the Argon2id hash of an API key secret, then exit")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "issue-token:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	switch {
	case opts.generateKeys:
		privPEM, pubPEM, err := auth.GenerateKeyPair(2048)
		if err != nil {
			return err
		}
		if err := writeKey(opts.privateKey, privPEM); err != nil {
			return err
		}
		if err := writeKey(opts.publicKey, pubPEM); err != nil {
			return err
		}
		fmt.Printf("wrote %s and %s\n", opts.privateKey, opts.publicKey)
		return nil

	case opts.hashSecret != "":
		hash, err := auth.HashSecret(opts.hashSecret)
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	}

	if opts.identity == "" {
		return errors.New("--identity is required")
	}

	signer, err := auth.LoadSigner(opts.privateKey, opts.publicKey, opts.issuer)
	if err != nil {
		return err
	}

	token, expiry, err := signer.GenerateToken(opts.identity, opts.ttl)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "token for %q expires at %s\n", opts.identity, expiry.Format(time.RFC3339))
	fmt.Println(token)
	return nil
}

func writeKey(path string, pemBytes []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, pemBytes, 0o600)
}
