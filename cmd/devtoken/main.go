// devtoken mints HS256 access tokens accepted by the document service when it
// runs with JWT_SECRET. For local development and integration runs only.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mdshare/mdshare/backend/go-services/internal/models"
	"github.com/mdshare/mdshare/backend/go-services/internal/tokens"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var (
		secret  string
		issuer  string
		subject string
		email   string
		name    string
		ttl     time.Duration
	)
	flagSet := pflag.NewFlagSet("devtoken", pflag.ContinueOnError)
	flagSet.StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HS256 signing secret (default: $JWT_SECRET)")
	flagSet.StringVar(&issuer, "issuer", os.Getenv("JWT_ISSUER"), "iss claim (default: $JWT_ISSUER)")
	flagSet.StringVarP(&subject, "sub", "s", "", "principal id (sub claim)")
	flagSet.StringVarP(&email, "email", "e", "", "principal email")
	flagSet.StringVarP(&name, "name", "n", "", "principal display name")
	flagSet.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if subject == "" || email == "" {
		return fmt.Errorf("--sub and --email are required")
	}
	if ttl <= 0 {
		return fmt.Errorf("--ttl must be positive")
	}

	mgr, err := tokens.NewManager(secret, issuer)
	if err != nil {
		return err
	}
	token, err := mgr.GenerateAccessToken(models.Principal{ID: subject, Name: name, Email: email}, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
