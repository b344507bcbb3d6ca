// Command devtoken mints a signed credential for connecting to a local relay.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/mossy-p/callrelay/internal/auth"
	"github.com/mossy-p/callrelay/internal/models"
)

var (
	flagSecret string
	flagID     string
	flagRole   string
	flagTTL    time.Duration
	flagHelp   bool
)

func init() {
	flag.StringVarP(&flagSecret, "secret", "s", os.Getenv("JWT_SECRET"), "Signing secret (default: $JWT_SECRET)")
	flag.StringVarP(&flagID, "id", "i", "", "Identity to embed in the token")
	flag.StringVarP(&flagRole, "role", "r", "", "Role to embed in the token")
	flag.DurationVarP(&flagTTL, "ttl", "t", time.Hour, "Token lifetime, 0 for no expiry")
	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
}

func main() {
	flag.Parse()

	if flagHelp {
		fmt.Fprintln(os.Stderr, "Usage: devtoken --secret SECRET --id ID [--role ROLE] [--ttl DURATION]")
		flag.PrintDefaults()
		return
	}
	if flagSecret == "" || flagID == "" {
		fmt.Fprintln(os.Stderr, "devtoken: --secret and --id are required")
		os.Exit(2)
	}

	// CRM user ids are numbers on the wire.
	id := models.NewIdentity(flagID)
	if _, err := strconv.ParseInt(flagID, 10, 64); err == nil {
		id = models.NewNumericIdentity(flagID)
	}
	p := models.Principal{ID: id, Role: flagRole}
	token, err := auth.Issue(flagSecret, p, flagTTL, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "devtoken: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
