package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/accountlink/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   base URL of the account API
//	-d string   path of the local database
//	-t int      start-up token verification timeout in seconds
//
// os.Args is filtered with flagx.FilterArgs first so flags owned by other
// loaders do not fail the parse.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the account API")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local database")
	verifyTimeout := fs.Int("t", int(cfg.VerifyTimeout.Seconds()), "token verification timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.VerifyTimeout = time.Duration(*verifyTimeout) * time.Second
}
