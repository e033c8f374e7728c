// Reviewmarks indexes code-review comments and serves them to editor plugins.
//
// Usage:
//
//	reviewmarks serve                                      # serve the JSON API
//	reviewmarks import --repo owner/name --number 42       # import a pull request
//	reviewmarks migrate                                    # apply schema migrations
//	reviewmarks version
//
// Configuration is read from REVIEWMARKS_* environment variables.
package main

import (
	"os"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/reviewmarks/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
