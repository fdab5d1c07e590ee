// Command claimsctl holds operator tasks that have no HTTP surface:
// creating the first admin profile and minting development tokens.
package main

import (
	"os"

	"github.com/claimdesk/claimdesk/backend/go-services/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
