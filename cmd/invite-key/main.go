// Package main provides a one-shot utility for join-grant key generation.
//
// It emits the asymmetric keypair used by match invite grant checks.
package main

import (
	"os"

	"github.com/pitchside/fieldbook/internal/platform/config"
	"github.com/pitchside/fieldbook/internal/tools/invitekey"
)

func main() {
	if err := invitekey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate join grant key: %v", err)
	}
}
