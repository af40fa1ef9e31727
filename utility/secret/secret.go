// Package secret loads signing keys from an HCL file, so they stay out of the
// main configuration:
//
//	hmac = {
//	  "session-1" = "..."
//	}
package secret

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/rs/zerolog/log"
)

// largest secret file accepted
const maxSize = 10 << 20

type Secret struct {
	HMAC map[string]string `hcl:"hmac"`
}

// Store receives the loaded keys, see jwthmac.Utility
type Store interface {
	Store(keyID string, secret string) error
}

// Load the secret file at path into store, returning the number of keys stored
func Load(path string, store Store) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: cannot load secret", err)
	}
	defer f.Close()

	src, err := io.ReadAll(io.LimitReader(f, maxSize))
	if err != nil {
		return 0, fmt.Errorf("%w: cannot read secret %v", err, path)
	}

	return Decode("secret.hcl", src, store)
}

// Decode HCL source into store. filename must end with .hcl.
func Decode(filename string, src []byte, store Store) (int, error) {
	var cfg Secret
	if err := hclsimple.Decode(filename, src, nil, &cfg); err != nil {
		return 0, fmt.Errorf("failed to decode secret: %w", err)
	}

	var n int
	for k, v := range cfg.HMAC {
		if err := store.Store(k, v); err != nil {
			return n, fmt.Errorf("%w: failed storing HMAC secret %v", err, k)
		}
		log.Info().Msgf("Stored HMAC secret `%v`", k)
		n++
	}

	return n, nil
}
