package sessions

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"voidpanel/internal/fsatomic"

	"github.com/gorilla/securecookie"
)

// Keys are the securecookie hash (HMAC) and block (AES) keys.
type Keys struct {
	Hash  []byte `json:"hash_key"`
	Block []byte `json:"block_key"`
}

func (k Keys) valid() bool {
	if len(k.Hash) < 32 {
		return false
	}
	switch len(k.Block) {
	case 16, 24, 32:
		return true
	}
	return false
}

// LoadOrCreateKeys returns the keys stored at path, generating and persisting
// a fresh pair when the file is missing or unusable.
func LoadOrCreateKeys(path string) (Keys, error) {
	var k Keys
	err := fsatomic.WithLock(path, func() error {
		if ok, err := fsatomic.LoadJSONLocked(path, &k); err == nil && ok && k.valid() {
			return nil
		}
		k = Keys{
			Hash:  securecookie.GenerateRandomKey(64),
			Block: securecookie.GenerateRandomKey(32),
		}
		if k.Hash == nil || k.Block == nil {
			return fmt.Errorf("generate session keys: no entropy")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return err
		}
		return fsatomic.SaveJSON(context.TODO(), path, k, fs.FileMode(0o600))
	})
	if err != nil {
		return Keys{}, fmt.Errorf("session keys: %w", err)
	}
	return k, nil
}
