// Package credentials keeps the remote access token in the local metadata
// table, sealed under a key derived from the user's passphrase.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gistkeeper/internal/client/client"
	"github.com/dmitrijs2005/gistkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gistkeeper/internal/common"
	"github.com/dmitrijs2005/gistkeeper/internal/cryptox"
	"github.com/dmitrijs2005/gistkeeper/internal/dbx"
)

// ErrNotStored is returned by Load when no token has been saved.
var ErrNotStored = errors.New("no stored credentials")

type Store struct {
	db *sql.DB
}

var tokenKeys = []string{common.MetaTokenSalt, common.MetaTokenNonce, common.MetaTokenCipher}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save seals token with a fresh salt and nonce, replacing any previous one.
func (s *Store) Save(ctx context.Context, token string, passphrase []byte) error {
	if token == "" {
		return errors.New("empty token")
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	key := cryptox.DeriveKey(passphrase, salt)
	defer common.WipeByteArray(key)

	ciphertext, nonce, err := cryptox.Seal([]byte(token), key)
	if err != nil {
		return fmt.Errorf("seal token: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, common.MetaTokenSalt, salt); err != nil {
			return err
		}
		if err := repo.Set(ctx, common.MetaTokenNonce, nonce); err != nil {
			return err
		}
		return repo.Set(ctx, common.MetaTokenCipher, ciphertext)
	})
}

// Load opens the stored token. A wrong passphrase yields client.ErrUnauthorized.
func (s *Store) Load(ctx context.Context, passphrase []byte) (string, error) {
	vals, err := metadata.NewSQLiteRepository(s.db).GetMany(ctx, tokenKeys...)
	if err != nil {
		return "", err
	}
	salt, nonce, ciphertext := vals[common.MetaTokenSalt], vals[common.MetaTokenNonce], vals[common.MetaTokenCipher]
	if salt == nil || nonce == nil || ciphertext == nil {
		return "", ErrNotStored
	}

	key := cryptox.DeriveKey(passphrase, salt)
	defer common.WipeByteArray(key)

	plain, err := cryptox.Open(ciphertext, nonce, key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", client.ErrUnauthorized, err)
	}
	return string(plain), nil
}

// Exists reports whether a sealed token is present.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	v, err := metadata.NewSQLiteRepository(s.db).Get(ctx, common.MetaTokenCipher)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

// Clear removes the sealed token and leaves other metadata alone.
func (s *Store) Clear(ctx context.Context) error {
	return metadata.NewSQLiteRepository(s.db).Delete(ctx, tokenKeys...)
}
