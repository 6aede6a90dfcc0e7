package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/constants"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/securefile"
)

// Key is the encrypted on-disk account record.
type Key struct {
	Version    int    `json:"version"`
	AddressHex string `json:"address"`
	PrivKeyHex string `json:"priv_key_hex"`

	CreatedAt string `json:"created_at,omitempty"` // RFC3339
}

func (k *Key) Address() common.Address {
	return common.HexToAddress(k.AddressHex)
}

func (k *Key) privateKey() (*ecdsa.PrivateKey, error) {
	pk, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimPrefix(k.PrivKeyHex, "0x"), "0X"))
	if err != nil {
		return nil, fmt.Errorf("to ecdsa: %w", err)
	}
	return pk, nil
}

type Keystore struct {
	Path string
	Opt  securefile.Options
}

// NewKeystore places the key file at path, or at the canonical config location
// when path is empty.
func NewKeystore(path string) (*Keystore, error) {
	if path == "" {
		p, err := securefile.ResolvePath(constants.AppName, constants.KeystoreFile)
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Keystore{
		Path: path,
		Opt: securefile.Options{
			FilePerm:      constants.FilePerm,
			DirectoryPerm: constants.DirectoryPerm,
			AAD:           []byte(constants.AADConstant),
		},
	}, nil
}

func (s *Keystore) Exists() bool {
	return securefile.Exists(s.Path)
}

// Ensure loads the encrypted key or creates and persists a new one if missing.
func (s *Keystore) Ensure(password []byte) (*Key, error) {
	k, err := securefile.ReadEncryptedJSON[Key](s.Path, password, s.Opt)
	if err == nil {
		return &k, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		nk, err := NewRandomKey()
		if err != nil {
			return nil, err
		}
		if err := securefile.WriteEncryptedJSON(s.Path, *nk, password, s.Opt); err != nil {
			return nil, err
		}
		return nk, nil
	}

	return nil, fmt.Errorf("load key %s: %w", s.Path, err)
}

// Import replaces the stored key with privHex.
func (s *Keystore) Import(privHex string, password []byte) (*Key, error) {
	pk, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("import key: %w", err)
	}
	k := keyFromECDSA(pk)
	if err := securefile.WriteEncryptedJSON(s.Path, *k, password, s.Opt); err != nil {
		return nil, err
	}
	return k, nil
}

// ChangePassword re-encrypts the key file under newPassword.
func (s *Keystore) ChangePassword(oldPassword, newPassword []byte) error {
	return securefile.Reencrypt[Key](s.Path, oldPassword, newPassword, s.Opt)
}

func NewRandomKey() (*Key, error) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return keyFromECDSA(pk), nil
}

func keyFromECDSA(pk *ecdsa.PrivateKey) *Key {
	return &Key{
		Version:    constants.SchemaV1,
		AddressHex: crypto.PubkeyToAddress(pk.PublicKey).Hex(),
		PrivKeyHex: strings.TrimPrefix(hexutil.Encode(crypto.FromECDSA(pk)), "0x"),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
}
