package securefile

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrInvalidPasswordOrCorrupt hides whether the password or the file is wrong.
var ErrInvalidPasswordOrCorrupt = errors.New("invalid password or corrupted file")

const (
	envelopeVersion = 1
	saltLen         = 16
)

// Envelope is the JSON document written to disk: Argon2id parameters, salt,
// XChaCha20-Poly1305 nonce and ciphertext.
type Envelope struct {
	Version int `json:"version"`

	ArgonTime    uint32 `json:"argon_time"`
	ArgonMemory  uint32 `json:"argon_memory_kib"`
	ArgonThreads uint8  `json:"argon_threads"`
	ArgonKeyLen  uint32 `json:"argon_key_len"`
	SaltB64      string `json:"salt_b64"`

	NonceB64 string `json:"nonce_b64"`
	CTB64    string `json:"ct_b64"`
}

// KDF holds the Argon2id cost parameters used when sealing.
type KDF struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

var DefaultKDF = KDF{Time: 2, Memory: 64 * 1024, Threads: 1, KeyLen: 32}

func (k KDF) derive(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, k.Time, k.Memory, k.Threads, k.KeyLen)
}

func checkPassword(password []byte) error {
	if len(password) == 0 {
		return errors.New("securefile: empty password")
	}
	for _, b := range password {
		if b != 0 {
			return nil
		}
	}
	return errors.New("securefile: zeroed password buffer")
}

// Seal encrypts plain under password, binding aad.
func Seal(plain, password, aad []byte, kdf KDF) (*Envelope, error) {
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "rand salt")
	}
	key := kdf.derive(password, salt)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, errors.Wrap(err, "aead")
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "rand nonce")
	}

	enc := base64.StdEncoding
	return &Envelope{
		Version:      envelopeVersion,
		ArgonTime:    kdf.Time,
		ArgonMemory:  kdf.Memory,
		ArgonThreads: kdf.Threads,
		ArgonKeyLen:  kdf.KeyLen,
		SaltB64:      enc.EncodeToString(salt),
		NonceB64:     enc.EncodeToString(nonce),
		CTB64:        enc.EncodeToString(aead.Seal(nil, nonce, plain, aad)),
	}, nil
}

// Open decrypts e. Any authentication failure is ErrInvalidPasswordOrCorrupt.
func (e *Envelope) Open(password, aad []byte) ([]byte, error) {
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	if e.Version != envelopeVersion {
		return nil, errors.Newf("securefile: unsupported envelope version %d", e.Version)
	}

	enc := base64.StdEncoding
	salt, err := enc.DecodeString(e.SaltB64)
	if err != nil {
		return nil, errors.Wrap(err, "decode salt")
	}
	nonce, err := enc.DecodeString(e.NonceB64)
	if err != nil {
		return nil, errors.Wrap(err, "decode nonce")
	}
	ct, err := enc.DecodeString(e.CTB64)
	if err != nil {
		return nil, errors.Wrap(err, "decode ciphertext")
	}

	kdf := KDF{Time: e.ArgonTime, Memory: e.ArgonMemory, Threads: e.ArgonThreads, KeyLen: e.ArgonKeyLen}
	key := kdf.derive(password, salt)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, ErrInvalidPasswordOrCorrupt
	}
	if len(nonce) != aead.NonceSize() {
		return nil, ErrInvalidPasswordOrCorrupt
	}
	plain, err := aead.Open(nil, nonce, ct, aad)
	if err != nil {
		return nil, ErrInvalidPasswordOrCorrupt
	}
	return plain, nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
