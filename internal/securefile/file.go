// Package securefile stores JSON documents on disk, optionally encrypted
// with a password (Argon2id + XChaCha20-Poly1305). All writes are atomic.
package securefile

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// Options controls file modes, KDF cost and additional authenticated data.
type Options struct {
	KDF KDF

	FilePerm      os.FileMode
	DirectoryPerm os.FileMode

	// AAD is bound into the ciphertext; reads must pass the same value.
	AAD []byte
}

func (o Options) withDefaults() Options {
	if o.KDF.KeyLen == 0 {
		o.KDF = DefaultKDF
	}
	if o.FilePerm == 0 {
		o.FilePerm = 0o600
	}
	if o.DirectoryPerm == 0 {
		o.DirectoryPerm = 0o700
	}
	return o
}

func WriteEncryptedJSON[T any](path string, v T, password []byte, opt Options) error {
	o := opt.withDefaults()

	plain, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal json")
	}
	defer zeroBytes(plain)

	env, err := Seal(plain, password, o.AAD, o.KDF)
	if err != nil {
		return err
	}
	return WriteJSON(path, env, o)
}

// ReadEncryptedJSON returns an error wrapping os.ErrNotExist when path is missing.
func ReadEncryptedJSON[T any](path string, password []byte, opt Options) (T, error) {
	var out T

	env, err := ReadJSON[Envelope](path)
	if err != nil {
		return out, err
	}
	plain, err := env.Open(password, opt.AAD)
	if err != nil {
		return out, err
	}
	defer zeroBytes(plain)

	if err := json.Unmarshal(plain, &out); err != nil {
		return out, errors.Wrap(err, "unmarshal json")
	}
	return out, nil
}

// Reencrypt rewrites the encrypted file at path under a new password.
func Reencrypt[T any](path string, oldPassword, newPassword []byte, opt Options) error {
	v, err := ReadEncryptedJSON[T](path, oldPassword, opt)
	if err != nil {
		return err
	}
	return WriteEncryptedJSON(path, v, newPassword, opt)
}

// ReadJSON decodes the plain JSON file at path.
func ReadJSON[T any](path string) (T, error) {
	var out T
	b, err := os.ReadFile(path)
	if err != nil {
		return out, errors.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, errors.Wrapf(err, "unmarshal %s", path)
	}
	return out, nil
}

// WriteJSON writes v as indented JSON, creating parent directories.
func WriteJSON[T any](path string, v T, opt Options) error {
	o := opt.withDefaults()
	if err := os.MkdirAll(filepath.Dir(path), o.DirectoryPerm); err != nil {
		return errors.Wrapf(err, "mkdir %s", filepath.Dir(path))
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal json")
	}
	return AtomicWriteFile(path, b, o.FilePerm)
}

// AtomicWriteFile writes data to a temp file in the same directory, syncs it
// and renames it over path.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp")
	}
	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.Wrap(err, "write temp")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.Wrap(err, "sync temp")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.Wrap(err, "close temp")
	}
	if err := os.Chmod(name, perm); err != nil {
		cleanup()
		return errors.Wrap(err, "chmod temp")
	}
	if err := os.Rename(name, path); err != nil {
		cleanup()
		return errors.Wrap(err, "rename")
	}
	return nil
}
