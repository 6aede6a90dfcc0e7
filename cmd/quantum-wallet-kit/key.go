package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	clientconfig "github.com/quantumauth-io/quantum-wallet-kit/cmd/quantum-wallet-kit/config"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/wallet"
)

func keyCommand() *cli.Command {
	return &cli.Command{
		Name:  "key",
		Usage: "Manage the encrypted wallet key",
		Subcommands: []*cli.Command{
			{
				Name:   "address",
				Usage:  "Unlock the key (creating it if missing) and print its address",
				Action: keyAddress,
			},
			{
				Name:  "import",
				Usage: "Replace the stored key with an existing private key",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Usage: "File holding the hex private key (prompted when omitted)"},
				},
				Action: keyImport,
			},
			{
				Name:   "passwd",
				Usage:  "Re-encrypt the key under a new password",
				Action: keyPasswd,
			},
		},
	}
}

func openKeystore(c *cli.Context) (*wallet.Keystore, error) {
	path := c.String("keystore")
	if path == "" {
		cfg, err := clientconfig.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		path = cfg.Wallet.KeystorePath
	}
	return wallet.NewKeystore(path)
}

func keyAddress(c *cli.Context) error {
	ks, err := openKeystore(c)
	if err != nil {
		return err
	}
	pw, err := readPassword(!ks.Exists())
	if err != nil {
		return err
	}
	defer zeroBytes(pw)

	k, err := ks.Ensure(pw)
	if err != nil {
		return err
	}
	fmt.Println(k.Address().Hex())
	return nil
}

func keyImport(c *cli.Context) error {
	ks, err := openKeystore(c)
	if err != nil {
		return err
	}

	var priv []byte
	if f := c.String("file"); f != "" {
		priv, err = os.ReadFile(f)
	} else {
		priv, err = promptPassword("Private key (hex): ")
	}
	if err != nil {
		return err
	}
	defer zeroBytes(priv)

	pw, err := readPassword(true)
	if err != nil {
		return err
	}
	defer zeroBytes(pw)

	k, err := ks.Import(strings.TrimSpace(string(priv)), pw)
	if err != nil {
		return err
	}
	fmt.Printf("imported %s into %s\n", k.Address().Hex(), ks.Path)
	return nil
}

func keyPasswd(c *cli.Context) error {
	ks, err := openKeystore(c)
	if err != nil {
		return err
	}
	if !ks.Exists() {
		return fmt.Errorf("no key at %s", ks.Path)
	}

	oldPw, err := readPassword(false)
	if err != nil {
		return err
	}
	defer zeroBytes(oldPw)

	newPw, err := promptPassword("New password: ")
	if err != nil {
		return err
	}
	defer zeroBytes(newPw)
	again, err := promptPassword("Repeat new password: ")
	if err != nil {
		return err
	}
	defer zeroBytes(again)
	if string(newPw) != string(again) {
		return fmt.Errorf("passwords do not match")
	}
	if len(strings.TrimSpace(string(newPw))) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLen)
	}

	if err := ks.ChangePassword(oldPw, newPw); err != nil {
		return err
	}
	fmt.Println("password changed")
	return nil
}
