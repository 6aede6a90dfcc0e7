package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/urfave/cli/v2"

	clientconfig "github.com/quantumauth-io/quantum-wallet-kit/cmd/quantum-wallet-kit/config"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/chains"
	wallethttp "github.com/quantumauth-io/quantum-wallet-kit/internal/http"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/kit"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/network"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/transfer"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/units"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/wallet"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:    "quantum-wallet-kit",
		Usage:   "Embedded EVM wallet: balances, assets, transfers, signing and network switching",
		Version: fmt.Sprintf("%s (%s, %s)", Version, Commit, BuildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "keystore", Aliases: []string{"k"}, Usage: "Path to the encrypted key file"},
			&cli.StringFlag{Name: "network", Aliases: []string{"n"}, Usage: "Network to activate before running the command"},
			&cli.BoolFlag{Name: "no-wallet", Usage: "Run without unlocking a wallet"},
		},
		Commands: []*cli.Command{
			keyCommand(),
			{
				Name:   "serve",
				Usage:  "Run the local wallet HTTP API",
				Action: serve,
			},
			{
				Name:  "balance",
				Usage: "Print the native or token balance",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "token", Aliases: []string{"t"}, Usage: "ERC-20 token address"},
				},
				Action: balanceCmd,
			},
			{
				Name:   "assets",
				Usage:  "Print balances for the active network's token list",
				Action: assetsCmd,
			},
			{
				Name:   "estimate",
				Usage:  "Preview the fee of a transfer",
				Flags:  transferFlags(),
				Action: estimateCmd,
			},
			{
				Name:   "send",
				Usage:  "Send a native or token transfer and wait for the receipt",
				Flags:  transferFlags(),
				Action: sendCmd,
			},
			{
				Name:  "sign",
				Usage: "Sign a message (EIP-191) or typed data file (EIP-712)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "Message to sign"},
					&cli.StringFlag{Name: "typed", Usage: "Path to an eth_signTypedData_v4 JSON file"},
				},
				Action: signCmd,
			},
			{
				Name:  "network",
				Usage: "Show the active network or switch to another chain",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "switch", Aliases: []string{"s"}, Usage: "Chain id to switch to (137, 0x89, eip155:137)"},
				},
				Action: networkCmd,
			},
			{
				Name:  "history",
				Usage: "Show recent transactions (or NFTs) from the indexer",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "nfts", Usage: "List NFTs instead of transactions"},
				},
				Action: historyCmd,
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal("quantum-wallet-kit failed", "error", err)
	}
}

func transferFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "to", Required: true, Usage: "Recipient address"},
		&cli.StringFlag{Name: "amount", Required: true, Usage: "Amount in human units"},
		&cli.StringFlag{Name: "token", Usage: "ERC-20 token address (omit for native)"},
		&cli.UintFlag{Name: "decimals", Value: 18, Usage: "Token decimals"},
	}
}

func transferParams(c *cli.Context) (transfer.Params, error) {
	dec, err := tokenDecimals(c.Uint("decimals"))
	if err != nil {
		return transfer.Params{}, err
	}
	return transfer.Params{
		To:           c.String("to"),
		Amount:       c.String("amount"),
		TokenAddress: c.String("token"),
		Decimals:     &dec,
	}, nil
}

func tokenDecimals(v uint) (uint8, error) {
	if v > math.MaxUint8 {
		return 0, fmt.Errorf("--decimals must be at most %d, got %d", math.MaxUint8, v)
	}
	return uint8(v), nil
}

func openKit(c *cli.Context) (*kit.Kit, error) {
	cfg, err := clientconfig.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return openKitWith(c, cfg)
}

// openKitWith unlocks the keystore and builds the kit.
func openKitWith(c *cli.Context, cfg *clientconfig.Config) (*kit.Kit, error) {
	var key *wallet.Key
	if !c.Bool("no-wallet") {
		path := c.String("keystore")
		if path == "" {
			path = cfg.Wallet.KeystorePath
		}
		ks, err := wallet.NewKeystore(path)
		if err != nil {
			return nil, err
		}
		pw, err := readPassword(!ks.Exists())
		if err != nil {
			return nil, err
		}
		key, err = ks.Ensure(pw)
		zeroBytes(pw)
		if err != nil {
			return nil, err
		}
	}

	k, err := kit.New(c.Context, cfg.KitConfig(), key)
	if err != nil {
		return nil, err
	}
	if n := c.String("network"); n != "" {
		if err := k.Chains.SwitchChain(c.Context, n); err != nil {
			_ = k.Close()
			return nil, err
		}
	}
	return k, nil
}

func serve(c *cli.Context) error {
	log.Info("quantum-wallet-kit",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	cfg, err := clientconfig.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	k, err := openKitWith(c, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := k.Close(); err != nil {
			log.Error("kit close failed", "error", err)
		}
	}()

	k.StartPolling(c.Context)

	srv := wallethttp.NewServer(k, wallethttp.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	return srv.Run(c.Context)
}

func balanceCmd(c *cli.Context) error {
	k, err := openKit(c)
	if err != nil {
		return err
	}
	defer k.Close()

	var token *common.Address
	if raw := c.String("token"); raw != "" {
		if !common.IsHexAddress(raw) {
			return fmt.Errorf("invalid token address %q", raw)
		}
		a := common.HexToAddress(raw)
		token = &a
	}

	bal, err := k.Balance.Fetch(c.Context, k.Wallet, token)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s\n", units.TruncateAddress(k.Wallet.Address().Hex(), 4), units.FormatTokenAmount(bal, 4))
	return nil
}

func assetsCmd(c *cli.Context) error {
	k, err := openKit(c)
	if err != nil {
		return err
	}
	defer k.Close()

	list, err := k.Assets.Fetch(c.Context, k.Wallet, k.Tokens())
	if err != nil {
		return err
	}
	for _, a := range list {
		fmt.Printf("%-8s %s  %s\n", a.Symbol, units.TruncateAddress(a.Address, 4), units.FormatTokenAmount(a.Balance, 4))
	}
	return nil
}

func estimateCmd(c *cli.Context) error {
	p, err := transferParams(c)
	if err != nil {
		return err
	}
	k, err := openKit(c)
	if err != nil {
		return err
	}
	defer k.Close()

	est, err := k.Transfer.Estimate(c.Context, k.Wallet, p)
	if err != nil {
		return err
	}
	fmt.Printf("gas %d  fee %s\n", est.GasUnits, est.Fee)
	return nil
}

func sendCmd(c *cli.Context) error {
	p, err := transferParams(c)
	if err != nil {
		return err
	}
	k, err := openKit(c)
	if err != nil {
		return err
	}
	defer k.Close()

	hash, err := k.Transfer.Send(c.Context, k.Wallet, p)
	if err != nil {
		return err
	}
	fmt.Println(hash.Hex())
	if id, found := network.ChainID(k.Wallet); found {
		if link := k.Chains.ExplorerTxURL(id, hash); link != "" {
			fmt.Println(link)
		}
	}
	return nil
}

func signCmd(c *cli.Context) error {
	k, err := openKit(c)
	if err != nil {
		return err
	}
	defer k.Close()

	var sig string
	switch {
	case c.String("typed") != "":
		raw, err := os.ReadFile(c.String("typed"))
		if err != nil {
			return err
		}
		sig, err = k.Signer.SignTypedDataJSON(c.Context, k.Wallet, raw)
		if err != nil {
			return err
		}
	case c.IsSet("message"):
		sig, err = k.Signer.SignMessage(c.Context, k.Wallet, c.String("message"))
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("one of --message or --typed is required")
	}
	fmt.Println(sig)
	return nil
}

func networkCmd(c *cli.Context) error {
	k, err := openKit(c)
	if err != nil {
		return err
	}
	defer k.Close()

	if raw := c.String("switch"); raw != "" {
		id, err := chains.ParseChainID(raw)
		if err != nil {
			return err
		}
		if err := k.Network.Switch(c.Context, k.Wallet, id); err != nil {
			return err
		}
	}

	info, ok := network.Describe(k.Wallet)
	if !ok {
		return wallet.ErrNoWallet
	}
	return printJSON(struct {
		network.Info
		Network string `json:"network"`
	}{info, k.ActiveNetwork()})
}

func historyCmd(c *cli.Context) error {
	k, err := openKit(c)
	if err != nil {
		return err
	}
	defer k.Close()

	if c.Bool("nfts") {
		nfts, err := k.NFTs.Refresh(c.Context, k.Wallet)
		if err != nil {
			return err
		}
		return printJSON(nfts)
	}
	txs, err := k.Transactions.Refresh(c.Context, k.Wallet)
	if err != nil {
		return err
	}
	return printJSON(txs)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
