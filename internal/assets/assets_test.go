package assets

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/chains"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/chains/chainstest"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/state"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/wallet/wallettest"
)

var (
	usdc = common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238")
	dai  = common.HexToAddress("0xFF34B3d4Aee8ddCd6F9AFFFB6Fe49bD371b8a357")
	weth = common.HexToAddress("0x7b79995e5f793A07Bc00c21412e50Ecae098E7f9")
)

func defs() []TokenDefinition {
	return []TokenDefinition{
		{Address: weth.Hex(), Symbol: "WETH", Decimals: 18},
		{Address: usdc.Hex(), Symbol: "USDC", Decimals: 6},
		{Address: dai.Hex(), Symbol: "DAI", Decimals: 18},
	}
}

func TestFetchPreservesOrder(t *testing.T) {
	rpc := &chainstest.Client{}
	w := wallettest.New(rpc)
	owner := w.Address()
	rpc.Call = chainstest.ERC20(map[common.Address]*chainstest.Token{
		usdc: {Symbol: "USDC", Decimals: 6, Balances: map[common.Address]*big.Int{owner: big.NewInt(100000000)}},
		dai:  {Symbol: "DAI", Decimals: 18},
		weth: {Symbol: "WETH", Decimals: 18, Balances: map[common.Address]*big.Int{owner: big.NewInt(250_000_000_000_000_000)}},
	})

	f := NewFetcher()
	got, err := f.Fetch(context.Background(), w, defs())
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "WETH", got[0].Symbol)
	assert.Equal(t, "0.25", got[0].Balance)
	assert.Equal(t, "USDC", got[1].Symbol)
	assert.Equal(t, "100", got[1].Balance)
	assert.Equal(t, "100000000", got[1].BalanceRaw.String())
	assert.Equal(t, "DAI", got[2].Symbol)
	assert.Equal(t, "0", got[2].Balance)
	assert.Equal(t, 3, rpc.Calls("eth_call"))
}

func TestFetchEmptyListMakesNoCalls(t *testing.T) {
	rpc := &chainstest.Client{}
	f := NewFetcher()

	got, err := f.Fetch(context.Background(), wallettest.New(rpc), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Zero(t, rpc.TotalCalls())
	assert.Equal(t, state.StatusResolved, f.State().Status)
}

func TestFetchNoWalletMakesNoCalls(t *testing.T) {
	got, err := NewFetcher().Fetch(context.Background(), nil, defs())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchAllOrNothing(t *testing.T) {
	rpc := &chainstest.Client{}
	w := wallettest.New(rpc)
	tokens := map[common.Address]*chainstest.Token{
		usdc: {Symbol: "USDC", Decimals: 6},
		dai:  {Symbol: "DAI", Decimals: 18},
		weth: {Symbol: "WETH", Decimals: 18},
	}
	rpc.Call = chainstest.ERC20(tokens)

	f := NewFetcher()
	first, err := f.Fetch(context.Background(), w, defs())
	require.NoError(t, err)

	boom := errors.New("rpc exploded")
	tokens[dai].Err = boom
	got, err := f.Fetch(context.Background(), w, defs())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, got)

	snap := f.State()
	assert.Equal(t, state.StatusFailed, snap.Status)
	assert.ErrorIs(t, snap.Err, boom)
	assert.Equal(t, first, snap.Value)
}

type fakeSource struct {
	mu   sync.Mutex
	rpc  *chainstest.Client
	nets []string
}

func (s *fakeSource) ClientForNetwork(ctx context.Context, name string) (chains.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nets = append(s.nets, name)
	return s.rpc, nil
}

func TestRegistrySeedAddRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.json")
	src := &fakeSource{rpc: &chainstest.Client{Call: chainstest.ERC20(map[common.Address]*chainstest.Token{
		dai: {Symbol: "DAI", Name: "Dai Stablecoin", Decimals: 18},
	})}}

	r, err := NewRegistry(path, src)
	require.NoError(t, err)

	require.NoError(t, r.Seed("Sepolia", []TokenDefinition{
		{Address: "0x1c7d4b196cb0c7b01d743fbc6116a902379c7238", Symbol: "USDC", Decimals: 6},
	}))
	_, err = os.Stat(path)
	require.NoError(t, err)

	list := r.List("sepolia")
	require.Len(t, list, 1)
	assert.Equal(t, usdc.Hex(), list[0].Address)

	def, err := r.Add(context.Background(), "SEPOLIA", dai.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Dai Stablecoin", def.Name)
	assert.Equal(t, []string{"sepolia"}, src.nets)

	list = r.List("sepolia")
	require.Len(t, list, 2)
	assert.Equal(t, "DAI", list[0].Symbol)
	assert.Equal(t, "USDC", list[1].Symbol)

	// reload from disk
	r2, err := NewRegistry(path, nil)
	require.NoError(t, err)
	require.NoError(t, r2.Load())
	assert.Len(t, r2.List("sepolia"), 2)

	require.NoError(t, r2.Remove("sepolia", dai.Hex()))
	require.NoError(t, r2.Remove("sepolia", usdc.Hex()))
	assert.Empty(t, r2.List("sepolia"))

	_, err = r2.Add(context.Background(), "sepolia", dai.Hex())
	assert.Error(t, err)
	assert.Error(t, r2.Remove("sepolia", "nope"))
}

func TestRegistrySeedKeepsUserTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.json")
	r, err := NewRegistry(path, nil)
	require.NoError(t, err)

	require.NoError(t, r.Seed("sepolia", []TokenDefinition{{Address: usdc.Hex(), Symbol: "USDC-custom", Decimals: 6}}))
	require.NoError(t, r.Seed("sepolia", []TokenDefinition{{Address: usdc.Hex(), Symbol: "USDC", Decimals: 6}}))

	list := r.List("sepolia")
	require.Len(t, list, 1)
	assert.Equal(t, "USDC-custom", list[0].Symbol)
}

func TestRegistryCorruptFileMovedAside(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	r, err := NewRegistry(path, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, r.Load(), ErrCorruptStore)
	assert.Empty(t, r.List("sepolia"))

	aside, err := os.ReadFile(path + ".corrupt")
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(aside))

	require.NoError(t, r.Seed("sepolia", []TokenDefinition{{Address: usdc.Hex(), Symbol: "USDC", Decimals: 6}}))
	assert.Len(t, r.List("sepolia"), 1)
}

func TestLoadTokenList(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "tokens.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
networks:
  Sepolia:
    - address: "0x1c7d4b196cb0c7b01d743fbc6116a902379c7238"
      symbol: USDC
      name: USD Coin
      decimals: 6
`), 0o600))

	got, err := LoadTokenList(yamlPath)
	require.NoError(t, err)
	require.Len(t, got["sepolia"], 1)
	assert.Equal(t, usdc.Hex(), got["sepolia"][0].Address)
	assert.Equal(t, uint8(6), got["sepolia"][0].Decimals)

	jsonPath := filepath.Join(dir, "tokens.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"networks":{"polygon":[{"address":"bad","symbol":"X","decimals":1}]}}`), 0o600))
	_, err = LoadTokenList(jsonPath)
	assert.Error(t, err)

	_, err = LoadTokenList(filepath.Join(dir, "tokens.txt"))
	assert.Error(t, err)
}
