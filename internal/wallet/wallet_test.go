package wallet

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/chains"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/chains/chainstest"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/securefile"
)

func fastKeystore(t *testing.T) *Keystore {
	t.Helper()
	ks, err := NewKeystore(filepath.Join(t.TempDir(), "wallet.json"))
	require.NoError(t, err)
	ks.Opt.KDF = securefile.KDF{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32}
	return ks
}

func testService(t *testing.T) *chains.Service {
	t.Helper()
	cfg := chains.AllChainsConfig{
		DefaultActiveNetwork: "ethereum",
		Networks: map[string]chains.NetworkConfig{
			"ethereum": {ChainID: 1, RPCs: []chains.RPC{{Name: "public", URL: "http://eth"}}},
			"polygon":  {ChainID: 137, RPCs: []chains.RPC{{Name: "public", URL: "http://polygon"}}},
		},
	}
	svc, err := chains.NewService(context.Background(), cfg, func(ctx context.Context, url string) (chains.Client, error) {
		return &chainstest.Client{}, nil
	})
	require.NoError(t, err)
	return svc
}

func TestKeystoreEnsureCreatesThenLoads(t *testing.T) {
	ks := fastKeystore(t)
	assert.False(t, ks.Exists())

	k1, err := ks.Ensure([]byte("password1"))
	require.NoError(t, err)
	assert.True(t, ks.Exists())

	k2, err := ks.Ensure([]byte("password1"))
	require.NoError(t, err)
	assert.Equal(t, k1.Address(), k2.Address())

	_, err = ks.Ensure([]byte("wrong-password"))
	assert.ErrorIs(t, err, securefile.ErrInvalidPasswordOrCorrupt)
}

func TestKeystoreChangePassword(t *testing.T) {
	ks := fastKeystore(t)
	k1, err := ks.Ensure([]byte("password1"))
	require.NoError(t, err)

	require.NoError(t, ks.ChangePassword([]byte("password1"), []byte("password2")))

	k2, err := ks.Ensure([]byte("password2"))
	require.NoError(t, err)
	assert.Equal(t, k1.Address(), k2.Address())

	_, err = ks.Ensure([]byte("password1"))
	assert.ErrorIs(t, err, securefile.ErrInvalidPasswordOrCorrupt)
}

func TestKeystoreImport(t *testing.T) {
	ks := fastKeystore(t)
	pk, err := crypto.GenerateKey()
	require.NoError(t, err)

	k, err := ks.Import("0x"+common.Bytes2Hex(crypto.FromECDSA(pk)), []byte("password1"))
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(pk.PublicKey), k.Address())

	_, err = ks.Import("nothex", []byte("password1"))
	assert.Error(t, err)
}

func TestEmbeddedWallet(t *testing.T) {
	k, err := NewRandomKey()
	require.NoError(t, err)
	w, err := NewEmbedded(k, testService(t))
	require.NoError(t, err)

	assert.Equal(t, k.Address(), w.Address())
	assert.Equal(t, "eip155:1", w.ChainID())

	require.NoError(t, w.SwitchChain(context.Background(), 137))
	assert.Equal(t, "eip155:137", w.ChainID())
	assert.Error(t, w.SwitchChain(context.Background(), 10))

	digest := crypto.Keccak256([]byte("hello"))
	sig, err := w.SignHash(context.Background(), digest)
	require.NoError(t, err)
	pub, err := crypto.SigToPub(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), crypto.PubkeyToAddress(*pub))

	_, err = w.SignHash(context.Background(), []byte("short"))
	assert.Error(t, err)

	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tx := types.NewTx(&types.DynamicFeeTx{ChainID: big.NewInt(137), To: &to, Gas: 21000, GasTipCap: big.NewInt(1), GasFeeCap: big.NewInt(2), Value: big.NewInt(5)})
	signed, err := w.SignTx(context.Background(), tx, big.NewInt(137))
	require.NoError(t, err)
	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(137)), signed)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), from)
}

func TestNewEmbeddedRejectsMismatchedAddress(t *testing.T) {
	k, err := NewRandomKey()
	require.NoError(t, err)
	k.AddressHex = "0x00000000000000000000000000000000000000aa"
	_, err = NewEmbedded(k, testService(t))
	assert.Error(t, err)
}

func TestConnected(t *testing.T) {
	var e *Embedded
	assert.False(t, Connected(nil))
	assert.False(t, Connected(e))
}

func TestSigToV27(t *testing.T) {
	sig := make([]byte, 65)
	out, err := SigToV27(sig)
	require.NoError(t, err)
	assert.Equal(t, byte(27), out[64])
	assert.Equal(t, byte(0), sig[64])

	sig[64] = 5
	_, err = SigToV27(sig)
	assert.Error(t, err)
	_, err = SigToV27(sig[:10])
	assert.Error(t, err)
}
