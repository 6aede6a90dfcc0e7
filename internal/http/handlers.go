package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/assets"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/chains"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/kit"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/network"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/transfer"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/units"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/wallet"
)

type Handler struct {
	kit *kit.Kit
}

func NewHandler(k *kit.Kit) *Handler {
	return &Handler{kit: k}
}

// -------- DTOs --------

type accountRes struct {
	Address string `json:"address"`
	Short   string `json:"short"`
	ChainID string `json:"chainId"`
}

type balanceRes struct {
	Address string `json:"address"`
	Token   string `json:"token,omitempty"`
	Balance string `json:"balance"`
	Display string `json:"display"`
}

type assetsReq struct {
	// Tokens defaults to the registry's list for the active network.
	Tokens []assets.TokenDefinition `json:"tokens"`
}

type assetRes struct {
	assets.Asset
	Display string `json:"display"`
}

type registryReq struct {
	Network string `json:"network"`
	Address string `json:"address" binding:"required"`
}

type sendRes struct {
	Hash        string `json:"hash"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

type signMessageReq struct {
	Message string `json:"message" binding:"required"`
}

type signatureRes struct {
	Signature string `json:"signature"`
}

type switchReq struct {
	ChainID json.RawMessage `json:"chainId" binding:"required"`
}

type networkRes struct {
	network.Info
	Network string `json:"network"`
}

// GET /healthz
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /wallet/accounts
func (h *Handler) Accounts(c *gin.Context) {
	w := h.kit.Wallet
	if !wallet.Connected(w) {
		ok(c, []accountRes{})
		return
	}
	addr := w.Address().Hex()
	ok(c, []accountRes{{Address: addr, Short: units.TruncateAddress(addr, 4), ChainID: w.ChainID()}})
}

// GET /wallet/balance?token=0x...
func (h *Handler) Balance(c *gin.Context) {
	var token *common.Address
	if raw := strings.TrimSpace(c.Query("token")); raw != "" {
		if !common.IsHexAddress(raw) {
			c.JSON(http.StatusBadRequest, gin.H{JSONKeyOK: false, JSONKeyError: "invalid token address"})
			return
		}
		a := common.HexToAddress(raw)
		token = &a
	}

	bal, err := h.kit.Balance.Fetch(c.Request.Context(), h.kit.Wallet, token)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}

	res := balanceRes{Address: h.kit.Wallet.Address().Hex(), Balance: bal, Display: units.FormatTokenAmount(bal, 4)}
	if token != nil {
		res.Token = token.Hex()
	}
	ok(c, res)
}

// POST /wallet/assets
func (h *Handler) Assets(c *gin.Context) {
	var req assetsReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{JSONKeyOK: false, JSONKeyError: HTTPErrorInvalidJSONText})
			return
		}
	}
	tokens := req.Tokens
	if tokens == nil {
		tokens = h.kit.Tokens()
	}

	list, err := h.kit.Assets.Fetch(c.Request.Context(), h.kit.Wallet, tokens)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}

	out := make([]assetRes, 0, len(list))
	for _, a := range list {
		out = append(out, assetRes{Asset: a, Display: units.FormatTokenAmount(a.Balance, 4)})
	}
	ok(c, out)
}

// GET /wallet/assets/registry?network=
func (h *Handler) Registry(c *gin.Context) {
	ok(c, h.kit.Registry.List(h.networkOrActive(c.Query("network"))))
}

// POST /wallet/assets/registry/add
func (h *Handler) RegistryAdd(c *gin.Context) {
	var req registryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{JSONKeyOK: false, JSONKeyError: err.Error()})
		return
	}
	def, err := h.kit.Registry.Add(c.Request.Context(), h.networkOrActive(req.Network), req.Address)
	if err != nil {
		fail(c, http.StatusBadGateway, err)
		return
	}
	ok(c, def)
}

// POST /wallet/assets/registry/remove
func (h *Handler) RegistryRemove(c *gin.Context) {
	var req registryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{JSONKeyOK: false, JSONKeyError: err.Error()})
		return
	}
	if err := h.kit.Registry.Remove(h.networkOrActive(req.Network), req.Address); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	ok(c, gin.H{"removed": req.Address})
}

// POST /wallet/transfer/estimate
func (h *Handler) Estimate(c *gin.Context) {
	var req transfer.Params
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{JSONKeyOK: false, JSONKeyError: HTTPErrorInvalidJSONText})
		return
	}

	est, err := h.kit.Transfer.Estimate(c.Request.Context(), h.kit.Wallet, req)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	ok(c, est)
}

// POST /wallet/transfer/send
func (h *Handler) Send(c *gin.Context) {
	var req transfer.Params
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{JSONKeyOK: false, JSONKeyError: HTTPErrorInvalidJSONText})
		return
	}

	hash, err := h.kit.Transfer.Send(c.Request.Context(), h.kit.Wallet, req)
	if err != nil {
		res := gin.H{JSONKeyOK: false, JSONKeyError: err.Error()}
		if hash != (common.Hash{}) {
			res[JSONKeyData] = h.sendResult(hash)
		}
		c.JSON(statusFor(err), res)
		return
	}
	ok(c, h.sendResult(hash))
}

// POST /wallet/sign/message
func (h *Handler) SignMessage(c *gin.Context) {
	var req signMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{JSONKeyOK: false, JSONKeyError: err.Error()})
		return
	}
	sig, err := h.kit.Signer.SignMessage(c.Request.Context(), h.kit.Wallet, req.Message)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	ok(c, signatureRes{Signature: sig})
}

// POST /wallet/sign/typed (body: eth_signTypedData_v4 payload)
func (h *Handler) SignTyped(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{JSONKeyOK: false, JSONKeyError: HTTPErrorInvalidJSONText})
		return
	}
	sig, err := h.kit.Signer.SignTypedDataJSON(c.Request.Context(), h.kit.Wallet, raw)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusBadGateway {
			status = http.StatusBadRequest
		}
		fail(c, status, err)
		return
	}
	ok(c, signatureRes{Signature: sig})
}

// GET /wallet/network
func (h *Handler) Network(c *gin.Context) {
	info, found := network.Describe(h.kit.Wallet)
	if !found {
		fail(c, http.StatusConflict, wallet.ErrNoWallet)
		return
	}
	ok(c, networkRes{Info: info, Network: h.kit.ActiveNetwork()})
}

// POST /wallet/network/switch {"chainId": 137 | "eip155:137" | "0x89"}
func (h *Handler) SwitchNetwork(c *gin.Context) {
	var req switchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{JSONKeyOK: false, JSONKeyError: HTTPErrorInvalidJSONText})
		return
	}

	var v any
	if err := json.Unmarshal(req.ChainID, &v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{JSONKeyOK: false, JSONKeyError: HTTPErrorInvalidJSONText})
		return
	}
	id, err := chains.ParseChainID(v)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	if err := h.kit.Network.Switch(c.Request.Context(), h.kit.Wallet, id); err != nil {
		fail(c, statusFor(err), err)
		return
	}
	info, _ := network.Describe(h.kit.Wallet)
	ok(c, networkRes{Info: info, Network: h.kit.ActiveNetwork()})
}

// GET /wallet/history
func (h *Handler) History(c *gin.Context) {
	if !wallet.Connected(h.kit.Wallet) {
		fail(c, http.StatusConflict, wallet.ErrNoWallet)
		return
	}
	if c.Query("refresh") == "true" {
		if _, err := h.kit.Transactions.Refresh(c.Request.Context(), h.kit.Wallet); err != nil {
			fail(c, statusFor(err), err)
			return
		}
	}
	snap := h.kit.Transactions.State()
	ok(c, gin.H{"transactions": snap.Value, "status": snap.Status.String()})
}

// GET /wallet/nfts
func (h *Handler) NFTs(c *gin.Context) {
	if !wallet.Connected(h.kit.Wallet) {
		fail(c, http.StatusConflict, wallet.ErrNoWallet)
		return
	}
	if c.Query("refresh") == "true" {
		if _, err := h.kit.NFTs.Refresh(c.Request.Context(), h.kit.Wallet); err != nil {
			fail(c, statusFor(err), err)
			return
		}
	}
	snap := h.kit.NFTs.State()
	ok(c, gin.H{"nfts": snap.Value, "status": snap.Status.String()})
}

func (h *Handler) sendResult(hash common.Hash) sendRes {
	res := sendRes{Hash: hash.Hex()}
	if id, found := network.ChainID(h.kit.Wallet); found {
		res.ExplorerURL = h.kit.Chains.ExplorerTxURL(id, hash)
	}
	return res
}

func (h *Handler) networkOrActive(n string) string {
	if strings.TrimSpace(n) == "" {
		return h.kit.ActiveNetwork()
	}
	return n
}
