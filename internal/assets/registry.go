package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/chains"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/constants"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/erc20"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/securefile"
)

// ClientSource hands out an RPC client per network. *chains.Service satisfies it.
type ClientSource interface {
	ClientForNetwork(ctx context.Context, networkName string) (chains.Client, error)
}

// ErrCorruptStore means assets.json could not be decoded. The file has been
// moved aside and the registry continues empty.
var ErrCorruptStore = errors.New("assets file is corrupt")

// Registry keeps the per-network token definitions shown to the user and
// persists them to assets.json.
type Registry struct {
	mu      sync.Mutex
	path    string
	clients ClientSource
	store   Store
}

// NewRegistry uses path, or resolves assets.json under the config dir when path is empty.
func NewRegistry(path string, clients ClientSource) (*Registry, error) {
	if path == "" {
		p, err := securefile.ResolvePath(constants.AppName, constants.AssetsFile)
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Registry{
		path:    path,
		clients: clients,
		store:   emptyStore(),
	}, nil
}

func (r *Registry) Path() string { return r.path }

// Load reads assets.json if it exists. Bad entries are skipped; an
// undecodable file yields ErrCorruptStore and an empty registry.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked()
}

// Seed merges defaults for network without overwriting user-added tokens and
// persists when something changed or the file did not exist.
func (r *Registry) Seed(network string, defaults []TokenDefinition) error {
	nk := normalizeNetworkKey(network)
	if nk == "" {
		return fmt.Errorf("network must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if securefile.Exists(r.path) {
		if err := r.loadLocked(); err != nil {
			return err
		}
	}

	byAddr := r.networkLocked(nk)
	changed := !securefile.Exists(r.path)
	for _, d := range defaults {
		addr, err := normalizeAddress(d.Address)
		if err != nil {
			return fmt.Errorf("defaults[%s]: %w", nk, err)
		}
		if _, ok := byAddr[addr]; ok {
			continue
		}
		d.Address = addr
		byAddr[addr] = d
		changed = true
	}

	if changed {
		return r.persistLocked()
	}
	return nil
}

// List returns the tokens of network ordered by symbol.
func (r *Registry) List(network string) []TokenDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()

	byAddr := r.store.Networks[normalizeNetworkKey(network)]
	out := make([]TokenDefinition, 0, len(byAddr))
	for _, a := range byAddr {
		out = append(out, a)
	}

	// stable for UI
	sort.Slice(out, func(i, j int) bool {
		si, sj := strings.ToLower(out[i].Symbol), strings.ToLower(out[j].Symbol)
		if si != sj {
			return si < sj
		}
		return out[i].Address < out[j].Address
	})
	return out
}

// Add reads the token's metadata on chain and stores it.
func (r *Registry) Add(ctx context.Context, network, address string) (TokenDefinition, error) {
	nk := normalizeNetworkKey(network)
	addr, err := normalizeAddress(address)
	if err != nil {
		return TokenDefinition{}, err
	}
	if r.clients == nil {
		return TokenDefinition{}, fmt.Errorf("assets: no rpc clients configured")
	}

	client, err := r.clients.ClientForNetwork(ctx, nk)
	if err != nil {
		return TokenDefinition{}, fmt.Errorf("assets: client for %q: %w", nk, err)
	}
	md, err := erc20.FetchMetadata(ctx, client, common.HexToAddress(addr))
	if err != nil {
		return TokenDefinition{}, fmt.Errorf("assets: fetch %s[%s]: %w", nk, addr, err)
	}

	def := TokenDefinition{Address: addr, Symbol: md.Symbol, Name: md.Name, Decimals: md.Decimals}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.networkLocked(nk)[addr] = def
	if err := r.persistLocked(); err != nil {
		return TokenDefinition{}, err
	}
	log.Info("asset added", "network", nk, "address", addr, "symbol", def.Symbol)
	return def, nil
}

func (r *Registry) Remove(network, address string) error {
	nk := normalizeNetworkKey(network)
	addr, err := normalizeAddress(address)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byAddr := r.store.Networks[nk]
	if byAddr == nil {
		return nil
	}
	delete(byAddr, addr)
	if len(byAddr) == 0 {
		delete(r.store.Networks, nk)
	}
	return r.persistLocked()
}

func (r *Registry) networkLocked(nk string) map[string]TokenDefinition {
	if r.store.Networks == nil {
		r.store.Networks = map[string]map[string]TokenDefinition{}
	}
	if r.store.Networks[nk] == nil {
		r.store.Networks[nk] = map[string]TokenDefinition{}
	}
	return r.store.Networks[nk]
}

func (r *Registry) loadLocked() error {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.store = emptyStore()
			return nil
		}
		return fmt.Errorf("read assets file: %w", err)
	}

	var s Store
	if err := json.Unmarshal(b, &s); err != nil {
		// move it aside so the next write does not destroy it
		aside := r.path + ".corrupt"
		if rerr := os.Rename(r.path, aside); rerr != nil {
			return fmt.Errorf("unmarshal assets file: %w (move aside: %v)", err, rerr)
		}
		r.store = emptyStore()
		return fmt.Errorf("%w: %s moved to %s: %w", ErrCorruptStore, r.path, aside, err)
	}

	normalized := emptyStore()
	if s.Schema != 0 {
		normalized.Schema = s.Schema
	}
	for netKey, byAddr := range s.Networks {
		nk := normalizeNetworkKey(netKey)
		if nk == "" {
			continue
		}
		for addrKey, def := range byAddr {
			addr, err := normalizeAddress(addrKey)
			if err != nil {
				log.Warn("skipping bad asset entry", "network", nk, "address", addrKey)
				continue
			}
			def.Address = addr
			if normalized.Networks[nk] == nil {
				normalized.Networks[nk] = map[string]TokenDefinition{}
			}
			normalized.Networks[nk][addr] = def
		}
	}

	r.store = normalized
	return nil
}

func (r *Registry) persistLocked() error {
	return securefile.WriteJSON(r.path, r.store, securefile.Options{FilePerm: constants.FilePerm, DirectoryPerm: constants.DirectoryPerm})
}

func emptyStore() Store {
	return Store{Schema: constants.SchemaV1, Networks: map[string]map[string]TokenDefinition{}}
}

func normalizeNetworkKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeAddress returns the checksummed form.
func normalizeAddress(addr string) (string, error) {
	a := strings.TrimSpace(addr)
	if a == "" {
		return "", fmt.Errorf("empty address")
	}
	if !strings.HasPrefix(a, "0x") && !strings.HasPrefix(a, "0X") {
		a = "0x" + a
	}
	if !common.IsHexAddress(a) {
		return "", fmt.Errorf("invalid address: %q", addr)
	}
	return common.HexToAddress(a).Hex(), nil
}
