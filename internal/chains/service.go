package chains

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/quantumauth-io/quantum-go-utils/log"
)

var (
	ErrNoActiveChain  = errors.New("no active chain")
	ErrUnknownNetwork = errors.New("unknown network")
)

type ResolvedChain struct {
	NetworkName string
	ChainID     uint64
	ChainIDHex  string
	Symbol      string
	Explorer    string

	RPCName string
	URL     string
}

type activeChain struct {
	resolved ResolvedChain
	client   Client
}

// Service tracks the active network and caches one dialed client per network.
type Service struct {
	cfg    AllChainsConfig
	dial   DialFunc
	active atomic.Pointer[activeChain]

	mu               sync.Mutex
	clientsByNetwork map[string]Client
}

// NewService validates the config and activates cfg.DefaultActiveNetwork.
// A nil dial uses DialHTTP.
func NewService(ctx context.Context, cfg AllChainsConfig, dial DialFunc) (*Service, error) {
	cfg.Normalize()
	if len(cfg.Networks) == 0 {
		return nil, errors.New("chains config has no networks")
	}
	if cfg.DefaultActiveNetwork == "" {
		return nil, errors.New("active network is empty")
	}
	if dial == nil {
		dial = DialHTTP
	}

	s := &Service{
		cfg:              cfg,
		dial:             dial,
		clientsByNetwork: make(map[string]Client),
	}

	if err := s.SwitchChain(ctx, cfg.DefaultActiveNetwork); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) ActiveHTTP(ctx context.Context) (Client, error) {
	_ = ctx

	current := s.active.Load()
	if current == nil || current.client == nil {
		return nil, ErrNoActiveChain
	}
	return current.client, nil
}

func (s *Service) Active() (ResolvedChain, error) {
	current := s.active.Load()
	if current == nil {
		return ResolvedChain{}, ErrNoActiveChain
	}
	return current.resolved, nil
}

// Networks lists configured networks ordered by name.
func (s *Service) Networks() []NetworkConfig {
	out := make([]NetworkConfig, 0, len(s.cfg.Networks))
	for _, n := range s.cfg.Networks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Service) SwitchChain(ctx context.Context, networkName string) error {
	networkName = normalizeNetworkKey(networkName)
	if networkName == "" {
		return errors.New("network name is empty")
	}

	// no-op if already active
	if current := s.active.Load(); current != nil && current.resolved.NetworkName == networkName {
		return nil
	}

	resolved, err := s.ResolveNetworkByName(networkName)
	if err != nil {
		return err
	}

	client, err := s.ClientForNetwork(ctx, networkName)
	if err != nil {
		return err
	}

	s.active.Store(&activeChain{resolved: resolved, client: client})
	log.Info("active network switched", "network", resolved.NetworkName, "chainId", resolved.ChainID)
	return nil
}

func (s *Service) SwitchChainByID(ctx context.Context, chainID uint64) (string, error) {
	resolved, err := s.ResolveNetworkByChainID(chainID)
	if err != nil {
		return "", err
	}
	if err := s.SwitchChain(ctx, resolved.NetworkName); err != nil {
		return "", err
	}
	return resolved.NetworkName, nil
}

// ClientForNetwork returns (and caches) the client for a network WITHOUT
// changing the active chain.
func (s *Service) ClientForNetwork(ctx context.Context, networkName string) (Client, error) {
	cacheKey := normalizeNetworkKey(networkName)
	if cacheKey == "" {
		return nil, errors.New("network name is empty")
	}

	s.mu.Lock()
	if existing := s.clientsByNetwork[cacheKey]; existing != nil {
		s.mu.Unlock()
		return existing, nil
	}
	s.mu.Unlock()

	resolved, err := s.ResolveNetworkByName(cacheKey)
	if err != nil {
		return nil, err
	}

	// Dial outside the lock
	dialed, err := s.dial(ctx, resolved.URL)
	if err != nil {
		return nil, fmt.Errorf("dial %q: %w", resolved.NetworkName, err)
	}

	s.mu.Lock()
	if existing := s.clientsByNetwork[cacheKey]; existing != nil {
		s.mu.Unlock()
		closeClient(dialed)
		return existing, nil
	}
	s.clientsByNetwork[cacheKey] = dialed
	s.mu.Unlock()

	return dialed, nil
}

// Close closes all cached clients.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, c := range s.clientsByNetwork {
		closeClient(c)
		delete(s.clientsByNetwork, key)
	}
	s.active.Store(nil)
	return nil
}

func (s *Service) ResolveNetworkByChainID(chainID uint64) (ResolvedChain, error) {
	if chainID == 0 {
		return ResolvedChain{}, errors.New("chainID is 0")
	}
	for networkName, network := range s.cfg.Networks {
		if network.ChainID != chainID {
			continue
		}
		return s.resolveFromNetworkConfig(networkName, network)
	}
	return ResolvedChain{}, errors.Wrapf(ErrUnknownNetwork, "chainID %d", chainID)
}

func (s *Service) ResolveNetworkByName(networkName string) (ResolvedChain, error) {
	key := normalizeNetworkKey(networkName)
	if key == "" {
		return ResolvedChain{}, errors.New("network name is empty")
	}
	network, ok := s.cfg.Networks[key]
	if !ok {
		return ResolvedChain{}, errors.Wrapf(ErrUnknownNetwork, "%q", networkName)
	}
	return s.resolveFromNetworkConfig(key, network)
}

func (s *Service) resolveFromNetworkConfig(networkName string, network NetworkConfig) (ResolvedChain, error) {
	// pick RPC by preferred name; otherwise first
	var selectedRPC *RPC

	if preferred := strings.TrimSpace(s.cfg.PreferredRPCName); preferred != "" {
		for i := range network.RPCs {
			if strings.EqualFold(strings.TrimSpace(network.RPCs[i].Name), preferred) {
				selectedRPC = &network.RPCs[i]
				break
			}
		}
	}
	if selectedRPC == nil {
		if len(network.RPCs) == 0 {
			return ResolvedChain{}, fmt.Errorf("network %q has no RPCs configured", networkName)
		}
		selectedRPC = &network.RPCs[0]
	}

	if strings.TrimSpace(selectedRPC.URL) == "" {
		return ResolvedChain{}, fmt.Errorf("network %q rpc %q url is empty", networkName, selectedRPC.Name)
	}

	return ResolvedChain{
		NetworkName: networkName,
		ChainID:     network.ChainID,
		ChainIDHex:  network.ChainIDHex,
		Symbol:      network.Symbol,
		Explorer:    network.Explorer,
		RPCName:     selectedRPC.Name,
		URL:         strings.TrimSpace(selectedRPC.URL),
	}, nil
}

func normalizeNetworkKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
