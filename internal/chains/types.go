package chains

type AllChainsConfig struct {
	Networks             map[string]NetworkConfig `json:"networks" yaml:"networks" mapstructure:"networks"`
	DefaultActiveNetwork string                   `json:"defaultActiveNetwork" yaml:"defaultActiveNetwork" mapstructure:"defaultActiveNetwork"`
	PreferredRPCName     string                   `json:"preferredRPC" yaml:"preferredRPC" mapstructure:"preferredRPC"`
}

// NetworkConfig describes a network and its RPC endpoints.
type NetworkConfig struct {
	Name       string `json:"name" yaml:"name" mapstructure:"name"`
	ChainID    uint64 `json:"chainId" yaml:"chainId" mapstructure:"chainId"`
	ChainIDHex string `json:"chainIdHex" yaml:"chainIdHex" mapstructure:"chainIdHex"`
	Symbol     string `json:"symbol" yaml:"symbol" mapstructure:"symbol"`
	RPCs       []RPC  `json:"rpcs" yaml:"rpcs" mapstructure:"rpcs"`
	Explorer   string `json:"explorer" yaml:"explorer" mapstructure:"explorer"`
}

type RPC struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	URL  string `json:"url" yaml:"url" mapstructure:"url"`
}

// Normalize lowercases network keys, copies the key into Name and fills in
// ChainIDHex and Explorer when they are not configured.
func (mc *AllChainsConfig) Normalize() {
	if mc == nil {
		return
	}
	out := make(map[string]NetworkConfig, len(mc.Networks))
	for name, n := range mc.Networks {
		key := normalizeNetworkKey(name)
		if key == "" {
			continue
		}
		n.Name = key
		if n.ChainIDHex == "" && n.ChainID != 0 {
			n.ChainIDHex = FormatChainIDHex(n.ChainID)
		}
		if n.Explorer == "" {
			n.Explorer = ExplorerURL(n.ChainID)
		}
		out[key] = n
	}
	mc.Networks = out
	mc.DefaultActiveNetwork = normalizeNetworkKey(mc.DefaultActiveNetwork)
}
