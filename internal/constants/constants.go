package constants

const (
	AppName       = "quantum-wallet-kit"
	KeystoreFile  = "wallet.json"
	AssetsFile    = "assets.json"
	EnvPrefix     = "WALLETKIT"
	ConfigFile    = "config"
	ConfigFileExt = "yaml"

	SchemaV1      = 1
	FilePerm      = 0o600
	DirectoryPerm = 0o700

	NativeAddr     = "0x0000000000000000000000000000000000000000"
	NativeDecimals = 18

	// AAD const for the embedded wallet key file
	AADConstant = "quantum-wallet-kit:keystore:v1"

	CAIP2Namespace = "eip155"
)
