package node

import (
	"net"
	"path/filepath"
	"strconv"

	"github.com/surety-network/surety/common"
)

// Config holds the collected configuration options of a registry node.
type Config struct {
	// Name is the instance name, used in the HTTP server banner.
	Name string `toml:"-"`

	// DataDir is the root directory for the node's persisted state. An
	// empty value keeps all state in memory, which is only useful for
	// ephemeral test nodes.
	DataDir string

	// Owner is the registry-owner identity. Administrative operations
	// must originate from this address.
	Owner common.Address

	// Origin is the calling-surface identity the RPC services stamp on
	// every gated operation. It is authorized at bootstrap.
	Origin common.Address

	// FirstAirline is admitted during bootstrap of a fresh data dir.
	FirstAirline common.Address

	// Seed primes the oracle index entropy. Zero draws a random seed.
	Seed uint64 `toml:",omitempty"`

	// HTTPHost is the host interface the HTTP server listens on.
	HTTPHost string

	// HTTPPort is the TCP port the HTTP server listens on.
	HTTPPort int

	// HTTPCors is the Cross-Origin Resource Sharing header to send to
	// requesting clients. Be aware that CORS is a browser-enforced
	// security mechanism, it makes no difference to other tooling.
	HTTPCors []string `toml:",omitempty"`

	// WSOrigins is the list of origins accepted on the websocket event
	// stream. Requests without an Origin header are always accepted.
	WSOrigins []string `toml:",omitempty"`

	// JWTSecretFile points at the hex-encoded 32 byte HS256 secret
	// protecting /rpc and /events. Empty disables authentication. The
	// file is created with a fresh secret if it does not exist.
	JWTSecretFile string `toml:",omitempty"`

	// DatabaseCache is the leveldb block cache size in megabytes.
	DatabaseCache int

	// DatabaseHandles is the leveldb open-file allowance.
	DatabaseHandles int `toml:"-"`
}

// DefaultConfig contains the settings a fresh node starts from.
var DefaultConfig = Config{
	Name:            "suretyd",
	HTTPHost:        "127.0.0.1",
	HTTPPort:        8550,
	DatabaseCache:   16,
	DatabaseHandles: 16,
}

// HTTPEndpoint resolves the listen address from the configured host and
// port.
func (c *Config) HTTPEndpoint() string {
	if c.HTTPHost == "" {
		return ""
	}
	return net.JoinHostPort(c.HTTPHost, strconv.Itoa(c.HTTPPort))
}

// ResolvePath resolves path in the instance directory. Absolute paths and
// paths of memory-backed nodes are returned untouched.
func (c *Config) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) || c.DataDir == "" {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

// DatabaseDir is the registry database directory below DataDir.
func (c *Config) DatabaseDir() string {
	if c.DataDir == "" {
		return ""
	}
	return filepath.Join(c.DataDir, "registry")
}
