package xrpl

import (
	"github.com/hardcastle/ledger-direct-backend/pkg/enums"
)

// NetworkInfo carries the chain-level identity of an XRP Ledger network.
type NetworkInfo struct {
	ID         uint16
	JSONRPCURL string
}

var networkInfoByNetwork = map[enums.Network]NetworkInfo{
	enums.NetworkMainnet: {ID: 0, JSONRPCURL: "https://xrplcluster.com"},
	enums.NetworkTestnet: {ID: 1, JSONRPCURL: "https://s.altnet.rippletest.net:51234"},
}

// NetworkFor resolves the network id and default JSON-RPC endpoint for a
// configured network.
func NetworkFor(network enums.Network) NetworkInfo {
	if info, ok := networkInfoByNetwork[network]; ok {
		return info
	}
	return networkInfoByNetwork[enums.NetworkTestnet]
}
