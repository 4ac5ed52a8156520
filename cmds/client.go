package cmds

import (
	"net/url"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"github.com/urfave/cli/v2"

	"github.com/dappforge/walletbridge/api"
)

// NewBridgeClient dials the daemon's rpc endpoint from the --listen flag.
func NewBridgeClient(cctx *cli.Context) (api.IWalletBridge, jsonrpc.ClientCloser, error) {
	listen := cctx.String("listen")
	addr, err := DialArgs(listen)
	if err != nil {
		return nil, nil, err
	}

	var bridge api.WalletBridgeStruct
	closer, err := jsonrpc.NewMergeClient(cctx.Context, addr,
		"WalletBridge", []interface{}{&bridge.Internal}, nil)
	if err != nil {
		return nil, nil, err
	}
	return &bridge, closer, nil
}

func DialArgs(addr string) (string, error) {
	ma, err := multiaddr.NewMultiaddr(addr)
	if err == nil {
		_, addr, err := manet.DialArgs(ma)
		if err != nil {
			return "", err
		}

		return "ws://" + addr + "/rpc/v1", nil
	}

	_, err = url.Parse(addr)
	if err != nil {
		return "", err
	}
	return addr + "/rpc/v1", nil
}
