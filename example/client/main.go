package main

import (
	"context"
	"fmt"
	"log"

	"github.com/filecoin-project/go-jsonrpc"

	"github.com/dappforge/walletbridge/api"
	"github.com/dappforge/walletbridge/walletmgr"
)

// A minimal ui-side consumer: trigger a connect, print the resulting state
// and stream lifecycle events until interrupted. Run the daemon first:
//
//	walletbridge run --wallet-endpoint ws://127.0.0.1:8546
func main() {
	ctx := context.Background()

	var bridge api.WalletBridgeStruct
	closer, err := jsonrpc.NewMergeClient(ctx, "ws://127.0.0.1:45232/rpc/v1",
		"WalletBridge", []interface{}{&bridge.Internal}, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer closer()

	events, err := bridge.ListenWalletEvents(ctx)
	if err != nil {
		log.Fatal(err)
	}

	state, err := bridge.ConnectWallet(ctx, walletmgr.ConnectOptions{
		UserAgent: "example-client",
		PageURL:   "https://dapp.example.com",
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("state: %s account: %s network: %s\n", state.State, state.Account, state.Network)

	infos, err := bridge.ListNetworks(ctx)
	if err != nil {
		log.Fatal(err)
	}
	for _, info := range infos {
		fmt.Printf("supported: %s (chain %d)\n", info.Name, info.ChainID)
	}

	for evt := range events {
		fmt.Printf("event %s: %s\n", evt.Topic, string(evt.Payload))
	}
}
