package cmds

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/dappforge/walletbridge/walletmgr"
)

var WalletCmds = &cli.Command{
	Name:        "wallet",
	Usage:       "wallet connection cmds",
	Subcommands: []*cli.Command{stateCmd, connectCmd, disconnectCmd, networksCmd, listenCmd},
}

var stateCmd = &cli.Command{
	Name:  "state",
	Usage: "show the current connection state",
	Action: func(cctx *cli.Context) error {
		bridge, closer, err := NewBridgeClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		state, err := bridge.WalletState(cctx.Context)
		if err != nil {
			return err
		}
		return printJSON(state)
	},
}

var connectCmd = &cli.Command{
	Name:  "connect",
	Usage: "request wallet account access",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "user-agent",
			Usage: "user agent of the requesting page, decides the install offer flavor",
		},
		&cli.StringFlag{
			Name:  "page-url",
			Usage: "url of the requesting page, used for the mobile deep link",
		},
	},
	Action: func(cctx *cli.Context) error {
		bridge, closer, err := NewBridgeClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		state, err := bridge.ConnectWallet(cctx.Context, walletmgr.ConnectOptions{
			UserAgent: cctx.String("user-agent"),
			PageURL:   cctx.String("page-url"),
		})
		if err != nil {
			return err
		}
		return printJSON(state)
	},
}

var disconnectCmd = &cli.Command{
	Name:  "disconnect",
	Usage: "tear the wallet connection down",
	Action: func(cctx *cli.Context) error {
		bridge, closer, err := NewBridgeClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		state, err := bridge.DisconnectWallet(cctx.Context)
		if err != nil {
			return err
		}
		return printJSON(state)
	},
}

var networksCmd = &cli.Command{
	Name:  "networks",
	Usage: "list the supported networks",
	Action: func(cctx *cli.Context) error {
		bridge, closer, err := NewBridgeClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		infos, err := bridge.ListNetworks(cctx.Context)
		if err != nil {
			return err
		}
		return printJSON(infos)
	},
}

var listenCmd = &cli.Command{
	Name:  "listen",
	Usage: "stream lifecycle events until interrupted",
	Action: func(cctx *cli.Context) error {
		bridge, closer, err := NewBridgeClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		events, err := bridge.ListenWalletEvents(cctx.Context)
		if err != nil {
			return err
		}
		for evt := range events {
			if err := printJSON(evt); err != nil {
				return err
			}
		}
		return nil
	},
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, " ", "\t")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
