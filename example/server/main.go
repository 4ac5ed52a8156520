package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// A stand-in wallet endpoint for local development. It speaks just enough of
// the injected provider protocol for the daemon: every connect is approved
// with a fixed account on mainnet.
//
//	go run ./example/server
//	walletbridge run --wallet-endpoint ws://127.0.0.1:8546
const (
	listenAddr = "127.0.0.1:8546"
	account    = "0x52908400098527886E0F7030069857D2E4169EE7"
)

type ethService struct{}

func (s *ethService) RequestAccounts() []string {
	fmt.Println("connect approved for", account)
	return []string{account}
}

func (s *ethService) Accounts() []string {
	return []string{account}
}

func (s *ethService) ChainId() hexutil.Big {
	return hexutil.Big(*hexutil.MustDecodeBig("0x1"))
}

type web3Service struct{}

func (s *web3Service) ClientVersion() string {
	return "MetaMask/mock-wallet/v1.0.0"
}

func main() {
	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", &ethService{}); err != nil {
		log.Fatal(err)
	}
	if err := srv.RegisterName("web3", &web3Service{}); err != nil {
		log.Fatal(err)
	}

	fmt.Println("mock wallet listening on ws://" + listenAddr)
	err := http.ListenAndServe(listenAddr, srv.WebsocketHandler([]string{"*"}))
	log.Fatal(err)
}
