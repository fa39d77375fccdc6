package main

import "github.com/wtfcosmos/blockchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
