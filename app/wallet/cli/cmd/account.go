package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/wallet"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print account for the specific wallet",
	Run:   accountRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

func accountRun(cmd *cobra.Command, args []string) {
	privateKey, err := wallet.Load(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(wallet.DeriveAddress(privateKey.PublicKey))
}
