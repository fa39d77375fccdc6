package cmd

import (
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/wallet"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new key pair and save it to the key file",
	Run:   generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		log.Fatal(err)
	}

	path := getPrivateKeyPath()
	if err := wallet.Save(path, privateKey); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Key File:", path)
	fmt.Println("Account :", wallet.DeriveAddress(privateKey.PublicKey))
}
