package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Ask the node to generate a wallet",
	Run:   createRun,
}

func init() {
	rootCmd.AddCommand(createCmd)
}

func createRun(cmd *cobra.Command, args []string) {
	var wlt struct {
		Address    string `json:"address"`
		PublicKey  string `json:"publicKey"`
		PrivateKey string `json:"privateKey"`
	}
	if err := newClient(url).post("/api/wallets", nil, &wlt); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Address    :", wlt.Address)
	fmt.Println("Public Key :", wlt.PublicKey)
	fmt.Println("Private Key:", wlt.PrivateKey)
	fmt.Println("Keep the private key safe, the node does not store it.")
}
