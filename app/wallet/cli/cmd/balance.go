package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/wallet"
)

type balance struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Balance uint64 `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	privateKey, err := wallet.Load(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	accountID := wallet.DeriveAddress(privateKey.PublicKey)
	fmt.Println("For Account:", accountID)

	bal, err := queryBalance(newClient(url), accountID)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(bal.Balance)
}

func queryBalance(c client, accountID database.AccountID) (balance, error) {
	var bal balance
	if err := c.get(fmt.Sprintf("/api/wallets/%s/balance", accountID), &bal); err != nil {
		return balance{}, err
	}
	return bal, nil
}
