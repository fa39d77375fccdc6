package cmd

import (
	"crypto/ecdsa"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/genesis"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/wallet"
)

var (
	nonce uint64
	to    string
	value uint64
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign a transaction locally and send it to the node",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := wallet.Load(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		id, err := sendWithDetails(newClient(url), privateKey, database.AccountID(to), value, nonce)
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println("Transaction:", id)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().Uint64VarP(&nonce, "nonce", "n", 0, "Nonce for the transaction, 0 uses the nonce after the confirmed and pending ones.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account receiving the value.")
	sendCmd.Flags().Uint64VarP(&value, "value", "v", 0, "Value to send.")
}

// sendWithDetails signs the transfer with the private key, so the key never
// leaves the machine, and submits it to the node.
func sendWithDetails(c client, privateKey *ecdsa.PrivateKey, toID database.AccountID, value uint64, nonce uint64) (string, error) {
	fromID := wallet.DeriveAddress(privateKey.PublicKey)

	var gen genesis.Genesis
	if err := c.get("/api/genesis", &gen); err != nil {
		return "", err
	}

	if nonce == 0 {
		next, err := nextNonce(c, fromID)
		if err != nil {
			return "", err
		}
		nonce = next
	}

	tx, err := database.NewTx(gen.ChainID, nonce, fromID, toID, value, uint64(time.Now().UTC().UnixMilli()))
	if err != nil {
		return "", err
	}

	signedTx, err := tx.Sign(privateKey)
	if err != nil {
		return "", err
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.post("/api/transactions/signed", signedTx, &resp); err != nil {
		return "", err
	}

	return resp.ID, nil
}

// nextNonce returns the nonce that follows the highest one the node knows
// for the account, counting transactions that are still pending.
func nextNonce(c client, fromID database.AccountID) (uint64, error) {
	bal, err := queryBalance(c, fromID)
	if err != nil {
		return 0, err
	}

	var pending []struct {
		From  string `json:"from"`
		Nonce uint64 `json:"nonce"`
	}
	if err := c.get("/api/transactions/pending", &pending); err != nil {
		return 0, err
	}

	nonce := bal.Nonce
	for _, tx := range pending {
		if database.AccountID(tx.From).Equal(fromID) && tx.Nonce > nonce {
			nonce = tx.Nonce
		}
	}

	return nonce + 1, nil
}
