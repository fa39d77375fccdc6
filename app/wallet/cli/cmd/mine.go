package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/wallet"
)

var miner string

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Control the mining session of the node",
}

var mineStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start mining, paying the rewards to the miner account",
	Run: func(cmd *cobra.Command, args []string) {
		minerAddress := miner
		if minerAddress == "" {
			privateKey, err := wallet.Load(getPrivateKeyPath())
			if err != nil {
				log.Fatal(err)
			}
			minerAddress = string(wallet.DeriveAddress(privateKey.PublicKey))
		}

		req := struct {
			MinerAddress string `json:"minerAddress"`
		}{
			MinerAddress: minerAddress,
		}

		var ms miningStatus
		if err := newClient(url).post("/api/mining/start", req, &ms); err != nil {
			log.Fatal(err)
		}

		fmt.Println(ms.Status, ms.Miner)
	},
}

var mineStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop mining",
	Run: func(cmd *cobra.Command, args []string) {
		var ms miningStatus
		if err := newClient(url).post("/api/mining/stop", nil, &ms); err != nil {
			log.Fatal(err)
		}

		fmt.Println(ms.Status)
	},
}

func init() {
	mineStartCmd.Flags().StringVarP(&miner, "miner", "m", "", "Account receiving the rewards, defaults to the key file account.")
	mineCmd.AddCommand(mineStartCmd, mineStopCmd)
	rootCmd.AddCommand(mineCmd)
}
