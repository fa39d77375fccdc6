package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

type miningStatus struct {
	IsMining bool   `json:"isMining"`
	Status   string `json:"status"`
	Miner    string `json:"miner"`
}

type chainStatus struct {
	Blockchain struct {
		Height              uint64 `json:"height"`
		LatestHash          string `json:"latestHash"`
		PendingTransactions int    `json:"pendingTransactions"`
		TotalSupply         uint64 `json:"totalSupply"`
	} `json:"blockchain"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the status of the node",
	Run:   statusRun,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusRun(cmd *cobra.Command, args []string) {
	c := newClient(url)

	var cs chainStatus
	if err := c.get("/api", &cs); err != nil {
		log.Fatal(err)
	}

	var ms miningStatus
	if err := c.get("/api/mining/status", &ms); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Height      :", cs.Blockchain.Height)
	fmt.Println("Latest Hash :", cs.Blockchain.LatestHash)
	fmt.Println("Pending     :", cs.Blockchain.PendingTransactions)
	fmt.Println("Total Supply:", cs.Blockchain.TotalSupply)
	fmt.Println("Mining      :", ms.Status, ms.Miner)
}
