package public

import (
	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
	"github.com/wtfcosmos/blockchain/foundation/nameservice"
)

type chainStatus struct {
	Height              uint64 `json:"height"`
	LatestHash          string `json:"latestHash"`
	PendingTransactions int    `json:"pendingTransactions"`
	TotalSupply         uint64 `json:"totalSupply"`
	Difficulty          uint16 `json:"difficulty"`
	MiningReward        uint64 `json:"miningReward"`
	TransPerBlock       uint16 `json:"transPerBlock"`
	IsMining            bool   `json:"isMining"`
}

type status struct {
	Blockchain chainStatus `json:"blockchain"`
}

type miningStatus struct {
	IsMining bool   `json:"isMining"`
	Status   string `json:"status"`
	Miner    string `json:"miner,omitempty"`
}

type newWallet struct {
	Address    string `json:"address"`
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

type balance struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Balance uint64 `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

type accounts struct {
	LatestBlock string    `json:"latestBlock"`
	Uncommitted int       `json:"uncommitted"`
	Accounts    []balance `json:"accounts"`
}

type transfer struct {
	FromAddress string `json:"fromAddress" validate:"omitempty,account"`
	ToAddress   string `json:"toAddress" validate:"required,account"`
	Amount      uint64 `json:"amount"`
	PrivateKey  string `json:"privateKey" validate:"required"`
}

type startMining struct {
	MinerAddress string `json:"minerAddress" validate:"required,account"`
}

type submitted struct {
	Status      string `json:"status"`
	ID          string `json:"id"`
	Transaction tx     `json:"transaction"`
}

type tx struct {
	ChainID   uint16 `json:"chainId"`
	Nonce     uint64 `json:"nonce"`
	From      string `json:"from"`
	FromName  string `json:"fromName"`
	To        string `json:"to"`
	ToName    string `json:"toName"`
	Amount    uint64 `json:"amount"`
	TimeStamp uint64 `json:"timestamp"`
	Signature string `json:"signature,omitempty"`
}

type block struct {
	Index        uint64 `json:"index"`
	Hash         string `json:"hash"`
	PreviousHash string `json:"previousHash"`
	TimeStamp    uint64 `json:"timestamp"`
	Nonce        uint64 `json:"nonce"`
	Miner        string `json:"miner"`
	Difficulty   uint16 `json:"difficulty"`
	MiningReward uint64 `json:"miningReward"`
	MerkleRoot   string `json:"merkleRoot"`
	Digest       string `json:"digest"`
	Transactions []tx   `json:"transactions"`
}

type blocks struct {
	Blocks []block `json:"blocks"`
}

// =============================================================================

func toTx(ns *nameservice.NameService, signedTx database.SignedTx) tx {
	t := tx{
		ChainID:   signedTx.ChainID,
		Nonce:     signedTx.Nonce,
		From:      string(signedTx.FromID),
		FromName:  ns.Lookup(signedTx.FromID),
		To:        string(signedTx.ToID),
		ToName:    ns.Lookup(signedTx.ToID),
		Amount:    signedTx.Value,
		TimeStamp: signedTx.TimeStamp,
	}

	if !signedTx.IsCoinbase() {
		t.Signature = signedTx.SignatureString()
	}

	return t
}

func toTxs(ns *nameservice.NameService, signedTxs []database.SignedTx) []tx {
	trans := make([]tx, len(signedTxs))
	for i, signedTx := range signedTxs {
		trans[i] = toTx(ns, signedTx)
	}
	return trans
}

func toBlock(ns *nameservice.NameService, blk database.Block) block {
	return block{
		Index:        blk.Header.Number,
		Hash:         blk.Hash(),
		PreviousHash: blk.Header.PrevBlockHash,
		TimeStamp:    blk.Header.TimeStamp,
		Nonce:        blk.Header.Nonce,
		Miner:        string(blk.Header.BeneficiaryID),
		Difficulty:   blk.Header.Difficulty,
		MiningReward: blk.Header.MiningReward,
		MerkleRoot:   blk.Header.TransRoot,
		Digest:       blk.Header.Digest,
		Transactions: toTxs(ns, blk.Values()),
	}
}

func toBlocks(ns *nameservice.NameService, dbBlocks []database.Block) []block {
	blks := make([]block, len(dbBlocks))
	for i, blk := range dbBlocks {
		blks[i] = toBlock(ns, blk)
	}
	return blks
}
