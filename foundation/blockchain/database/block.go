package database

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/wtfcosmos/blockchain/foundation/blockchain/genesis"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/merkle"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/signature"
)

// BlockHeader represents common information required for each block. The
// block hash is calculated over the header and the header commits to the
// transactions through the merkle root.
type BlockHeader struct {
	Number        uint64    `json:"number"`          // Ethereum: Block number in the chain.
	PrevBlockHash string    `json:"prev_block_hash"` // Bitcoin: Hash of the previous block in the chain.
	TimeStamp     uint64    `json:"timestamp"`       // Bitcoin: Time the block was mined in milliseconds.
	Nonce         uint64    `json:"nonce"`           // Bitcoin: Value identified to solve the hash solution.
	BeneficiaryID AccountID `json:"beneficiary"`     // Ethereum: The account who is receiving the reward.
	Difficulty    uint16    `json:"difficulty"`      // Ethereum: Number of 0's needed to solve the hash solution.
	MiningReward  uint64    `json:"mining_reward"`   // Ethereum: The reward for mining this block.
	TransRoot     string    `json:"trans_root"`      // Bitcoin/Ethereum: Represents the merkle tree root hash for the transactions in this block.
	Digest        string    `json:"digest"`          // Digest algorithm used for the hash and merkle tree.
}

// Block represents a group of transactions batched together.
type Block struct {
	Header BlockHeader
	Trans  *merkle.Tree[SignedTx]
}

// GenesisBlock constructs block 0 from the genesis rules. It carries no
// transactions and is never mined.
func GenesisBlock(gen genesis.Genesis) (Block, error) {
	tree, err := newTree(gen.Digest, nil)
	if err != nil {
		return Block{}, err
	}

	b := Block{
		Header: BlockHeader{
			Number:        0,
			PrevBlockHash: signature.ZeroHash,
			TimeStamp:     uint64(gen.Date.UTC().UnixMilli()),
			BeneficiaryID: CoinbaseID,
			Difficulty:    gen.Difficulty,
			TransRoot:     tree.RootHex(),
			Digest:        gen.Digest,
		},
		Trans: tree,
	}

	return b, nil
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	ChainID       uint16
	BeneficiaryID AccountID
	Difficulty    uint16
	MiningReward  uint64
	Digest        string
	PrevBlock     Block
	TimeStamp     uint64
	Trans         []SignedTx
	EvHandler     func(v string, args ...any)
}

// NewCandidate constructs the next block to be mined. The reward transaction
// is placed in front of the specified transactions.
func NewCandidate(args POWArgs) (Block, error) {
	number := args.PrevBlock.Header.Number + 1

	// Blocks in the same millisecond are fine but time can't go backwards.
	timeStamp := args.TimeStamp
	if timeStamp < args.PrevBlock.Header.TimeStamp {
		timeStamp = args.PrevBlock.Header.TimeStamp
	}

	trans := make([]SignedTx, 0, len(args.Trans)+1)
	trans = append(trans, NewCoinbaseTx(args.ChainID, number, args.BeneficiaryID, args.MiningReward, timeStamp))
	trans = append(trans, args.Trans...)

	// Construct a merkle tree from the transaction for this block. The root
	// of this tree will be part of the block to be mined.
	tree, err := newTree(args.Digest, trans)
	if err != nil {
		return Block{}, err
	}

	nb := Block{
		Header: BlockHeader{
			Number:        number,
			PrevBlockHash: args.PrevBlock.Hash(),
			TimeStamp:     timeStamp,
			Nonce:         0, // Will be identified by the POW algorithm.
			BeneficiaryID: args.BeneficiaryID,
			Difficulty:    args.Difficulty,
			MiningReward:  args.MiningReward,
			TransRoot:     tree.RootHex(),
			Digest:        args.Digest,
		},
		Trans: tree,
	}

	return nb, nil
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	nb, err := NewCandidate(args)
	if err != nil {
		return Block{}, err
	}

	ev := args.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	// Perform the proof of work mining operation.
	if err := nb.performPOW(ctx, ev); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, ev func(v string, args ...any)) error {
	ev("database: PerformPOW: MINING: started: blk[%d]", b.Header.Number)
	defer ev("database: PerformPOW: MINING: completed: blk[%d]", b.Header.Number)

	// Log the transactions that are a part of this potential block.
	for _, tx := range b.Trans.Values() {
		ev("database: PerformPOW: MINING: tx[%s]", tx)
	}

	// Choose a random starting point for the nonce. After this, the nonce
	// will be incremented by 1 until a solution is found.
	nBig, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return err
	}
	b.Header.Nonce = nBig.Uint64()

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: PerformPOW: MINING: attempts[%d]", attempts)
		}

		// Were we asked to stop trying to solve the problem.
		if ctx.Err() != nil {
			ev("database: PerformPOW: MINING: CANCELLED")
			return ctx.Err()
		}

		// Hash the block and check if we have solved the puzzle.
		hash := b.Hash()
		if !isHashSolved(b.Header.Difficulty, hash) {
			b.Header.Nonce++
			continue
		}

		ev("database: PerformPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.Header.PrevBlockHash, hash)
		ev("database: PerformPOW: MINING: attempts[%d]", attempts)

		return nil
	}
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() string {
	return signature.HashWith(b.Header.Digest, b.Header)
}

// Values returns the transactions in the block in order.
func (b Block) Values() []SignedTx {
	if b.Trans == nil {
		return nil
	}
	return b.Trans.Values()
}

// ValidateBlock takes a block and validates it to be included into the
// blockchain after the specified block. Only the structure of the block is
// checked here, the transactions are checked when they are applied.
func (b Block) ValidateBlock(previousBlock Block, evHandler func(v string, args ...any)) error {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.Header.Number)

	nextNumber := previousBlock.Header.Number + 1
	if b.Header.Number != nextNumber {
		return fmt.Errorf("%w: this block is not the next number, got %d, exp %d", ErrChainBroken, b.Header.Number, nextNumber)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Header.Number)

	if b.Header.PrevBlockHash != previousBlock.Hash() {
		return fmt.Errorf("%w: parent block hash doesn't match our known parent, got %s, exp %s", ErrChainBroken, b.Header.PrevBlockHash, previousBlock.Hash())
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block rules match the chain", b.Header.Number)

	if b.Header.Difficulty != previousBlock.Header.Difficulty {
		return fmt.Errorf("%w: block difficulty %d, chain difficulty %d", ErrChainBroken, b.Header.Difficulty, previousBlock.Header.Difficulty)
	}

	if b.Header.Digest != previousBlock.Header.Digest {
		return fmt.Errorf("%w: block digest %q, chain digest %q", ErrChainBroken, b.Header.Digest, previousBlock.Header.Digest)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Header.Number)

	hash := b.Hash()
	if !isHashSolved(b.Header.Difficulty, hash) {
		return fmt.Errorf("%w: %s invalid block hash", ErrChainBroken, hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block's timestamp is not before parent block's timestamp", b.Header.Number)

	if b.Header.TimeStamp < previousBlock.Header.TimeStamp {
		return fmt.Errorf("%w: block timestamp is before parent block, parent %d, block %d", ErrChainBroken, previousBlock.Header.TimeStamp, b.Header.TimeStamp)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: merkle root does match transactions", b.Header.Number)

	if b.Trans == nil || b.Header.TransRoot != b.Trans.RootHex() {
		return fmt.Errorf("%w: merkle root does not match transactions", ErrChainBroken)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: first transaction is the reward", b.Header.Number)

	trans := b.Trans.Values()
	if len(trans) == 0 {
		return fmt.Errorf("%w: block is missing the reward transaction", ErrChainBroken)
	}

	cb := trans[0]
	if !cb.IsCoinbase() || !cb.ToID.Equal(b.Header.BeneficiaryID) || cb.Value != b.Header.MiningReward || cb.Nonce != b.Header.Number {
		return fmt.Errorf("%w: invalid reward transaction %s", ErrChainBroken, cb)
	}

	for i, tx := range trans[1:] {
		if tx.IsCoinbase() {
			return fmt.Errorf("%w: tx[%d] is an extra reward transaction", ErrChainBroken, i+1)
		}
	}

	return nil
}

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint16, hash string) bool {
	const prefix = "0x"

	if len(hash) != 66 || hash[:2] != prefix || int(difficulty) > 64 {
		return false
	}

	for _, c := range hash[2 : 2+difficulty] {
		if c != '0' {
			return false
		}
	}

	return true
}

// =============================================================================

// BlockData represents what can be serialized to disk and over the network.
type BlockData struct {
	Hash   string      `json:"hash"`
	Header BlockHeader `json:"block"`
	Trans  []SignedTx  `json:"trans"`
}

// NewBlockData constructs block data from a block.
func NewBlockData(block Block) BlockData {
	blockData := BlockData{
		Hash:   block.Hash(),
		Header: block.Header,
		Trans:  block.Values(),
	}

	return blockData
}

// ToBlock converts a storage block into a database block. The stored hash
// must match the hash calculated from the header.
func ToBlock(blockData BlockData) (Block, error) {
	tree, err := newTree(blockData.Header.Digest, blockData.Trans)
	if err != nil {
		return Block{}, err
	}

	block := Block{
		Header: blockData.Header,
		Trans:  tree,
	}

	if blockData.Hash != "" && blockData.Hash != block.Hash() {
		return Block{}, errors.New("stored hash does not match block header")
	}

	return block, nil
}

// newTree builds the transaction tree with the hash strategy for the digest.
func newTree(digest string, trans []SignedTx) (*merkle.Tree[SignedTx], error) {
	hasher, err := signature.Hasher(digest)
	if err != nil {
		return nil, err
	}

	return merkle.NewTree(trans, merkle.WithHashStrategy[SignedTx](hasher))
}
