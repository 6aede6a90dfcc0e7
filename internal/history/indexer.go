// Package history serves transaction history and NFT holdings from an
// external indexer and keeps them fresh with periodic polling.
package history

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Indexer is the external source of account history. Nothing in this module
// builds an index; production deployments plug in a hosted indexer.
type Indexer interface {
	Transactions(ctx context.Context, account common.Address) ([]TransactionRecord, error)
	NFTs(ctx context.Context, account common.Address) ([]NFT, error)
}

const (
	DefaultMockTxLatency  = 800 * time.Millisecond
	DefaultMockNFTLatency = time.Second
)

// MockIndexer returns fixed sample data after a simulated latency.
type MockIndexer struct {
	TxLatency  time.Duration
	NFTLatency time.Duration
	Now        func() time.Time
}

func NewMockIndexer() *MockIndexer {
	return &MockIndexer{TxLatency: DefaultMockTxLatency, NFTLatency: DefaultMockNFTLatency, Now: time.Now}
}

var _ Indexer = (*MockIndexer)(nil)

func (m *MockIndexer) Transactions(ctx context.Context, account common.Address) ([]TransactionRecord, error) {
	if err := sleep(ctx, m.TxLatency); err != nil {
		return nil, err
	}
	now := m.now()
	return []TransactionRecord{
		{
			Hash:         "0x123...456",
			Direction:    DirectionSend,
			Amount:       "0.5",
			Symbol:       "ETH",
			Status:       StatusConfirmed,
			Timestamp:    now.Add(-time.Hour),
			Counterparty: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
		},
		{
			Hash:         "0x789...012",
			Direction:    DirectionReceive,
			Amount:       "100",
			Symbol:       "USDC",
			Status:       StatusConfirmed,
			Timestamp:    now.Add(-24 * time.Hour),
			Counterparty: "0x123d35Cc6634C0532925a3b844Bc454e4438f44e",
		},
	}, nil
}

func (m *MockIndexer) NFTs(ctx context.Context, account common.Address) ([]NFT, error) {
	if err := sleep(ctx, m.NFTLatency); err != nil {
		return nil, err
	}
	return []NFT{
		{
			ContractAddress: "0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d",
			TokenID:         "1234",
			Name:            "Bored Ape #1234",
			Description:     "A mock ape for testing",
			Image:           "https://img.seadn.io/files/6b7f3b5894b95f265691f964082269a8.png",
			TokenType:       TokenTypeERC721,
			CollectionName:  "Bored Ape Yacht Club",
		},
	}, nil
}

func (m *MockIndexer) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
