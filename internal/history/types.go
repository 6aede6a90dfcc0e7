package history

import "time"

type Direction string

const (
	DirectionSend    Direction = "send"
	DirectionReceive Direction = "receive"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

type TransactionRecord struct {
	Hash         string    `json:"hash"`
	Direction    Direction `json:"type"`
	Amount       string    `json:"amount"`
	Symbol       string    `json:"symbol"`
	Status       Status    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	Counterparty string    `json:"counterparty"`
}

type TokenType string

const (
	TokenTypeERC721  TokenType = "ERC721"
	TokenTypeERC1155 TokenType = "ERC1155"
)

type NFT struct {
	ContractAddress string    `json:"contractAddress"`
	TokenID         string    `json:"tokenId"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Image           string    `json:"image,omitempty"`
	TokenType       TokenType `json:"tokenType"`
	CollectionName  string    `json:"collectionName,omitempty"`
}
