package domain

import (
	"context"
	"io"
)

// AssetRepository defines the interface for the backend asset operations
type AssetRepository interface {
	// List retrieves every asset of the user, bucketed by category and market
	List(ctx context.Context) (Holdings, error)

	// Create persists a new asset and returns the server identifier
	Create(ctx context.Context, asset Asset) (string, error)

	// Update persists changes to an already saved asset
	Update(ctx context.Context, asset Asset) error

	// Delete removes a saved asset by its server identifier
	Delete(ctx context.Context, dbID string) error

	// UpdatePrices asks the backend to refresh market prices of stocks
	UpdatePrices(ctx context.Context) error

	// UploadStatement sends a document for server-side extraction of assets
	UploadStatement(ctx context.Context, upload StatementUpload) (*StatementResult, error)
}

// FamilyMemberRepository defines the interface for reading the family roster
type FamilyMemberRepository interface {
	// List retrieves the family roster
	List(ctx context.Context) (Roster, error)
}

// OrderRepository defines the interface for the durable view-preference store
type OrderRepository interface {
	// Load retrieves the stored order of a bucket.
	// ok is false when nothing has been stored for the key.
	Load(ctx context.Context, key BucketKey) (ids []string, ok bool, err error)

	// Save replaces the stored order of a bucket
	Save(ctx context.Context, key BucketKey, ids []string) error
}

// TokenRepository defines the interface for the session token store
type TokenRepository interface {
	// Get returns the stored tokens; empty strings when absent
	Get(ctx context.Context) (Tokens, error)

	// Set stores the tokens
	Set(ctx context.Context, tokens Tokens) error

	// Clear removes every stored token
	Clear(ctx context.Context) error
}

// ChatRepository defines the interface for the conversational assistant endpoint
type ChatRepository interface {
	// Send posts a message with the conversation so far and returns the reply
	Send(ctx context.Context, message string, history []ChatMessage) (string, error)
}

// Tokens holds the session tokens
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// StatementUpload describes a document sent for extraction
type StatementUpload struct {
	FileName  string
	File      io.Reader
	AssetType Category
	Market    Market
}

// StatementResult is the backend answer to a statement upload
type StatementResult struct {
	Success      bool
	Message      string
	CreatedCount int
}
