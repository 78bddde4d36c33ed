package callog

import (
	"context"

	"github.com/modelgate/modelgate/pkg/api"
)

// CallRecord captures one dispatched invocation: who asked for what, which
// provider served it, how long it took, and either the normalized result or
// the error classification.
type CallRecord struct {
	ID         string          `json:"id"`
	Subject    string          `json:"subject,omitempty"`
	Provider   string          `json:"provider"`
	Model      string          `json:"model"`
	Status     string          `json:"status"`
	Result     *api.ChatResult `json:"result,omitempty"`
	ErrorType  string          `json:"error_type,omitempty"`
	ErrorMsg   string          `json:"error_message,omitempty"`
	DurationMS int64           `json:"duration_ms"`
	CreatedAt  int64           `json:"created_at"`
}

// StatusOK marks a successfully completed call; failed calls carry the
// error type instead.
const StatusOK = "ok"

// ListOptions controls pagination, filtering, and ordering for List.
type ListOptions struct {
	After    string // Cursor: return records after this ID.
	Before   string // Cursor: return records before this ID.
	Limit    int    // Maximum number of records to return (default 20, max 100).
	Provider string // Filter by provider name.
	Model    string // Filter by model name.
	Order    string // Sort order: "asc" or "desc" (default "desc").
}

// RecordList holds a paginated list of call records.
type RecordList struct {
	Object  string        `json:"object"`
	Data    []*CallRecord `json:"data"`
	HasMore bool          `json:"has_more"`
	FirstID string        `json:"first_id"`
	LastID  string        `json:"last_id"`
}

// Store handles persistence and retrieval of call records. Save stamps the
// record with the subject from the context; Get and List only return
// records belonging to the context's subject when one is present.
type Store interface {
	// Save persists a call record. Returns ErrConflict when the ID is
	// already taken.
	Save(ctx context.Context, rec *CallRecord) error

	// Get retrieves a record by ID. Returns ErrNotFound when the record
	// does not exist or belongs to another subject.
	Get(ctx context.Context, id string) (*CallRecord, error)

	// List returns a paginated list of records, newest first by default.
	List(ctx context.Context, opts ListOptions) (*RecordList, error)

	// HealthCheck verifies the store connection is functional.
	HealthCheck(ctx context.Context) error

	// Close releases database connections and resources.
	Close() error
}
