// Package feed turns a docstore backend without native watch support into a
// watchable one. A Publisher wraps the store and emits a change record to
// Kafka after every committed write; a Listener consumes the topic into an
// in-memory mirror and serves subscriptions from it. Records on one topic
// partition arrive in emission order, which is the ordering guarantee the
// mirrors rely on.
package feed

import (
	"encoding/json"
	"time"
)

const (
	OpSet    = "set"
	OpDelete = "delete"
)

// ChangeRecord describes one committed document write.
type ChangeRecord struct {
	Collection string          `json:"collection"`
	DocID      string          `json:"doc_id"`
	Op         string          `json:"op"`
	Data       json.RawMessage `json:"data,omitempty"`
	At         time.Time       `json:"at"`
}
