package store

// Key grant sources.
const (
	SourceGiveKey     = "give-key"
	SourceGiveAllKeys = "give-all-keys"
)

// KeyGrant records one ledger increment.
type KeyGrant struct {
	ID      string `json:"id"`
	Seq     int64  `json:"seq"`
	Tick    uint64 `json:"tick"`
	Player  string `json:"player"`
	Crate   string `json:"crate"`
	Amount  int    `json:"amount"`
	Balance int    `json:"balance"`
	Source  string `json:"source"`
}

// OpenAttempt records an open-crate request. Outcome is "scheduled" when a
// reveal queue was started, otherwise the cancellation reason.
type OpenAttempt struct {
	ID      string `json:"id"`
	Seq     int64  `json:"seq"`
	Tick    uint64 `json:"tick"`
	Player  string `json:"player"`
	Crate   string `json:"crate"`
	Entity  string `json:"entity,omitempty"`
	Outcome string `json:"outcome"`
	Item    string `json:"item,omitempty"`
	QueueID string `json:"queue_id,omitempty"`
}

// StageRun records one executed stage.
type StageRun struct {
	ID         string `json:"id"`
	Seq        int64  `json:"seq"`
	Tick       uint64 `json:"tick"`
	QueueID    string `json:"queue_id"`
	Player     string `json:"player"`
	Crate      string `json:"crate"`
	StageIndex int    `json:"stage_index"`
	StageName  string `json:"stage_name"`
}

// QueueResult records the terminal state of a queue.
type QueueResult struct {
	QueueID   string `json:"queue_id"`
	Seq       int64  `json:"seq"`
	Tick      uint64 `json:"tick"`
	Player    string `json:"player"`
	Crate     string `json:"crate"`
	State     string `json:"state"`
	StagesRun int    `json:"stages_run"`
}

// Entry is one row of a player's merged history.
type Entry struct {
	Seq    int64  `json:"seq"`
	Tick   uint64 `json:"tick"`
	Kind   string `json:"kind"` // "key_grant", "open_attempt", "queue_result"
	Player string `json:"player"`
	Crate  string `json:"crate"`
	Detail string `json:"detail"`
}
