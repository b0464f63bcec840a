package events

// Board mutation operations.
const (
	OpCreate      = "create"
	OpBulkCreate  = "bulk_create"
	OpUpdate      = "update"
	OpDelete      = "delete"
	OpBulkDelete  = "bulk_delete"
	OpRegistryAdd = "registry_add"
	OpInit        = "init"
)

// MutationEvent is published after a schedule or registry change is applied.
// Records is the board size after the change; Summary is the human label of
// the touched entry or registry value.
type MutationEvent struct {
	Op      string
	EntryID int
	Summary string
	Records int
}
