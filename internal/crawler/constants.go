package crawler

// Log field names.
const (
	fieldGroup   = "group"
	fieldGroupID = "group_id"
	fieldCount   = "count"
	fieldPages   = "pages"
	fieldAttempt = "attempt"
	fieldOp      = "op"
	fieldStatus  = "status"
	fieldRunID   = "run_id"
	fieldReason  = "reason"
	fieldPath    = "path"
)

// Remote operation names used in logs and metric labels.
const (
	opListGroups  = "list_groups"
	opListMembers = "list_members"
	opGetChat     = "get_chat"
	opLoadPage    = "load_page"
)

// Metric status label values for remote calls.
const (
	statusOK    = "ok"
	statusError = "error"
)
