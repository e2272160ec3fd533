package domain

// CrawlStatus is the terminal state of one group's crawl.
type CrawlStatus string

// Crawl status constants.
const (
	StatusDone    CrawlStatus = "done"
	StatusPartial CrawlStatus = "partial"
	StatusFailed  CrawlStatus = "failed"
)

// StopReason records why the loading loop terminated.
type StopReason string

// Stop reason constants.
const (
	StopExhausted StopReason = "exhausted"
	StopConverged StopReason = "converged"
	StopCapped    StopReason = "capped"
	StopRemote    StopReason = "remote_failure"
)

// GroupResult is the outcome of one group inside a multi-group run. Failed
// groups carry the underlying error text for diagnostics.
type GroupResult struct {
	GroupID      string      `json:"groupId"`
	GroupName    string      `json:"groupName"`
	Status       CrawlStatus `json:"status"`
	StopReason   StopReason  `json:"stopReason,omitempty"`
	MessageCount int         `json:"messageCount"`
	Pages        int         `json:"pages"`
	OutputPath   string      `json:"outputPath,omitempty"`
	Notes        []string    `json:"notes,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// RunSummary aggregates a multi-group run. One group's failure never aborts
// the remaining groups; it only moves the counters.
type RunSummary struct {
	TotalGroups int           `json:"totalGroups"`
	Successful  int           `json:"successful"`
	Failed      int           `json:"failed"`
	Results     []GroupResult `json:"results"`
}
