package model

type MemoryStats struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"total_alloc"`
	Sys        uint64 `json:"sys"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapInuse  uint64 `json:"heap_inuse"`
	NumGC      uint32 `json:"num_gc"`
	Goroutines int    `json:"goroutines"`
}

// HealthReport is written as-is, outside the standard envelope.
type HealthReport struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Uptime    float64      `json:"uptime"`
	Memory    *MemoryStats `json:"memory,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// TableCounts is written as-is, outside the standard envelope.
type TableCounts struct {
	Users    int64 `json:"users"`
	Projects int64 `json:"projects"`
	Tasks    int64 `json:"tasks"`
}

type EmailReceipt struct {
	Provider  string            `json:"provider"`
	MessageID string            `json:"messageId"`
	Headers   map[string]string `json:"headers"`
}
