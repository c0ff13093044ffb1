package memory

import "context"

// Provider enumerates live processes and system memory in one batch.
type Provider interface {
	Collect(ctx context.Context) (*Sample, error)
}

// Sample is one consistent batch of raw figures, all in bytes.
type Sample struct {
	System    SystemSample
	Processes []ProcessSample
}

// SystemSample holds whole-system memory and swap figures.
type SystemSample struct {
	TotalMemory uint64
	UsedMemory  uint64
	TotalSwap   uint64
	UsedSwap    uint64
}

// ProcessSample is the raw record of one live process.
type ProcessSample struct {
	Pid    uint32
	Parent *uint32 // nil when unknown
	Name   string
	Exe    string // empty when unresolvable
	Root   string // empty when unresolvable
	Memory uint64 // resident bytes
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (*Sample, error)

func (f ProviderFunc) Collect(ctx context.Context) (*Sample, error) {
	return f(ctx)
}
