// Package sysinfo reads process and memory figures from the operating system.
package sysinfo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/murata-lab/memtree/internal/logging"
	"github.com/murata-lab/memtree/internal/memory"
)

// procHandle is the part of *process.Process the provider reads.
type procHandle interface {
	PpidWithContext(ctx context.Context) (int32, error)
	NameWithContext(ctx context.Context) (string, error)
	ExeWithContext(ctx context.Context) (string, error)
	MemoryInfoWithContext(ctx context.Context) (*process.MemoryInfoStat, error)
}

type procEntry struct {
	pid    int32
	handle procHandle
}

type processLister func(ctx context.Context) ([]procEntry, error)

func listProcesses(ctx context.Context) ([]procEntry, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]procEntry, len(procs))
	for i, p := range procs {
		entries[i] = procEntry{pid: p.Pid, handle: p}
	}
	return entries, nil
}

// Provider implements memory.Provider with gopsutil.
type Provider struct {
	list     processLister
	memory   memorySource
	rootPath func(pid int32) string
	log      *logger.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithLogger sets the logger used for skipped processes.
func WithLogger(l *logger.Logger) ProviderOption {
	return func(p *Provider) {
		p.log = l
	}
}

// NewProvider creates a Provider backed by the host OS.
func NewProvider(opts ...ProviderOption) *Provider {
	p := &Provider{
		list:     listProcesses,
		memory:   gopsutilMemory{},
		rootPath: readRootPath,
		log:      logging.New("sysinfo"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Collect enumerates live processes and system memory in one batch.
// Processes that exit during enumeration are skipped.
func (p *Provider) Collect(ctx context.Context) (*memory.Sample, error) {
	info, err := getMemoryInfo(ctx, p.memory)
	if err != nil {
		return nil, err
	}

	entries, err := p.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	sample := &memory.Sample{
		System: memory.SystemSample{
			TotalMemory: info.Total,
			UsedMemory:  info.Used,
			TotalSwap:   info.SwapTotal,
			UsedSwap:    info.SwapUsed,
		},
		Processes: make([]memory.ProcessSample, 0, len(entries)),
	}

	skipped := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// pid 0 is the kernel idle task on the platforms that list it.
		if e.pid <= 0 {
			continue
		}
		ps, err := p.readProcess(ctx, e)
		if err != nil {
			skipped++
			p.log.Debugln("skip pid", e.pid, err)
			continue
		}
		sample.Processes = append(sample.Processes, ps)
	}
	if skipped > 0 {
		p.log.Debugln("skipped", skipped, "processes that could not be read")
	}

	return sample, nil
}

var errNoName = errors.New("empty process name")

func (p *Provider) readProcess(ctx context.Context, e procEntry) (memory.ProcessSample, error) {
	name, err := e.handle.NameWithContext(ctx)
	if err != nil {
		return memory.ProcessSample{}, fmt.Errorf("name: %w", err)
	}
	if name == "" {
		return memory.ProcessSample{}, errNoName
	}

	mi, err := e.handle.MemoryInfoWithContext(ctx)
	if err != nil {
		return memory.ProcessSample{}, fmt.Errorf("memory info: %w", err)
	}

	ps := memory.ProcessSample{
		Pid:    uint32(e.pid),
		Name:   name,
		Memory: mi.RSS,
		Root:   p.rootPath(e.pid),
	}

	// A ppid of 0 means the process has no parent in the pid space.
	if ppid, err := e.handle.PpidWithContext(ctx); err == nil && ppid > 0 {
		parent := uint32(ppid)
		ps.Parent = &parent
	}
	if exe, err := e.handle.ExeWithContext(ctx); err == nil {
		ps.Exe = exe
	}

	return ps, nil
}
