package sysinfo

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
)

// memInfo contains system memory and swap usage in bytes.
type memInfo struct {
	Total     uint64
	Used      uint64
	SwapTotal uint64
	SwapUsed  uint64
}

type memorySource interface {
	VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error)
	SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error)
}

type gopsutilMemory struct{}

func (gopsutilMemory) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

func (gopsutilMemory) SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error) {
	return mem.SwapMemoryWithContext(ctx)
}

func getMemoryInfo(ctx context.Context, src memorySource) (*memInfo, error) {
	vm, err := src.VirtualMemory(ctx)
	if err != nil {
		return nil, fmt.Errorf("virtual memory: %w", err)
	}
	swap, err := src.SwapMemory(ctx)
	if err != nil {
		return nil, fmt.Errorf("swap memory: %w", err)
	}

	return &memInfo{
		Total:     vm.Total,
		Used:      vm.Used,
		SwapTotal: swap.Total,
		SwapUsed:  swap.Used,
	}, nil
}
