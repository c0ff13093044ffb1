package sysinfo

import (
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/murata-lab/memtree/internal/logging"
)

type fakeProc struct {
	ppid    int32
	ppidErr error
	name    string
	nameErr error
	exe     string
	exeErr  error
	rss     uint64
	memErr  error
}

func (f *fakeProc) PpidWithContext(context.Context) (int32, error) { return f.ppid, f.ppidErr }
func (f *fakeProc) NameWithContext(context.Context) (string, error) { return f.name, f.nameErr }
func (f *fakeProc) ExeWithContext(context.Context) (string, error)  { return f.exe, f.exeErr }

func (f *fakeProc) MemoryInfoWithContext(context.Context) (*process.MemoryInfoStat, error) {
	if f.memErr != nil {
		return nil, f.memErr
	}
	return &process.MemoryInfoStat{RSS: f.rss}, nil
}

type fakeMemory struct {
	vm      *mem.VirtualMemoryStat
	vmErr   error
	swap    *mem.SwapMemoryStat
	swapErr error
}

func (f *fakeMemory) VirtualMemory(context.Context) (*mem.VirtualMemoryStat, error) {
	return f.vm, f.vmErr
}

func (f *fakeMemory) SwapMemory(context.Context) (*mem.SwapMemoryStat, error) {
	return f.swap, f.swapErr
}

func newFakeMemory() *fakeMemory {
	return &fakeMemory{
		vm:   &mem.VirtualMemoryStat{Total: 16 << 30, Used: 4 << 30},
		swap: &mem.SwapMemoryStat{Total: 2 << 30, Used: 1 << 20},
	}
}

func newTestProvider(entries []procEntry, m memorySource) *Provider {
	return &Provider{
		list: func(context.Context) ([]procEntry, error) {
			return entries, nil
		},
		memory: m,
		rootPath: func(pid int32) string {
			if pid == 300 {
				return "/var/lib/containers/abc"
			}
			return "/"
		},
		log: logging.New("sysinfo-test"),
	}
}

func TestCollect_System(t *testing.T) {
	p := newTestProvider(nil, newFakeMemory())

	sample, err := p.Collect(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	sys := sample.System
	if sys.TotalMemory != 16<<30 || sys.UsedMemory != 4<<30 {
		t.Errorf("unexpected memory: %+v", sys)
	}
	if sys.TotalSwap != 2<<30 || sys.UsedSwap != 1<<20 {
		t.Errorf("unexpected swap: %+v", sys)
	}
	if len(sample.Processes) != 0 {
		t.Errorf("expected no processes, got %d", len(sample.Processes))
	}
}

func TestCollect_Processes(t *testing.T) {
	entries := []procEntry{
		{pid: 0, handle: &fakeProc{name: "idle", rss: 1}},
		{pid: 1, handle: &fakeProc{ppid: 0, name: "systemd", exe: "/usr/lib/systemd/systemd", rss: 12 << 20}},
		{pid: 200, handle: &fakeProc{ppid: 1, name: "sshd", exe: "/usr/sbin/sshd", rss: 8 << 20}},
		{pid: 300, handle: &fakeProc{ppid: 200, name: "bash", exeErr: errors.New("permission denied"), rss: 4 << 20}},
	}
	p := newTestProvider(entries, newFakeMemory())

	sample, err := p.Collect(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sample.Processes) != 3 {
		t.Fatalf("expected 3 processes, got %d", len(sample.Processes))
	}

	initProc := sample.Processes[0]
	if initProc.Pid != 1 || initProc.Parent != nil {
		t.Errorf("expected pid 1 without parent, got %+v", initProc)
	}
	if initProc.Exe != "/usr/lib/systemd/systemd" || initProc.Root != "/" {
		t.Errorf("unexpected init paths: %+v", initProc)
	}

	sshd := sample.Processes[1]
	if sshd.Parent == nil || *sshd.Parent != 1 {
		t.Errorf("expected sshd parent 1, got %v", sshd.Parent)
	}
	if sshd.Memory != 8<<20 {
		t.Errorf("expected sshd memory %d, got %d", 8<<20, sshd.Memory)
	}

	bash := sample.Processes[2]
	if bash.Exe != "" {
		t.Errorf("expected empty exe when unreadable, got %q", bash.Exe)
	}
	if bash.Root != "/var/lib/containers/abc" {
		t.Errorf("unexpected root: %q", bash.Root)
	}
}

func TestCollect_SkipsVanished(t *testing.T) {
	entries := []procEntry{
		{pid: 10, handle: &fakeProc{nameErr: process.ErrorProcessNotRunning}},
		{pid: 11, handle: &fakeProc{name: "worker", memErr: process.ErrorProcessNotRunning}},
		{pid: 12, handle: &fakeProc{name: ""}},
		{pid: 13, handle: &fakeProc{ppid: 1, name: "alive", rss: 100}},
	}
	p := newTestProvider(entries, newFakeMemory())

	sample, err := p.Collect(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sample.Processes) != 1 || sample.Processes[0].Pid != 13 {
		t.Fatalf("expected only pid 13, got %+v", sample.Processes)
	}
}

func TestCollect_PpidErrorMeansNoParent(t *testing.T) {
	entries := []procEntry{
		{pid: 50, handle: &fakeProc{ppidErr: errors.New("stat gone"), name: "orphan", rss: 1}},
	}
	p := newTestProvider(entries, newFakeMemory())

	sample, err := p.Collect(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sample.Processes[0].Parent != nil {
		t.Errorf("expected nil parent, got %v", *sample.Processes[0].Parent)
	}
}

func TestCollect_ListError(t *testing.T) {
	p := newTestProvider(nil, newFakeMemory())
	listErr := errors.New("open /proc: permission denied")
	p.list = func(context.Context) ([]procEntry, error) {
		return nil, listErr
	}

	if _, err := p.Collect(context.Background()); !errors.Is(err, listErr) {
		t.Fatalf("expected list error, got %v", err)
	}
}

func TestCollect_MemoryError(t *testing.T) {
	m := newFakeMemory()
	m.swapErr = errors.New("no swap info")
	p := newTestProvider(nil, m)

	if _, err := p.Collect(context.Background()); !errors.Is(err, m.swapErr) {
		t.Fatalf("expected swap error, got %v", err)
	}
}

func TestCollect_Canceled(t *testing.T) {
	entries := []procEntry{
		{pid: 1, handle: &fakeProc{name: "init", rss: 1}},
	}
	p := newTestProvider(entries, newFakeMemory())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Collect(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewProvider_Options(t *testing.T) {
	l := logging.New("custom")
	p := NewProvider(WithLogger(l))

	if p.log != l {
		t.Error("expected custom logger")
	}
	if p.list == nil || p.memory == nil || p.rootPath == nil {
		t.Error("expected OS-backed sources to be set")
	}
}
