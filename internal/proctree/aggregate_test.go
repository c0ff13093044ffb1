package proctree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murata-lab/memtree/internal/storage"
)

// mapLedger keeps own and total byte counts in maps.
type mapLedger struct {
	own    map[Pid]uint64
	totals map[Pid]uint64
}

func newLedger(own map[Pid]uint64) *mapLedger {
	totals := make(map[Pid]uint64, len(own))
	for pid, b := range own {
		totals[pid] = b
	}
	return &mapLedger{own: own, totals: totals}
}

func (l *mapLedger) Own(pid Pid) (storage.Storage, bool) {
	b, ok := l.own[pid]
	return storage.FromBytes(b), ok
}

func (l *mapLedger) SetTotal(pid Pid, total storage.Storage) {
	l.totals[pid] = total.Bytes()
}

func TestAggregate_Chain(t *testing.T) {
	tree, err := Build(map[Pid]Edge{
		2: top("a"),
		3: edge(2, "b"),
		4: edge(3, "c"),
	})
	require.NoError(t, err)

	l := newLedger(map[Pid]uint64{2: 10, 3: 20, 4: 30})
	Aggregate(tree, l)

	assert.Equal(t, uint64(30), l.totals[4])
	assert.Equal(t, uint64(50), l.totals[3])
	assert.Equal(t, uint64(60), l.totals[2])
}

func TestAggregate_OrderIndependent(t *testing.T) {
	edges := map[Pid]Edge{
		4: edge(3, "c"),
		3: edge(2, "b"),
		2: top("a"),
		6: edge(2, "d"),
		7: edge(6, "e"),
	}
	own := map[Pid]uint64{2: 1 << 20, 3: 2048, 4: 3, 6: 1 << 30, 7: 5}

	var first map[Pid]uint64
	for i := 0; i < 20; i++ {
		tree, err := Build(edges)
		require.NoError(t, err)

		l := newLedger(own)
		Aggregate(tree, l)
		if first == nil {
			first = l.totals
			continue
		}
		assert.Equal(t, first, l.totals)
	}
	assert.Equal(t, uint64(1<<20+2048+3+1<<30+5), first[2])
}

func TestAggregate_InitKeepsOwnMemory(t *testing.T) {
	tree, err := Build(map[Pid]Edge{
		1:   top("init"),
		100: edge(1, "daemon"),
	})
	require.NoError(t, err)

	l := newLedger(map[Pid]uint64{1: 5, 100: 15})
	Aggregate(tree, l)

	assert.Equal(t, uint64(15), l.totals[100])
	assert.Equal(t, uint64(5), l.totals[1])
}

func TestAggregate_InitChildrenStillRollUp(t *testing.T) {
	tree, err := Build(map[Pid]Edge{
		1:   top("init"),
		100: edge(1, "sshd"),
		101: edge(100, "sshd-session"),
		102: edge(101, "bash"),
	})
	require.NoError(t, err)

	l := newLedger(map[Pid]uint64{1: 5, 100: 10, 101: 20, 102: 40})
	Aggregate(tree, l)

	assert.Equal(t, uint64(70), l.totals[100])
	assert.Equal(t, uint64(60), l.totals[101])
	assert.Equal(t, uint64(5), l.totals[1])
}

func TestAggregate_MissingRecordCountsZero(t *testing.T) {
	tree, err := Build(map[Pid]Edge{
		2: top("a"),
		3: edge(2, "ghost"),
		4: edge(3, "c"),
	})
	require.NoError(t, err)

	l := newLedger(map[Pid]uint64{2: 10, 4: 30})
	Aggregate(tree, l)

	assert.Equal(t, uint64(40), l.totals[2])
	_, wrote := l.totals[3]
	assert.False(t, wrote)
}

func TestAggregate_DetachedKeepsInitialTotal(t *testing.T) {
	tree, err := Build(map[Pid]Edge{
		2: top("a"),
		5: edge(999, "orphan"),
		6: edge(5, "orphan-child"),
	})
	require.NoError(t, err)

	l := newLedger(map[Pid]uint64{2: 10, 5: 7, 6: 9})
	Aggregate(tree, l)

	assert.Equal(t, uint64(7), l.totals[5])
	assert.Equal(t, uint64(9), l.totals[6])
}

func TestAggregate_DeepChain(t *testing.T) {
	const depth = 100000

	edges := make(map[Pid]Edge, depth)
	own := make(map[Pid]uint64, depth)
	edges[2] = top("p")
	own[2] = 1
	for pid := Pid(3); pid < depth+2; pid++ {
		edges[pid] = edge(pid-1, "p")
		own[pid] = 1
	}

	tree, err := Build(edges)
	require.NoError(t, err)

	l := newLedger(own)
	Aggregate(tree, l)
	assert.Equal(t, uint64(depth), l.totals[2])
}

func TestSubtreeTotal(t *testing.T) {
	tree, err := Build(map[Pid]Edge{
		1:   top("init"),
		100: edge(1, "daemon"),
		200: top("kthreadd"),
	})
	require.NoError(t, err)

	l := newLedger(map[Pid]uint64{1: 5, 100: 15, 200: 1})

	assert.Equal(t, uint64(20), SubtreeTotal(tree, l, 1).Bytes())
	assert.Equal(t, uint64(21), SubtreeTotal(tree, l, RootID).Bytes())
	assert.Equal(t, uint64(0), SubtreeTotal(tree, l, 42).Bytes())
}
