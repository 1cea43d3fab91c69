package directory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/theivess/trackerd/status"
	"github.com/theivess/trackerd/trackererr"
)

func TestAddThenQuery(t *testing.T) {
	reqs := make(chan Request, 10)
	statusCh := make(chan status.Message, 1)
	go Run(reqs, status.ChanSender(statusCh))

	now := time.Now()
	reqs <- Add("a.onion:1", Record{Address: "a.onion:1", LastSeen: now})

	reply := make(chan *Record, 1)
	reqs <- Query("a.onion:1", reply)
	got := <-reply

	assert.NotNil(t, got)
	assert.Equal(t, "a.onion:1", got.Address)
	assert.False(t, got.Stale)

	close(reqs)
	msg := <-statusCh
	assert.Equal(t, status.StateDown, msg.State)
	assert.Equal(t, trackererr.KindDirectoryExited, msg.Err.Kind)
}

func TestLastWriterWins(t *testing.T) {
	reqs := make(chan Request, 10)
	statusCh := make(chan status.Message, 1)
	go Run(reqs, status.ChanSender(statusCh))

	reqs <- Add("a.onion:1", Record{Address: "a.onion:1", Stale: false})
	reqs <- Update("a.onion:1", Record{Address: "a.onion:1", Stale: true})

	reply := make(chan *Record, 1)
	reqs <- Query("a.onion:1", reply)
	got := <-reply

	assert.True(t, got.Stale)
	close(reqs)
}

func TestQueryActiveFiltersStale(t *testing.T) {
	reqs := make(chan Request, 10)
	statusCh := make(chan status.Message, 1)
	go Run(reqs, status.ChanSender(statusCh))

	reqs <- Add("a.onion:1", Record{Address: "a.onion:1", Stale: false})
	reqs <- Add("b.onion:1", Record{Address: "b.onion:1", Stale: true})
	reqs <- Add("c.onion:1", Record{Address: "c.onion:1", Stale: false})

	reply := make(chan []string, 1)
	reqs <- QueryActive(reply)
	got := <-reply

	assert.ElementsMatch(t, []string{"a.onion:1", "c.onion:1"}, got)
	close(reqs)
}

func TestQueryMissingKey(t *testing.T) {
	reqs := make(chan Request, 10)
	statusCh := make(chan status.Message, 1)
	go Run(reqs, status.ChanSender(statusCh))

	reply := make(chan *Record, 1)
	reqs <- Query("missing.onion:1", reply)
	got := <-reply

	assert.Nil(t, got)
	close(reqs)
}

func TestQueryAllSnapshotsEverything(t *testing.T) {
	reqs := make(chan Request, 10)
	statusCh := make(chan status.Message, 1)
	go Run(reqs, status.ChanSender(statusCh))

	reqs <- Add("a.onion:1", Record{Address: "a.onion:1"})
	reqs <- Add("b.onion:1", Record{Address: "b.onion:1"})

	reply := make(chan []Entry, 1)
	reqs <- QueryAll(reply)
	got := <-reply

	assert.Len(t, got, 2)
	close(reqs)
}
