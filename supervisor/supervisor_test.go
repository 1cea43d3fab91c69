package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/theivess/trackerd/directory"
	"github.com/theivess/trackerd/status"
	"github.com/theivess/trackerd/trackererr"
)

func TestSpawnDirectory_ReportsDownWhenQueueCloses(t *testing.T) {
	statusCh := make(chan status.Message, 1)
	dirTx := spawnDirectory(status.ChanSender(statusCh))

	close(dirTx)

	select {
	case msg := <-statusCh:
		assert.Equal(t, status.OriginDirectory, msg.Origin)
		assert.Equal(t, status.StateDown, msg.State)
		assert.Equal(t, trackererr.KindDirectoryExited, msg.Err.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("directory actor never reported down after its queue closed")
	}
}

func TestSpawnDirectory_ServesRequestsBeforeClose(t *testing.T) {
	statusCh := make(chan status.Message, 1)
	dirTx := spawnDirectory(status.ChanSender(statusCh))

	dirTx <- directory.Add("a.onion:80", directory.Record{Address: "a.onion:80"})
	reply := make(chan *directory.Record, 1)
	dirTx <- directory.Query("a.onion:80", reply)

	got := <-reply
	assert.NotNil(t, got)
	assert.Equal(t, "a.onion:80", got.Address)

	close(dirTx)
}

func TestSupervise_RecoversPanicAndReportsDown(t *testing.T) {
	statusCh := make(chan status.Message, 1)

	supervise(status.OriginIndexer, status.ChanSender(statusCh), func() {
		panic("injected indexer panic")
	})

	select {
	case msg := <-statusCh:
		assert.Equal(t, status.OriginIndexer, msg.Origin)
		assert.Equal(t, status.StateDown, msg.State)
		assert.Equal(t, trackererr.KindGeneral, msg.Err.Kind)
		assert.Contains(t, msg.Err.Error(), "injected indexer panic")
	case <-time.After(2 * time.Second):
		t.Fatal("supervise did not report down after a panic in the supervised function")
	}
}

func TestSupervise_NoPanicNeverReportsDown(t *testing.T) {
	statusCh := make(chan status.Message, 1)
	done := make(chan struct{})

	supervise(status.OriginServer, status.ChanSender(statusCh), func() {
		close(done)
	})

	<-done
	select {
	case msg := <-statusCh:
		t.Fatalf("unexpected status message from a function that never panicked: %+v", msg)
	case <-time.After(200 * time.Millisecond):
	}
}
