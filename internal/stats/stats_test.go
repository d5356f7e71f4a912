package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreCountsByStatus(t *testing.T) {
	s := New()

	s.RecordResponse(200, 1024)
	s.RecordResponse(200, 10)
	s.RecordResponse(400, 4)
	s.RecordResponse(404, 4)
	s.RecordResponse(429, 4)
	s.RecordResponse(500, 4)
	s.RecordBan()

	snap := s.Snapshot()
	require.Equal(t, int64(2), snap.Served)
	require.Equal(t, int64(1), snap.BadRequests)
	require.Equal(t, int64(1), snap.NotFound)
	require.Equal(t, int64(1), snap.RateLimited)
	require.Equal(t, int64(1), snap.InternalErrors)
	require.Equal(t, int64(1), snap.BansStarted)
	require.Equal(t, int64(1050), snap.BytesSent)
}

func TestStoreTracksActiveConns(t *testing.T) {
	s := New()

	s.ConnOpened()
	s.ConnOpened()
	s.ConnClosed()

	require.Equal(t, int64(1), s.Snapshot().ActiveConns)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New()
	s.RecordResponse(200, 1)

	snap := s.Snapshot()
	snap.Served = 99

	require.Equal(t, int64(1), s.Snapshot().Served)
}
