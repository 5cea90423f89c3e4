package proto

import (
	"testing"

	"github.com/stretchr/testify/require"
	gproto "google.golang.org/protobuf/proto"
)

func TestWireRoundTrip(t *testing.T) {
	in := &SubmitMutationReply{
		SyncId:          "id",
		Version:         3,
		Status:          SubmitMutationStatus_PENDING,
		ResolvedPayload: []byte{0x00, 0xff, '{'},
		ErrorCode:       "MANUAL_RESOLUTION_REQUIRED",
	}
	data, err := gproto.Marshal(in)
	require.NoError(t, err)
	out := &SubmitMutationReply{}
	require.NoError(t, gproto.Unmarshal(data, out))
	require.True(t, gproto.Equal(in, out))
	require.Equal(t, "PENDING", out.GetStatus().String())
}

func TestServiceDescriptor(t *testing.T) {
	svc := File_sync_proto.Services().ByName("Syncer")
	require.NotNil(t, svc)
	require.Equal(t, 5, svc.Methods().Len())
	track := svc.Methods().ByName("TrackChanges")
	require.True(t, track.IsStreamingServer())
	require.Equal(t, "sync.Envelope", string(track.Output().FullName()))

	records := (&GetHistoryReply{}).ProtoReflect().Descriptor().Fields().ByName("records")
	require.Equal(t, "sync.Record", string(records.Message().FullName()))
}
