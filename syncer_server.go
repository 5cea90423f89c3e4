package main

import (
	"context"
	"errors"

	"github.com/breez/device-sync/config"
	"github.com/breez/device-sync/conflict"
	"github.com/breez/device-sync/coordinator"
	"github.com/breez/device-sync/middleware"
	"github.com/breez/device-sync/notify"
	"github.com/breez/device-sync/proto"
	"github.com/breez/device-sync/store"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const trackQueueSize = 256

type PersistentSyncerServer struct {
	proto.UnimplementedSyncerServer
	config      *config.Config
	coordinator *coordinator.Coordinator
	log         *zap.Logger
}

func NewPersistentSyncerServer(config *config.Config, c *coordinator.Coordinator, log *zap.Logger) *PersistentSyncerServer {
	return &PersistentSyncerServer{
		config:      config,
		coordinator: c,
		log:         log,
	}
}

func (s *PersistentSyncerServer) authenticate(ctx context.Context, msg interface{}) (string, error) {
	c, err := middleware.Authenticate(s.config, ctx, msg)
	if err != nil {
		return "", status.Error(codes.Unauthenticated, err.Error())
	}
	owner, _ := middleware.OwnerFromContext(c)
	return owner, nil
}

func (s *PersistentSyncerServer) SubmitMutation(ctx context.Context, msg *proto.SubmitMutationRequest) (*proto.SubmitMutationReply, error) {
	owner, err := s.authenticate(ctx, msg)
	if err != nil {
		return nil, err
	}
	res, err := s.coordinator.SubmitMutation(ctx, coordinator.Mutation{
		OwnerId:     owner,
		DeviceId:    msg.DeviceId,
		DataType:    store.DataType(msg.DataType),
		Operation:   store.Operation(msg.Operation),
		Payload:     msg.Payload,
		BaseVersion: msg.BaseVersion,
		Strategy:    conflict.Strategy(msg.Strategy),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toReply(res), nil
}

func (s *PersistentSyncerServer) ResolveConflict(ctx context.Context, msg *proto.ResolveConflictRequest) (*proto.SubmitMutationReply, error) {
	owner, err := s.authenticate(ctx, msg)
	if err != nil {
		return nil, err
	}
	// Only the owner of the pending record may resolve it.
	rec, err := s.coordinator.GetRecord(ctx, msg.SyncId)
	if err != nil {
		return nil, toStatus(err)
	}
	if rec.OwnerId != owner {
		return nil, status.Error(codes.NotFound, "sync record not found")
	}
	res, err := s.coordinator.ResolveManualConflict(ctx, msg.SyncId, msg.Payload)
	if err != nil {
		return nil, toStatus(err)
	}
	return toReply(res), nil
}

func (s *PersistentSyncerServer) GetHistory(ctx context.Context, msg *proto.GetHistoryRequest) (*proto.GetHistoryReply, error) {
	owner, err := s.authenticate(ctx, msg)
	if err != nil {
		return nil, err
	}
	records, err := s.coordinator.GetHistory(ctx, owner, store.DataType(msg.DataType), msg.SinceVersion)
	if err != nil {
		return nil, toStatus(err)
	}
	return &proto.GetHistoryReply{Records: toRecords(records)}, nil
}

func (s *PersistentSyncerServer) ListConflicts(ctx context.Context, msg *proto.ListConflictsRequest) (*proto.GetHistoryReply, error) {
	owner, err := s.authenticate(ctx, msg)
	if err != nil {
		return nil, err
	}
	records, err := s.coordinator.PendingConflicts(ctx, owner, store.DataType(msg.DataType))
	if err != nil {
		return nil, toStatus(err)
	}
	return &proto.GetHistoryReply{Records: toRecords(records)}, nil
}

// TrackChanges registers the calling device for the stream's lifetime and
// forwards its envelopes, starting with whatever was buffered while it was
// away.
func (s *PersistentSyncerServer) TrackChanges(request *proto.TrackChangesRequest, stream proto.Syncer_TrackChangesServer) error {
	owner, err := s.authenticate(stream.Context(), request)
	if err != nil {
		return err
	}
	if request.DeviceId == "" {
		return status.Error(codes.InvalidArgument, "device id is required")
	}

	ctx := stream.Context()
	ch := notify.NewQueueChannel(deviceQueueSize(s.config))
	if err := s.coordinator.RegisterDevice(ctx, owner, request.DeviceId, ch); err != nil {
		return toStatus(err)
	}
	s.log.Debug("device tracking changes", zap.String("owner", owner), zap.String("device", request.DeviceId))
	defer s.coordinator.DetachDevice(context.Background(), request.DeviceId, ch)

	for {
		select {
		case env := <-ch.Events():
			if err := stream.Send(toEnvelope(env)); err != nil {
				return err
			}
		case <-ch.Done():
			// Replaced by a newer connection or dropped after a failed send.
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func toStatus(err error) error {
	var serr *coordinator.SyncError
	if !errors.As(err, &serr) {
		return status.Error(codes.Internal, err.Error())
	}
	switch serr.Code {
	case coordinator.CodeValidation:
		return status.Error(codes.InvalidArgument, serr.Error())
	case coordinator.CodeStorage, coordinator.CodeLockTimeout:
		return status.Error(codes.Unavailable, serr.Error())
	case coordinator.CodeNotFound:
		return status.Error(codes.NotFound, serr.Error())
	case coordinator.CodeVersionConflict:
		return status.Error(codes.Aborted, serr.Error())
	}
	return status.Error(codes.Internal, serr.Error())
}

func toReply(res coordinator.Result) *proto.SubmitMutationReply {
	reply := &proto.SubmitMutationReply{
		SyncId:           res.SyncId,
		Version:          res.Version,
		Status:           toStatusEnum(res.Status),
		ConflictResolved: res.ConflictResolved,
		ResolvedPayload:  res.ResolvedPayload,
		CurrentPayload:   res.CurrentPayload,
		Replayed:         res.Replayed,
	}
	if res.Error != nil {
		reply.ErrorCode = string(res.Error.Code)
		reply.ErrorMessage = res.Error.Message
	}
	return reply
}

func toStatusEnum(s store.Status) proto.SubmitMutationStatus {
	switch s {
	case store.StatusPending:
		return proto.SubmitMutationStatus_PENDING
	case store.StatusFailed:
		return proto.SubmitMutationStatus_FAILED
	}
	return proto.SubmitMutationStatus_COMPLETED
}

func toRecords(records []store.SyncRecord) []*proto.Record {
	out := make([]*proto.Record, len(records))
	for i, r := range records {
		out[i] = &proto.Record{
			SyncId:      r.Id,
			DeviceId:    r.DeviceId,
			DataType:    string(r.DataType),
			Operation:   string(r.Operation),
			Version:     r.Version,
			BaseVersion: r.BaseVersion,
			Status:      string(r.Status),
			Payload:     r.Payload,
			CreatedAt:   r.CreatedAt.UnixMilli(),
		}
		if !r.SyncedAt.IsZero() {
			out[i].SyncedAt = r.SyncedAt.UnixMilli()
		}
		if r.Resolution != nil {
			out[i].Strategy = string(r.Resolution.Strategy)
			out[i].ResolvedPayload = r.Resolution.ResolvedPayload
			out[i].Overwrote = r.Resolution.Overwrote
		}
	}
	return out
}

func toEnvelope(env notify.Envelope) *proto.Envelope {
	return &proto.Envelope{
		OwnerId:    env.OwnerId,
		DataType:   string(env.DataType),
		Version:    env.Version,
		ProducedAt: env.ProducedAt.UnixMilli(),
	}
}
