package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/breez/device-sync/config"
	"github.com/breez/device-sync/proto"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/tv42/zbase32"
	"google.golang.org/grpc/metadata"
)

type contextKey string

const ownerContextKey contextKey = "owner_id"

var ErrInternalError = fmt.Errorf("internal error")
var ErrInvalidSignature = fmt.Errorf("invalid signature")
var ErrUnauthenticated = fmt.Errorf("unauthenticated")
var SignedMsgPrefix = []byte("devicesync:")

// OwnerFromContext returns the owner id Authenticate stored in ctx.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerContextKey).(string)
	return owner, ok && owner != ""
}

func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerContextKey, ownerID)
}

func checkApiKey(config *config.Config, ctx context.Context) error {
	if config.CACert == nil {
		return nil
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return fmt.Errorf("%w: could not read request metadata", ErrUnauthenticated)
	}
	values := md.Get("Authorization")
	if len(values) == 0 {
		return fmt.Errorf("%w: missing auth header", ErrUnauthenticated)
	}
	return verifyCertificate(config.CACert.Raw, values[0])
}

func verifyCertificate(caCert *x509.Certificate, authHeader string) error {
	if len(authHeader) <= 7 || !strings.HasPrefix(authHeader, "Bearer ") {
		return fmt.Errorf("%w: invalid auth header", ErrUnauthenticated)
	}

	apiKey := authHeader[7:]
	block, err := base64.StdEncoding.DecodeString(apiKey)
	if err != nil {
		return fmt.Errorf("%w: could not decode auth header: %v", ErrUnauthenticated, err)
	}

	cert, err := x509.ParseCertificate(block)
	if err != nil {
		return fmt.Errorf("%w: could not parse certificate: %v", ErrUnauthenticated, err)
	}

	rootPool := x509.NewCertPool()
	rootPool.AddCert(caCert)

	chains, err := cert.Verify(x509.VerifyOptions{
		Roots: rootPool,
	})
	if err != nil {
		return fmt.Errorf("%w: certificate verification error: %v", ErrUnauthenticated, err)
	}
	if len(chains) != 1 || len(chains[0]) != 2 || !chains[0][0].Equal(cert) || !chains[0][1].Equal(caCert) {
		return fmt.Errorf("%w: certificate verification error: invalid chain of trust", ErrUnauthenticated)
	}

	return nil
}

// Authenticate checks the optional API key and the request signature and
// returns a context carrying the signer's owner id.
func Authenticate(config *config.Config, ctx context.Context, req interface{}) (context.Context, error) {
	if err := checkApiKey(config, ctx); err != nil {
		return nil, err
	}

	var toVerify string
	var signature string
	switch r := req.(type) {
	case *proto.SubmitMutationRequest:
		toVerify = SignSubmitMutation(r)
		signature = r.Signature
	case *proto.ResolveConflictRequest:
		toVerify = SignResolveConflict(r)
		signature = r.Signature
	case *proto.GetHistoryRequest:
		toVerify = SignGetHistory(r)
		signature = r.Signature
	case *proto.ListConflictsRequest:
		toVerify = SignListConflicts(r)
		signature = r.Signature
	case *proto.TrackChangesRequest:
		toVerify = SignTrackChanges(r.DeviceId, r.RequestTime)
		signature = r.Signature
	default:
		return nil, ErrInternalError
	}

	ownerID, err := ownerOf([]byte(toVerify), signature)
	if err != nil {
		return nil, err
	}
	return WithOwner(ctx, ownerID), nil
}

// AuthenticateWebSocket verifies an upgrade request. The device signs the
// same message as TrackChanges and passes device_id, request_time and
// signature as query parameters.
func AuthenticateWebSocket(config *config.Config, r *http.Request) (ownerID, deviceID string, err error) {
	if config.CACert != nil {
		if err := verifyCertificate(config.CACert.Raw, r.Header.Get("Authorization")); err != nil {
			return "", "", err
		}
	}
	q := r.URL.Query()
	deviceID = q.Get("device_id")
	if deviceID == "" {
		return "", "", fmt.Errorf("%w: missing device_id", ErrUnauthenticated)
	}
	requestTime, err := strconv.ParseInt(q.Get("request_time"), 10, 64)
	if err != nil {
		return "", "", fmt.Errorf("%w: invalid request_time", ErrUnauthenticated)
	}
	ownerID, err = ownerOf([]byte(SignTrackChanges(deviceID, requestTime)), q.Get("signature"))
	if err != nil {
		return "", "", err
	}
	return ownerID, deviceID, nil
}

func ownerOf(message []byte, signature string) (string, error) {
	pubkey, err := VerifyMessage(message, signature)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(pubkey.SerializeCompressed()), nil
}

func SignSubmitMutation(r *proto.SubmitMutationRequest) string {
	return fmt.Sprintf(
		"%v-%v-%v-%x-%v-%v-%v",
		r.DeviceId,
		r.DataType,
		r.Operation,
		r.Payload,
		r.BaseVersion,
		r.Strategy,
		r.RequestTime,
	)
}

func SignResolveConflict(r *proto.ResolveConflictRequest) string {
	return fmt.Sprintf("%v-%x-%v", r.SyncId, r.Payload, r.RequestTime)
}

func SignGetHistory(r *proto.GetHistoryRequest) string {
	return fmt.Sprintf("%v-%v-%v", r.DataType, r.SinceVersion, r.RequestTime)
}

func SignListConflicts(r *proto.ListConflictsRequest) string {
	return fmt.Sprintf("%v-%v", r.DataType, r.RequestTime)
}

func SignTrackChanges(deviceID string, requestTime int64) string {
	return fmt.Sprintf("%v-%v", deviceID, requestTime)
}

// prefixed copies so concurrent callers never share SignedMsgPrefix's
// backing array.
func prefixed(msg []byte) []byte {
	out := make([]byte, 0, len(SignedMsgPrefix)+len(msg))
	out = append(out, SignedMsgPrefix...)
	return append(out, msg...)
}

func SignMessage(key *btcec.PrivateKey, msg []byte) (string, error) {
	digest := chainhash.DoubleHashB(prefixed(msg))
	signture, err := ecdsa.SignCompact(key, digest, true)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %v", err)
	}
	sig := zbase32.EncodeToString(signture)
	return sig, nil
}

func VerifyMessage(message []byte, signature string) (*btcec.PublicKey, error) {
	// The signature should be zbase32 encoded
	sig, err := zbase32.DecodeString(signature)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode signature: %v", ErrInvalidSignature, err)
	}

	first := sha256.Sum256(prefixed(message))
	second := sha256.Sum256(first[:])
	pubkey, wasCompressed, err := ecdsa.RecoverCompact(
		sig,
		second[:],
	)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	if !wasCompressed {
		return nil, ErrInvalidSignature
	}

	return pubkey, nil
}
