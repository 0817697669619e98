package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/mailfold/mailroom/internal/domain"
)

// UploadSlotGateway hands out short-lived, single-use write locations for
// raw image bytes, backed by redis TTL keys. The storage front redeems the
// slot exactly once before accepting bytes; this service only ever sees the
// resulting storage ref.
type UploadSlotGateway struct {
	rdb     *redis.Client
	baseURL string
	maxSize int64
}

func NewUploadSlotGateway(rdb *redis.Client, baseURL string, maxSize int64) *UploadSlotGateway {
	return &UploadSlotGateway{
		rdb:     rdb,
		baseURL: baseURL,
		maxSize: maxSize,
	}
}

type slotRecord struct {
	TenantID    string `json:"tenant_id"`
	StorageRef  string `json:"storage_ref"`
	ContentType string `json:"content_type"`
}

// Issue creates a slot valid for ttl. The SET NX guards against token
// collisions; uuid tokens make collisions practically impossible but the
// guard keeps the single-use invariant unconditional.
func (g *UploadSlotGateway) Issue(ctx context.Context, tenantID, contentType string, ttl time.Duration) (domain.UploadSlot, error) {

	token := uuid.NewString()
	storageRef := fmt.Sprintf("scan/%s/%s", tenantID, uuid.NewString())

	record, err := json.Marshal(slotRecord{
		TenantID:    tenantID,
		StorageRef:  storageRef,
		ContentType: contentType,
	})
	if err != nil {
		return domain.UploadSlot{}, pkgerrors.Wrap(err, "slot record marshal failed")
	}

	ok, err := g.rdb.SetNX(ctx, slotKey(token), record, ttl).Result()
	if err != nil {
		return domain.UploadSlot{}, pkgerrors.Wrap(err, "slot store failed")
	}
	if !ok {
		return domain.UploadSlot{}, pkgerrors.New("slot token collision")
	}

	return domain.UploadSlot{
		UploadURL:  fmt.Sprintf("%s/%s", g.baseURL, token),
		StorageRef: storageRef,
		ExpiresIn:  int(ttl.Seconds()),
		MaxSize:    g.maxSize,
	}, nil
}

// Redeem consumes a slot, returning its storage ref and content type. A slot
// can be redeemed once; expired or already-redeemed slots report not found.
func (g *UploadSlotGateway) Redeem(ctx context.Context, token string) (storageRef, contentType string, err error) {

	raw, err := g.rdb.GetDel(ctx, slotKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", "", domain.ErrNotFound
		}
		return "", "", pkgerrors.Wrap(err, "slot redeem failed")
	}

	var record slotRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return "", "", pkgerrors.Wrap(err, "slot record unmarshal failed")
	}

	return record.StorageRef, record.ContentType, nil
}

func slotKey(token string) string {
	return "uploadslot:" + token
}
