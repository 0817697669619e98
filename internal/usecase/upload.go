package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/mailfold/mailroom/internal/domain"
)

// Upload slot expiry bounds, in seconds. Requests outside the window are
// clamped, never rejected.
const (
	SlotExpiryMin     = 30
	SlotExpiryMax     = 300
	slotExpiryDefault = 120
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
}

type UploadUsecase struct {
	slots UploadSlotIssuer
}

func NewUploadUsecase(slots UploadSlotIssuer) *UploadUsecase {
	return &UploadUsecase{slots: slots}
}

// IssueSlot creates a single-use upload location for image bytes so they
// never pass through this service's request body. requestedExpiry of zero
// takes the default; anything else is clamped into [SlotExpiryMin,
// SlotExpiryMax].
func (uc *UploadUsecase) IssueSlot(ctx context.Context, tenantID, contentType string, requestedExpiry int) (domain.UploadSlot, error) {
	ctx, span := tracer.Start(ctx, "Upload.Usecase.IssueSlot")
	defer span.End()

	if !allowedImageTypes[contentType] {
		return domain.UploadSlot{}, domain.ErrUnsupportedContentType
	}

	expiry := requestedExpiry
	if expiry == 0 {
		expiry = slotExpiryDefault
	}
	if expiry < SlotExpiryMin {
		expiry = SlotExpiryMin
	}
	if expiry > SlotExpiryMax {
		expiry = SlotExpiryMax
	}

	slot, err := uc.slots.Issue(ctx, tenantID, contentType, time.Duration(expiry)*time.Second)
	if err != nil {
		span.RecordError(err)
		return domain.UploadSlot{}, err
	}

	return slot, nil
}

// RedeemSlot consumes a slot on behalf of the storage front. Expired and
// already-redeemed slots surface as not found; the front rejects the upload.
func (uc *UploadUsecase) RedeemSlot(ctx context.Context, token string) (storageRef, contentType string, err error) {
	ctx, span := tracer.Start(ctx, "Upload.Usecase.RedeemSlot")
	defer span.End()

	storageRef, contentType, err = uc.slots.Redeem(ctx, token)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			span.RecordError(err)
		}
		return "", "", err
	}
	return storageRef, contentType, nil
}
