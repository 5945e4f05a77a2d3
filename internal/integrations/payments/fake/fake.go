package fake

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/zapshift/zapshift/internal/integrations/payments"
)

// FakeClient — заглушка платёжного шлюза для локальной разработки.
// Детерминированный transaction id по (parcel, email), всегда успех.
type FakeClient struct{}

func New() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Charge(ctx context.Context, req payments.ChargeRequest) (payments.ChargeResult, error) {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%d|%s", req.ParcelID, req.Email)

	return payments.ChargeResult{
		TransactionID: fmt.Sprintf("txn_fake_%08x", h.Sum32()),
		Succeeded:     true,
	}, nil
}
