package payments

import "context"

type ChargeRequest struct {
	ParcelID uint64
	Email    string
	Amount   float64
	Currency string
	Method   string
}

// ChargeResult — ядру от процессинга нужен только факт успеха и
// идентификатор транзакции для истории платежей.
type ChargeResult struct {
	TransactionID string
	Succeeded     bool
	FailureReason string
}

type Client interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}
