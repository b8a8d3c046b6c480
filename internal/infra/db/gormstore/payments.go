package gormstore

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	domainbooking "travelstay/internal/domain/booking"
	domainpayments "travelstay/internal/domain/payments"
	"travelstay/internal/domain/shared/fault"
	"travelstay/internal/domain/shared/money"
)

var errDuplicateTransaction = fault.Conflict("gormstore: transaction reference already used")

type paymentRepo struct{ u *Unit }

func (r paymentRepo) ByBookingID(ctx context.Context, bookingID domainbooking.BookingID) (*domainpayments.Payment, error) {
	return r.take(ctx, "payment by booking", "booking_id = ?", string(bookingID))
}

func (r paymentRepo) ByTransactionID(ctx context.Context, txRef string) (*domainpayments.Payment, error) {
	payment, err := r.take(ctx, "payment by tx_ref", "transaction_id = ?", txRef)
	if !errors.Is(err, domainpayments.ErrNotFound) {
		return payment, err
	}
	var ref PaymentReference
	if err := r.u.conn(ctx).Where("transaction_id = ?", txRef).Take(&ref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainpayments.ErrNotFound
		}
		return nil, wrap("payment reference", err)
	}
	return r.take(ctx, "payment by superseded tx_ref", "id = ?", ref.PaymentID)
}

func (r paymentRepo) take(ctx context.Context, op, cond string, arg any) (*domainpayments.Payment, error) {
	var row Payment
	if err := r.u.conn(ctx).Where(cond, arg).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainpayments.ErrNotFound
		}
		return nil, wrap(op, err)
	}
	var refs []PaymentReference
	if err := r.u.conn(ctx).Where("payment_id = ?", row.ID).Order("transaction_id").Find(&refs).Error; err != nil {
		return nil, wrap(op, err)
	}
	payment := row.toDomain()
	for _, ref := range refs {
		payment.SupersededRefs = append(payment.SupersededRefs, ref.TransactionID)
	}
	return payment, nil
}

// Save upserts on the payment id. Start reuses the booking's existing row, so
// a booking keeps one payment across retries.
func (r paymentRepo) Save(ctx context.Context, payment *domainpayments.Payment) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	row := Payment{
		ID:             string(payment.ID),
		BookingID:      string(payment.BookingID),
		TransactionID:  payment.TransactionID,
		Amount:         payment.Amount.Amount,
		Currency:       payment.Amount.Currency,
		Status:         string(payment.Status),
		CheckoutURL:    payment.CheckoutURL,
		GatewayPayload: gatewayPayload(payment.GatewayPayload),
		CreatedAt:      payment.CreatedAt,
		UpdatedAt:      payment.UpdatedAt,
	}
	if err := r.u.conn(ctx).Clauses(upsert()).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return errDuplicateTransaction
		}
		return wrap("save payment", err)
	}
	return r.saveReferences(ctx, payment)
}

func (r paymentRepo) saveReferences(ctx context.Context, payment *domainpayments.Payment) error {
	db := r.u.conn(ctx)
	if err := db.Where("payment_id = ?", string(payment.ID)).Delete(&PaymentReference{}).Error; err != nil {
		return wrap("clear payment references", err)
	}
	if len(payment.SupersededRefs) == 0 {
		return nil
	}
	refs := make([]PaymentReference, 0, len(payment.SupersededRefs))
	for _, txRef := range payment.SupersededRefs {
		refs = append(refs, PaymentReference{TransactionID: txRef, PaymentID: string(payment.ID)})
	}
	if err := db.Create(&refs).Error; err != nil {
		if isUniqueViolation(err) {
			return errDuplicateTransaction
		}
		return wrap("save payment references", err)
	}
	return nil
}

// gatewayPayload keeps JSON callbacks verbatim and stores anything else as a
// JSON string.
func gatewayPayload(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return datatypes.JSON(raw)
	}
	quoted, _ := json.Marshal(string(raw))
	return datatypes.JSON(quoted)
}

func (row Payment) toDomain() *domainpayments.Payment {
	return &domainpayments.Payment{
		ID:             domainpayments.PaymentID(row.ID),
		BookingID:      domainbooking.BookingID(row.BookingID),
		TransactionID:  row.TransactionID,
		Amount:         money.Money{Amount: row.Amount, Currency: row.Currency},
		Status:         domainpayments.Status(row.Status),
		CheckoutURL:    row.CheckoutURL,
		GatewayPayload: []byte(row.GatewayPayload),
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
}
