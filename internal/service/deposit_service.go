package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"crypto_invest/internal/domain"
	"crypto_invest/internal/logger"
	"crypto_invest/internal/repository"
	"crypto_invest/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const MaxProofSize = 5 << 20

var proofContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// DepositStore persists deposits and performs approval bookkeeping.
type DepositStore interface {
	Create(ctx context.Context, d *domain.Deposit) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deposit, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Deposit, error)
	List(ctx context.Context, status domain.DepositStatus, limit, offset int) ([]domain.Deposit, error)
	UpdatePending(ctx context.Context, id, userID uuid.UUID, amount decimal.Decimal, method string) (*domain.Deposit, error)
	SoftDelete(ctx context.Context, id, userID uuid.UUID) error
	Approve(ctx context.Context, id uuid.UUID, s *domain.Settings) (*domain.Deposit, *repository.ReferralPayout, error)
	Reject(ctx context.Context, id uuid.UUID) (*domain.Deposit, error)
}

// ProofUpload is the proof image attached to a deposit request.
type ProofUpload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

type DepositService struct {
	store    DepositStore
	proofs   storage.ProofStore
	settings SettingsProvider
	notifier Notifier
	audit    Auditor
}

func NewDepositService(store DepositStore, proofs storage.ProofStore, settings SettingsProvider, notifier Notifier, audit Auditor) *DepositService {
	return &DepositService{
		store:    store,
		proofs:   proofs,
		settings: settings,
		notifier: orNopNotifier(notifier),
		audit:    orNopAuditor(audit),
	}
}

func (s *DepositService) validate(ctx context.Context, amount decimal.Decimal, method string) (string, error) {
	if err := domain.CheckAmount(amount); err != nil {
		return "", err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return "", err
	}
	if amount.LessThan(settings.MinDeposit) {
		return "", domain.NewValidationError("amount", "minimum deposit is %s", settings.MinDeposit.StringFixed(2))
	}
	if !settings.PaymentMethodAllowed(method) {
		return "", domain.NewValidationError("paymentMethod", "unsupported payment method %q", method)
	}
	return domain.NormalizePaymentMethod(method), nil
}

// Create stores the proof and records a pending deposit.
func (s *DepositService) Create(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, method string, proof ProofUpload) (*domain.Deposit, error) {
	method, err := s.validate(ctx, amount, method)
	if err != nil {
		return nil, err
	}
	if proof.Body == nil {
		return nil, domain.NewValidationError("proofImage", "is required")
	}
	if proof.Size > MaxProofSize {
		return nil, domain.NewValidationError("proofImage", "must be at most 5 MB")
	}
	ext := strings.ToLower(filepath.Ext(proof.Filename))
	contentType, ok := proofContentTypes[ext]
	if !ok {
		return nil, domain.NewValidationError("proofImage", "must be a jpg, png, webp or pdf file")
	}

	key := fmt.Sprintf("deposits/%s/%s%s", userID, uuid.NewString(), ext)
	if err := s.proofs.Put(ctx, key, io.LimitReader(proof.Body, MaxProofSize), proof.Size, contentType); err != nil {
		return nil, fmt.Errorf("%w: store proof: %w", domain.ErrUnavailable, err)
	}

	d := &domain.Deposit{
		UserID:        userID,
		Amount:        amount.Round(2),
		PaymentMethod: method,
		ProofImage:    key,
		TransactionID: newDepositReference(),
		Status:        domain.DepositPending,
	}
	if err := s.store.Create(ctx, d); err != nil {
		if delErr := s.proofs.Delete(ctx, key); delErr != nil {
			logger.WithContext(ctx).Warn("orphaned deposit proof", "key", key, "error", delErr)
		}
		return nil, err
	}

	s.audit.Log(ctx, &userID, domain.AuditActionDepositCreate, domain.AuditCategoryPayment, map[string]any{
		"deposit_id":     d.ID.String(),
		"amount":         d.Amount.String(),
		"payment_method": d.PaymentMethod,
	})
	return d, nil
}

// Update edits the caller's pending deposit.
func (s *DepositService) Update(ctx context.Context, userID, id uuid.UUID, amount decimal.Decimal, method string) (*domain.Deposit, error) {
	method, err := s.validate(ctx, amount, method)
	if err != nil {
		return nil, err
	}
	return s.store.UpdatePending(ctx, id, userID, amount.Round(2), method)
}

// Delete soft-deletes the caller's pending deposit.
func (s *DepositService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.SoftDelete(ctx, id, userID)
}

func (s *DepositService) ListMine(ctx context.Context, userID uuid.UUID) ([]domain.Deposit, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *DepositService) ListAll(ctx context.Context, status string, limit, offset int) ([]domain.Deposit, error) {
	limit, offset = page(limit, offset)
	return s.store.List(ctx, domain.DepositStatus(status), limit, offset)
}

// HandleDecision approves or rejects a pending deposit.
func (s *DepositService) HandleDecision(ctx context.Context, adminID, id uuid.UUID, status string) (*domain.Deposit, error) {
	decision, err := domain.ParseDecision(status)
	if err != nil {
		return nil, err
	}

	if decision == domain.DecisionReject {
		d, err := s.store.Reject(ctx, id)
		if err != nil {
			return nil, err
		}
		s.audit.Log(ctx, &adminID, domain.AuditActionDepositReject, domain.AuditCategoryPayment, map[string]any{
			"deposit_id": d.ID.String(), "user_id": d.UserID.String(),
		})
		s.notifier.Notify(d.UserID, EventDepositRejected, d)
		return d, nil
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	d, payout, err := s.store.Approve(ctx, id, settings)
	if err != nil {
		return nil, err
	}

	log := logger.WithContext(ctx)
	log.Info("deposit approved", "deposit_id", d.ID, "user_id", d.UserID, "amount", d.Amount.String())
	s.audit.Log(ctx, &adminID, domain.AuditActionDepositApprove, domain.AuditCategoryPayment, map[string]any{
		"deposit_id": d.ID.String(), "user_id": d.UserID.String(), "amount": d.Amount.String(),
	})
	s.notifier.Notify(d.UserID, EventDepositApproved, d)

	if payout != nil && payout.Bonus.IsPositive() {
		log.Info("referral bonus credited", "referrer_id", payout.ReferrerID,
			"successful_referrals", payout.SuccessfulReferrals, "bonus", payout.Bonus.String())
		s.notifier.Notify(payout.ReferrerID, EventReferralBonus, map[string]any{
			"bonus":               payout.Bonus,
			"successfulReferrals": payout.SuccessfulReferrals,
		})
	}
	return d, nil
}

// Proof returns either a presigned URL or an open reader for a deposit proof.
func (s *DepositService) Proof(ctx context.Context, id uuid.UUID) (url string, body io.ReadCloser, contentType string, err error) {
	d, err := s.store.GetByID(ctx, id)
	if err != nil {
		return "", nil, "", err
	}
	if d.ProofImage == "" {
		return "", nil, "", domain.NotFound("proof")
	}

	if p, ok := s.proofs.(storage.Presigner); ok {
		url, err := p.PresignURL(ctx, d.ProofImage, 15*time.Minute)
		return url, nil, "", err
	}

	body, contentType, err = s.proofs.Open(ctx, d.ProofImage)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return "", nil, "", domain.NotFound("proof")
	}
	return "", body, contentType, err
}

// newDepositReference returns a reference like DEP-3F9A0C12B4E7.
func newDepositReference() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return "DEP-" + strings.ToUpper(hex.EncodeToString(b))
}
