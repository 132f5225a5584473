package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"travelstore/models"
	"travelstore/services/api"
	"travelstore/services/promo"
	"travelstore/services/session"
	"travelstore/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Headcount bounds of a single booking.
const (
	MinHeadcount = 1
	MaxHeadcount = 20
)

// Options configures an Orchestrator.
type Options struct {
	Clock  utils.Clock
	Logger *zap.Logger
}

// Orchestrator owns the open booking drafts of one storefront process. It
// prices them, attaches validated promo codes and submits them once the
// session cache reports a signed-in user.
type Orchestrator struct {
	sessions  session.StatusChecker
	validator PromoValidator
	bookings  BookingAPI
	signal    *api.AuthSignal
	clock     utils.Clock
	logger    *zap.Logger

	mu     sync.Mutex
	drafts map[string]*entry
}

type entry struct {
	draft models.BookingDraft
	// promoSeq counts validation requests; only the latest may land.
	promoSeq uint64
	// idemKey identifies this draft's content to the booking service. It
	// changes whenever the draft does.
	idemKey    string
	submitting bool
}

// NewOrchestrator wires the orchestrator to its collaborators. signal may be
// nil when nothing needs to hear about a refused submit.
func NewOrchestrator(sessions session.StatusChecker, validator PromoValidator, bookings BookingAPI, signal *api.AuthSignal, opts Options) *Orchestrator {
	if opts.Clock == nil {
		opts.Clock = utils.SystemClock{}
	}
	return &Orchestrator{
		sessions:  sessions,
		validator: validator,
		bookings:  bookings,
		signal:    signal,
		clock:     opts.Clock,
		logger:    utils.OrNop(opts.Logger),
		drafts:    make(map[string]*entry),
	}
}

// Open starts a draft for itemID at unitPrice with a headcount of one.
func (o *Orchestrator) Open(itemID string, unitPrice decimal.Decimal) (Quote, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return Quote{}, api.NewValidationError("itemId", "item id is required")
	}
	if !unitPrice.IsPositive() {
		return Quote{}, api.NewValidationError("unitPrice", "unit price must be greater than zero")
	}

	d := models.BookingDraft{
		ID:        uuid.New().String(),
		ItemID:    itemID,
		UnitPrice: unitPrice,
		Headcount: 1,
		OpenedAt:  o.clock.Now(),
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.drafts[d.ID] = &entry{draft: d, idemKey: uuid.New().String()}
	o.logger.Debug("booking draft opened", zap.String("draftID", d.ID), zap.String("itemID", itemID))
	return quote(cloneDraft(d)), nil
}

// Get returns the draft id with its current pricing.
func (o *Orchestrator) Get(id string) (Quote, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.drafts[id]
	if !ok {
		return Quote{}, ErrDraftNotFound
	}
	return quote(cloneDraft(e.draft)), nil
}

// Update applies patch atomically. A headcount outside [MinHeadcount,
// MaxHeadcount] is rejected before
// anything changes. Setting a non-empty code attaches it; detaching clears
// the code. Any change to the code text or to the base total drops the
// previous validation.
func (o *Orchestrator) Update(id string, patch DraftPatch) (Quote, error) {
	if patch.Headcount != nil {
		if n := *patch.Headcount; n < MinHeadcount || n > MaxHeadcount {
			return Quote{}, api.NewValidationError("headcount", fmt.Sprintf("headcount must be between %d and %d", MinHeadcount, MaxHeadcount))
		}
	}

	var code string
	if patch.PromoCode != nil {
		code = promo.NormalizeCode(*patch.PromoCode)
		if code != "" && patch.HasPromoCode != nil && !*patch.HasPromoCode {
			return Quote{}, api.NewValidationError("promoCode", "cannot set a promo code while detaching it")
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.drafts[id]
	if !ok {
		return Quote{}, ErrDraftNotFound
	}

	d := e.draft
	if patch.Headcount != nil && *patch.Headcount != d.Headcount {
		d.Headcount = *patch.Headcount
		d.Validation = nil
	}
	if patch.HasPromoCode != nil {
		d.PromoAttached = *patch.HasPromoCode
		if !d.PromoAttached {
			d.PromoCode = ""
			d.Validation = nil
		}
	}
	if patch.PromoCode != nil {
		if code != d.PromoCode {
			d.PromoCode = code
			d.Validation = nil
		}
		if code != "" {
			d.PromoAttached = true
		}
	}
	o.commitLocked(e, d)
	return quote(cloneDraft(e.draft)), nil
}

// SetHeadcount changes the number of travellers.
func (o *Orchestrator) SetHeadcount(id string, headcount int) (Quote, error) {
	return o.Update(id, DraftPatch{Headcount: &headcount})
}

// SetPromoCode replaces the promo code text.
func (o *Orchestrator) SetPromoCode(id, code string) (Quote, error) {
	return o.Update(id, DraftPatch{PromoCode: &code})
}

// AttachPromo toggles "I have a promo code".
func (o *Orchestrator) AttachPromo(id string, attached bool) (Quote, error) {
	return o.Update(id, DraftPatch{HasPromoCode: &attached})
}

// ValidatePromo validates the draft's current code against its current base
// total. The draft is not locked during the call: when the result arrives
// it is stored only if it is still the latest request and the draft still
// holds the same code and base total; otherwise it is dropped and
// ErrStaleValidation is returned with the draft as it now stands.
//
// A failed call still stores a definitive, invalid result; the error is
// returned alongside the quote so the caller can notify the user.
func (o *Orchestrator) ValidatePromo(ctx context.Context, id string) (Quote, error) {
	o.mu.Lock()
	e, ok := o.drafts[id]
	if !ok {
		o.mu.Unlock()
		return Quote{}, ErrDraftNotFound
	}
	d := e.draft
	if !d.PromoAttached {
		o.mu.Unlock()
		return Quote{}, api.NewValidationError("hasPromoCode", "no promo code is attached")
	}
	if d.PromoCode == "" {
		o.mu.Unlock()
		return Quote{}, api.NewValidationError("promoCode", "Please enter a promo code")
	}
	e.promoSeq++
	seq := e.promoSeq
	code, base, itemID := d.PromoCode, d.BaseTotal(), d.ItemID
	o.mu.Unlock()

	res, err := o.validator.Validate(ctx, code, base, itemID)
	if api.IsValidation(err) {
		q, _ := o.Get(id)
		return q, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok = o.drafts[id]
	if !ok {
		o.logger.Debug("promo result for a closed draft dropped", zap.String("draftID", id))
		return Quote{}, ErrDraftNotFound
	}
	cur := e.draft
	if seq != e.promoSeq || !cur.PromoAttached || cur.PromoCode != code || !cur.BaseTotal().Equal(base) {
		o.logger.Debug("stale promo result dropped",
			zap.String("draftID", id),
			zap.String("code", code),
			zap.String("currentCode", cur.PromoCode),
		)
		return quote(cloneDraft(cur)), ErrStaleValidation
	}

	cur.Validation = &models.PromoOutcome{Code: code, BaseAmount: base, Result: res}
	o.commitLocked(e, cur)
	o.logger.Info("promo validated",
		zap.String("draftID", id),
		zap.String("code", code),
		zap.Bool("valid", res.Valid),
		zap.String("total", cur.Total().String()),
	)
	return quote(cloneDraft(e.draft)), err
}

// Submit books the draft. The session cache must report a signed-in user;
// if it does not, the "authorization required" signal is raised and
// ErrLoginRequired returned without calling the booking service.
//
// On success the draft is discarded. On failure it is kept for a retry. If
// the booking service rejects a promo booking with a 4xx, the promo is
// treated as no longer valid: its validation is dropped so the draft falls
// back to the base total until the code is validated again.
func (o *Orchestrator) Submit(ctx context.Context, id string) (*models.Booking, error) {
	o.mu.Lock()
	e, ok := o.drafts[id]
	if !ok {
		o.mu.Unlock()
		return nil, ErrDraftNotFound
	}
	if e.submitting {
		o.mu.Unlock()
		return nil, &SubmitInProgressError{DraftID: id}
	}
	e.submitting = true
	d := cloneDraft(e.draft)
	key := e.idemKey
	o.mu.Unlock()

	done := func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if cur, ok := o.drafts[id]; ok && cur == e {
			cur.submitting = false
		}
	}

	if st := o.sessions.CheckStatus(ctx, false); !st.Authenticated {
		done()
		o.logger.Info("submit refused, no signed-in user", zap.String("draftID", id))
		if o.signal != nil {
			o.signal.Broadcast(msgLoginRequired)
		}
		return nil, ErrLoginRequired
	}

	// The check may have found a different user and reset the drafts.
	o.mu.Lock()
	cur, ok := o.drafts[id]
	o.mu.Unlock()
	if !ok || cur != e {
		return nil, ErrDraftNotFound
	}

	req := models.NewBookingRequest(d)
	booking, err := o.bookings.CreateBooking(ctx, req, key)
	if err != nil {
		o.submitFailed(id, e, req, err)
		return nil, err
	}

	o.mu.Lock()
	if cur, ok := o.drafts[id]; ok && cur == e {
		delete(o.drafts, id)
	}
	o.mu.Unlock()

	o.logger.Info("booking created",
		zap.String("draftID", id),
		zap.String("bookingID", booking.ID),
		zap.String("total", req.Total().String()),
	)
	return booking, nil
}

func (o *Orchestrator) submitFailed(id string, e *entry, req models.BookingRequest, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	cur, ok := o.drafts[id]
	if !ok || cur != e {
		return
	}
	cur.submitting = false

	var se *api.ServerError
	p, isPromo := req.(models.PromoBooking)
	if isPromo && errors.As(err, &se) && se.ClientRejected() {
		d := cur.draft
		if d.Validation != nil && d.Validation.Code == p.Code {
			d.Validation = nil
			o.commitLocked(cur, d)
		}
		o.logger.Warn("promo booking rejected, falling back to base total",
			zap.String("draftID", id),
			zap.String("code", p.Code),
			zap.Int("status", se.Status),
			zap.String("message", se.Message),
		)
		return
	}
	o.logger.Warn("booking submit failed, draft kept",
		zap.String("draftID", id),
		zap.String("kind", string(api.KindOf(err))),
		zap.Error(err),
	)
}

// Cancel discards a draft.
func (o *Orchestrator) Cancel(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.drafts[id]; !ok {
		return ErrDraftNotFound
	}
	delete(o.drafts, id)
	return nil
}

// Name identifies the drafts to the session cache's reset list.
func (o *Orchestrator) Name() string { return "booking-drafts" }

// Reset discards every draft together with its promo validation. Results
// still in flight find their draft gone and are dropped.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := len(o.drafts)
	o.drafts = make(map[string]*entry)
	if n > 0 {
		o.logger.Info("booking drafts reset", zap.Int("drafts", n))
	}
}

// Drafts reports how many drafts are open.
func (o *Orchestrator) Drafts() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.drafts)
}

// commitLocked stores d, giving the draft a new idempotency key if the
// request it would produce has changed.
func (o *Orchestrator) commitLocked(e *entry, d models.BookingDraft) {
	if !sameRequest(models.NewBookingRequest(e.draft), models.NewBookingRequest(d)) {
		e.idemKey = uuid.New().String()
	}
	e.draft = d
}

func sameRequest(a, b models.BookingRequest) bool {
	if a.Item() != b.Item() || !a.Total().Equal(b.Total()) {
		return false
	}
	pa, aPromo := a.(models.PromoBooking)
	pb, bPromo := b.(models.PromoBooking)
	return aPromo == bPromo && pa.Code == pb.Code
}

func cloneDraft(d models.BookingDraft) models.BookingDraft {
	if d.Validation != nil {
		v := *d.Validation
		d.Validation = &v
	}
	return d
}
