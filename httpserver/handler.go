package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/amaracantik180418/code-wiz-2000/api"
	"github.com/amaracantik180418/code-wiz-2000/interfaces"
	"github.com/amaracantik180418/code-wiz-2000/metrics"
	"github.com/amaracantik180418/code-wiz-2000/registry"
)

// maxBodySize is the maximum allowed request body size (64KB). Registry
// requests are small fixed-shape JSON documents.
const maxBodySize = 64 * 1024

// persistTimeout bounds background snapshot writes.
const persistTimeout = 30 * time.Second

// Handler processes HTTP requests for the registry service. Mutations go
// through the engine; applied mutations are persisted to the snapshot store
// in the background when one is configured.
type Handler struct {
	engine  *registry.PhasedRegistry
	store   interfaces.SnapshotStore
	metrics *metrics.RegistryMetrics
	log     *slog.Logger
}

// NewHandler creates a request handler around the engine. The snapshot
// store may be nil to disable persistence.
func NewHandler(engine *registry.PhasedRegistry, store interfaces.SnapshotStore, m *metrics.RegistryMetrics, log *slog.Logger) *Handler {
	return &Handler{
		engine:  engine,
		store:   store,
		metrics: m,
		log:     log,
	}
}

// HandleRegister processes commitment registrations for the current phase.
//
// URL format: POST /api/registry/commitments
// Request body: api.RegisterRequest
// Response: api.RegisterResponse, or a mapped engine rejection.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer h.metrics.ObserveRegister(start)

	var req api.RegisterRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	paid, ok := req.PaidAmountInt()
	if !ok {
		h.writeError(w, http.StatusBadRequest, "paid_amount must be a non-negative decimal integer")
		return
	}

	record, err := h.engine.RegisterCommitment(req.Participant, req.CommitmentHash, paid)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.metrics.Registrations.Inc()
	h.persistLatest()

	h.writeJSON(w, api.RegisterResponse{
		Participant:    record.Participant,
		CommitmentHash: record.CommitmentHash,
		PhaseIndex:     record.PhaseIndex,
		PaidAmount:     record.PaidAmount.String(),
	})
}

// HandleSeal processes phase seal requests.
//
// URL format: POST /api/registry/seal
// Request body: api.SealRequest
// Response: api.SealResponse with the sealed and the newly opened index.
func (h *Handler) HandleSeal(w http.ResponseWriter, r *http.Request) {
	var req api.SealRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	receipt, err := h.engine.SealCurrentPhase(req.Caller)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.metrics.Seals.Inc()
	h.persistSealed(receipt.SealedIndex)

	h.writeJSON(w, api.SealResponse{
		SealedIndex: receipt.SealedIndex,
		NextIndex:   receipt.NextIndex,
	})
}

// HandlePhase returns the index of the open phase.
func (h *Handler) HandlePhase(w http.ResponseWriter, r *http.Request) {
	index, err := h.engine.CurrentPhaseIndex()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, api.PhaseResponse{CurrentPhaseIndex: index})
}

// HandleCommitment returns a participant's commitment hash in a phase, or
// 404 when the participant never registered there.
func (h *Handler) HandleCommitment(w http.ResponseWriter, r *http.Request) {
	phaseIndex, ok := h.phaseIndexParam(w, r)
	if !ok {
		return
	}

	participant, err := interfaces.NewAddressFromHex(chi.URLParam(r, "participant"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid participant address")
		return
	}

	hash, present, err := h.engine.GetCommitment(phaseIndex, participant)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !present {
		h.writeError(w, http.StatusNotFound, "no commitment for participant in this phase")
		return
	}

	h.writeJSON(w, api.CommitmentResponse{
		PhaseIndex:     phaseIndex,
		Participant:    participant,
		CommitmentHash: hash,
	})
}

// HandleCount returns a phase's registrant count. Unknown phases count as
// empty.
func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	phaseIndex, ok := h.phaseIndexParam(w, r)
	if !ok {
		return
	}

	count, err := h.engine.PhaseRegistrantCount(phaseIndex)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, api.CountResponse{PhaseIndex: phaseIndex, RegistrantCount: count})
}

// HandleTreasury returns the cumulative amount forwarded to the treasury.
func (h *Handler) HandleTreasury(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, api.TreasuryResponse{
		Treasury:       h.engine.Config().Treasury,
		TotalForwarded: h.engine.TotalForwarded().String(),
	})
}

func (h *Handler) phaseIndexParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid phase index")
		return 0, false
	}
	return index, true
}

// persistLatest refreshes the 'latest' snapshot in the background. The
// mutation is already applied; a persistence failure is logged, not
// surfaced to the caller.
func (h *Handler) persistLatest() {
	if h.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := registry.PersistLatest(ctx, h.engine, h.store); err != nil {
			h.log.Error("Snapshot persistence failed", "err", err)
		}
	}()
}

// persistSealed archives the sealed phase and refreshes 'latest' in the
// background.
func (h *Handler) persistSealed(sealedIndex uint64) {
	if h.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := registry.PersistSealed(ctx, h.engine, h.store, sealedIndex); err != nil {
			h.log.Error("Sealed phase archive failed",
				slog.Uint64("sealed", sealedIndex),
				"err", err)
		}
	}()
}

// writeEngineError maps the engine's rejection taxonomy onto HTTP statuses.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	var status int
	var reason string

	switch {
	case errors.Is(err, interfaces.ErrUnauthorized):
		status, reason = http.StatusForbidden, "unauthorized"
	case errors.Is(err, interfaces.ErrIncorrectFee):
		status, reason = http.StatusPaymentRequired, "incorrect_fee"
	case errors.Is(err, interfaces.ErrDuplicateRegistration):
		status, reason = http.StatusConflict, "duplicate_registration"
	case errors.Is(err, interfaces.ErrPhaseSealed):
		status, reason = http.StatusConflict, "phase_sealed"
	case errors.Is(err, interfaces.ErrPhaseNotYetDue):
		status, reason = http.StatusConflict, "phase_not_yet_due"
	default:
		status, reason = http.StatusInternalServerError, "internal"
	}

	h.metrics.IncrementRejection(reason)
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(api.ErrorResponse{Error: message}); err != nil {
		h.log.Error("Failed to encode error response", "err", err)
	}
}
