package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cryptotax/internal/adapter/http/dto"
	"github.com/iho/cryptotax/internal/adapter/valuation"
	"github.com/iho/cryptotax/internal/infrastructure/metrics"
	"github.com/iho/cryptotax/internal/usecase"
)

// dateFormat is the civil-date layout for request price tables.
const dateFormat = "2006-01-02"

// ReportHandler handles report calculation requests.
type ReportHandler struct {
	opts    usecase.Options
	valuer  usecase.Valuer
	ids     usecase.IDGenerator
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewReportHandler creates a new ReportHandler. The valuer is the
// server-wide price source and may be nil when requests carry their
// own price tables.
func NewReportHandler(opts usecase.Options, valuer usecase.Valuer, ids usecase.IDGenerator, m *metrics.Metrics, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		opts:    opts,
		valuer:  valuer,
		ids:     ids,
		metrics: m,
		logger:  logger,
	}
}

// Calculate runs the full pipeline over the records in the request
// body and returns the report.
func (h *ReportHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req dto.CalculateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if len(req.Records) == 0 {
		writeError(w, http.StatusBadRequest, "no records", "request must contain at least one record")
		return
	}

	opts, err := req.Options.ApplyOverrides(h.opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid options", err.Error())
		return
	}

	valuer, err := h.buildValuer(req.Prices)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price table", err.Error())
		return
	}

	records := req.ToDomain(h.ids)

	started := time.Now()
	taxUC := usecase.NewTaxUseCase(valuer, opts, h.logger)
	report, err := taxUC.CalculateReport(r.Context(), records)
	if err != nil {
		if h.metrics != nil {
			h.metrics.ReportErrors.Inc()
		}
		writeError(w, mapDomainError(err), "failed to calculate report", err.Error())

		return
	}

	if h.metrics != nil {
		h.metrics.ObserveReport(
			len(records),
			len(report.DataErrors),
			report.UnmatchedDisposals,
			report.TransferMismatch,
			time.Since(started).Seconds(),
		)
	}

	writeJSON(w, http.StatusOK, dto.ReportFromUseCase(report))
}

// buildValuer selects the price source for one request. A request
// price table takes precedence over the server-wide valuer.
func (h *ReportHandler) buildValuer(prices []dto.PriceRequest) (usecase.Valuer, error) {
	if len(prices) == 0 {
		if h.valuer != nil {
			return h.valuer, nil
		}
		// No prices anywhere. Records without explicit values become
		// data errors downstream.
		return valuation.NewTableValuer(), nil
	}

	table := valuation.NewTableValuer()
	for _, p := range prices {
		day, err := time.Parse(dateFormat, p.Date)
		if err != nil {
			return nil, err
		}
		table.SetPrice(p.Asset, day, p.Price)
	}

	return valuation.NewCachingValuer(table, h.metrics), nil
}
