// Package api exposes the portfolio and its price sync over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/etnz/kite"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Portfolio is the read side of a kite.Tracker.
type Portfolio interface {
	Portfolio() kite.Portfolio
	LastSync() (label string, errs []string)
}

// Refresher runs a single-flight price sync, like quote.Refresher.
type Refresher interface {
	Refresh(ctx context.Context) (kite.SyncStatus, bool)
	Busy() bool
}

type Server struct {
	Portfolio Portfolio
	Refresher Refresher
	Logger    logrus.FieldLogger
}

func NewServer(p Portfolio, r Refresher, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{Portfolio: p, Refresher: r, Logger: logger}
}

// Handler returns the complete router, health check included.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.Mount(r)
	return r
}

func (s *Server) Mount(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/holdings", s.handleHoldings)
		r.Get("/totals", s.handleTotals)
		r.Post("/sync", s.handleSync)
	})
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, apiError{Error: message})
}

type statusResponse struct {
	LastSync string   `json:"lastSync"`
	Errors   []string `json:"errors"`
	Syncing  bool     `json:"syncing"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	label, errs := s.Portfolio.LastSync()
	if errs == nil {
		errs = []string{}
	}
	resp := statusResponse{LastSync: label, Errors: errs}
	if s.Refresher != nil {
		resp.Syncing = s.Refresher.Busy()
	}
	writeJSON(w, http.StatusOK, resp)
}

type holdingResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Code         string           `json:"code"`
	Period       kite.Period      `json:"period"`
	Shares       decimal.Decimal  `json:"shares"`
	Cost         decimal.Decimal  `json:"cost"`
	CurrentPrice decimal.Decimal  `json:"currentPrice"`
	MarketValue  decimal.Decimal  `json:"marketValue"`
	Profit       decimal.Decimal  `json:"profit"`
	Return       decimal.Decimal  `json:"return"`
	TakeProfit   *decimal.Decimal `json:"takeProfit"`
	StopLoss     *decimal.Decimal `json:"stopLoss"`
	HitTP        bool             `json:"hitTakeProfit"`
	HitSL        bool             `json:"hitStopLoss"`
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	p := s.Portfolio.Portfolio()
	response := make([]holdingResponse, 0, len(p.Stocks))
	for _, st := range p.Stocks {
		response = append(response, holdingResponse{
			ID:           st.ID,
			Name:         st.DisplayName(p.Names),
			Code:         st.Code,
			Period:       st.Period,
			Shares:       st.Shares,
			Cost:         st.Cost,
			CurrentPrice: st.CurrentPrice,
			MarketValue:  st.MarketValue(),
			Profit:       st.Profit(),
			Return:       st.Return().Round(2),
			TakeProfit:   st.TakeProfit,
			StopLoss:     st.StopLoss,
			HitTP:        st.HitTakeProfit(),
			HitSL:        st.HitStopLoss(),
		})
	}
	writeJSON(w, http.StatusOK, response)
}

type totalsResponse struct {
	kite.Totals
	CashRatio decimal.Decimal `json:"cashRatio"`
	Wind      kite.WindMood   `json:"wind"`
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	p := s.Portfolio.Portfolio()
	totals := p.Totals()
	writeJSON(w, http.StatusOK, totalsResponse{
		Totals:    totals,
		CashRatio: totals.CashRatio().Round(2),
		Wind:      p.Wind(),
	})
}

type syncResponse struct {
	kite.SyncStatus
	Label  string `json:"label"`
	Shared bool   `json:"shared"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.Refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "price sync is not available")
		return
	}
	// the sync may be shared with other callers: a hang up must not cancel it.
	status, shared := s.Refresher.Refresh(context.WithoutCancel(r.Context()))
	if !status.OK() {
		s.Logger.WithField("errors", status.Errors).Warn("sync requested over http completed with errors")
	}
	writeJSON(w, http.StatusOK, syncResponse{SyncStatus: status, Label: status.Label(), Shared: shared})
}
