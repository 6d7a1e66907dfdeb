package dashboard

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"payment-stream-lab/internal/domain"
)

// transactionView is the JSON shape of one log row.
type transactionView struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	Time          string `json:"time"`
	Amount        string `json:"amount"`
	Category      string `json:"category"`
	Merchant      string `json:"merchant,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// counterView is the JSON shape of one counter row.
type counterView struct {
	Key          string `json:"key"`
	SecondaryKey string `json:"secondary_key,omitempty"`
	Total        string `json:"total"`
	Count        int64  `json:"count"`
}

// summaryView is the JSON shape of the /api/summary response.
type summaryView struct {
	TakenAt        string            `json:"taken_at"`
	TotalCount     int64             `json:"total_count"`
	TotalAmount    string            `json:"total_amount"`
	Transactions   []transactionView `json:"transactions"`
	Categories     []counterView     `json:"categories"`
	Merchants      []counterView     `json:"merchants"`
	PaymentMethods []counterView     `json:"payment_methods"`
	Hourly         []transactionView `json:"hourly"`
}

func viewTransactions(rows []*domain.TransactionEvent) []transactionView {
	out := make([]transactionView, 0, len(rows))
	for _, e := range rows {
		out = append(out, transactionView{
			ID:            e.ID.String(),
			UserID:        e.UserID,
			Time:          e.Time.UTC().Format(time.RFC3339),
			Amount:        domain.FormatMinor(e.AmountMinor),
			Category:      domain.DisplayCategory(e.Category),
			Merchant:      e.Merchant,
			PaymentMethod: e.PaymentMethod,
		})
	}
	return out
}

func viewCounters(rows []*domain.CounterRow, displayKey bool) []counterView {
	out := make([]counterView, 0, len(rows))
	for _, r := range rows {
		key := r.Key.Primary
		if displayKey {
			key = domain.DisplayCategory(key)
		}
		out = append(out, counterView{
			Key:          key,
			SecondaryKey: r.Key.Secondary,
			Total:        domain.FormatMinor(r.TotalAmountMinor),
			Count:        r.TransactionCount,
		})
	}
	return out
}

func viewSummary(s Snapshot) summaryView {
	return summaryView{
		TakenAt:        s.TakenAt.UTC().Format(time.RFC3339),
		TotalCount:     s.TotalCount,
		TotalAmount:    domain.FormatMinor(s.TotalAmountMinor),
		Transactions:   viewTransactions(s.Transactions),
		Categories:     viewCounters(s.Categories, true),
		Merchants:      viewCounters(s.Merchants, false),
		PaymentMethods: viewCounters(s.PaymentMethods, false),
		Hourly:         viewTransactions(s.Hourly),
	}
}

// Server exposes poller snapshots over HTTP and WebSocket.
type Server struct {
	poller   *Poller
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a dashboard API server over the given poller.
func NewServer(poller *Poller, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		poller: poller,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Demo dashboard, same-origin policy left to the deployment.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", s.handleSummary)
		r.Get("/transactions", s.handleTransactions)
		r.Get("/categories", s.handleCategories)
		r.Get("/user-categories", s.handleUserCategories)
		r.Get("/merchants", s.handleMerchants)
		r.Get("/payment-methods", s.handlePaymentMethods)
		r.Get("/hourly", s.handleHourly)
	})
	r.Get("/ws", s.handleWS)
	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, viewSummary(s.poller.Current()))
}

func (s *Server) handleTransactions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, viewTransactions(s.poller.Current().Transactions))
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, viewCounters(s.poller.Current().Categories, true))
}

func (s *Server) handleUserCategories(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, viewCounters(s.poller.Current().UserCategories, false))
}

func (s *Server) handleMerchants(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, viewCounters(s.poller.Current().Merchants, false))
}

func (s *Server) handlePaymentMethods(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, viewCounters(s.poller.Current().PaymentMethods, false))
}

func (s *Server) handleHourly(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, viewTransactions(s.poller.Current().Hourly))
}

// handleWS upgrades to a websocket and pushes each snapshot refresh until
// the client goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	snapshots, cancel := s.poller.Subscribe()
	defer cancel()

	// Drain reads so close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	if err := conn.WriteJSON(viewSummary(s.poller.Current())); err != nil {
		return
	}
	for snap := range snapshots {
		if err := conn.WriteJSON(viewSummary(snap)); err != nil {
			return
		}
	}
}
