package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/sand/nft-marketplace/client/internal/core/ports"
	"github.com/sand/nft-marketplace/client/internal/entities"
	"github.com/sand/nft-marketplace/client/internal/session"
	"github.com/sand/nft-marketplace/client/internal/units"
	"github.com/sand/nft-marketplace/client/internal/usecases"
)

// maxAssetSize bounds uploaded asset bodies.
const maxAssetSize = 32 << 20

type HTTPHandler struct {
	logger      *slog.Logger
	marketplace Marketplace
	navigator   ports.Navigator

	// background mint-and-list runs
	pending sync.WaitGroup
}

func NewHTTPHandler(logger *slog.Logger, marketplace Marketplace, navigator ports.Navigator) *HTTPHandler {
	return &HTTPHandler{
		logger:      logger,
		marketplace: marketplace,
		navigator:   navigator,
	}
}

// CreateItemRequest is the create-item form plus the uploaded asset URL.
type CreateItemRequest struct {
	entities.FormInput
	Image string `json:"image"`
}

type ResellRequest struct {
	Price    string `json:"price"`
	TokenURI string `json:"tokenURI"`
}

func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	router.Use(h.withSession)

	// Wallet
	router.HandleFunc("/wallet/connect", h.ConnectWallet).Methods("POST")
	router.HandleFunc("/wallet/account", h.GetAccount).Methods("GET")

	// Assets and listings
	router.HandleFunc("/assets", h.UploadAsset).Methods("POST")
	router.HandleFunc("/nfts", h.CreateItem).Methods("POST")
	router.HandleFunc("/nfts", h.GetListings).Methods("GET")
	router.HandleFunc("/nfts/mine", h.GetMyListings).Methods("GET")
	router.HandleFunc("/nfts/{tokenId:[0-9]+}/resell", h.ResellItem).Methods("POST")

	router.HandleFunc("/transactions", h.GetTransactions).Methods("GET")
	router.HandleFunc("/currency", h.GetCurrency).Methods("GET")
}

func (h *HTTPHandler) ConnectWallet(w http.ResponseWriter, r *http.Request) {
	if err := h.marketplace.Connect(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "[Connect Wallet] Error requesting accounts", "error", err)
		http.Error(w, fmt.Sprintf("Failed to connect wallet: %v", err), http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"account": h.session(r).Account(),
	})
}

func (h *HTTPHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"account":   sess.Account(),
		"connected": sess.Connected(),
	})
}

// UploadAsset accepts either a multipart "file" field or a raw body.
func (h *HTTPHandler) UploadAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAssetSize)

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		data, err = readFormFile(r, "file")
	} else {
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid asset: %v", err), http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		http.Error(w, "Missing asset body", http.StatusBadRequest)
		return
	}

	url, ok := h.marketplace.UploadAsset(r.Context(), data)
	if !ok {
		http.Error(w, "Failed to upload asset", http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{"url": url})
}

// CreateItem starts minting and listing a token and returns at once. The
// outcome reaches the UI as events; the run outlives the request.
func (h *HTTPHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if !req.Complete() || strings.TrimSpace(req.Image) == "" {
		http.Error(w, "Missing required fields: name, description, price and image", http.StatusBadRequest)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		h.marketplace.MintAndList(ctx, req.FormInput, req.Image, h.navigator)
	}()

	h.logger.InfoContext(r.Context(), "[Create Item] Mint and list started", "name", req.Name, "price", req.Price)
	h.writeJSON(w, http.StatusAccepted, map[string]any{"status": "accepted"})
}

// Wait blocks until every background mint-and-list run has finished.
func (h *HTTPHandler) Wait() {
	h.pending.Wait()
}

func (h *HTTPHandler) ResellItem(w http.ResponseWriter, r *http.Request) {
	tokenID, err := strconv.ParseInt(mux.Vars(r)["tokenId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid token id", http.StatusBadRequest)
		return
	}

	var req ResellRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	err = h.marketplace.ListForSale(r.Context(), req.TokenURI, req.Price, entities.Resell{TokenID: tokenID})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "[Resell] Error listing token", "error", err, "token_id", tokenID)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	h.logger.InfoContext(r.Context(), "[Resell] Token listed", "token_id", tokenID, "price", req.Price)
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "listed", "tokenId": tokenID})
}

func (h *HTTPHandler) GetListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.marketplace.FetchAllListings(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error fetching listings", "error", err)
		http.Error(w, fmt.Sprintf("Failed to fetch listings: %v", err), statusFor(err))
		return
	}

	h.writeJSON(w, http.StatusOK, nonNil(listings))
}

// GetMyListings serves ?kind=listed for the caller's listed tokens, anything
// else for the tokens the caller owns.
func (h *HTTPHandler) GetMyListings(w http.ResponseWriter, r *http.Request) {
	scope := entities.ParseListingScope(r.URL.Query().Get("kind"))

	listings, err := h.marketplace.FetchScopedListings(r.Context(), scope)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error fetching scoped listings", "error", err, "scope", scope.String())
		http.Error(w, fmt.Sprintf("Failed to fetch listings: %v", err), statusFor(err))
		return
	}

	h.writeJSON(w, http.StatusOK, nonNil(listings))
}

// GetTransactions defaults to the connected account.
func (h *HTTPHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	if account == "" {
		account = h.session(r).Account()
	}
	if account == "" {
		http.Error(w, "Missing required parameter: account", http.StatusBadRequest)
		return
	}

	transactions, err := h.marketplace.Transactions(r.Context(), account)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error getting transactions", "error", err, "account", account)
		http.Error(w, fmt.Sprintf("Failed to retrieve transactions: %v", err), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, nonNil(transactions))
}

func (h *HTTPHandler) GetCurrency(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"currency": h.marketplace.Currency()})
}

// withSession carries the client session through the request context.
func (h *HTTPHandler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := session.WithSession(r.Context(), h.marketplace.Session())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *HTTPHandler) session(r *http.Request) *session.Session {
	if sess := session.FromContext(r.Context()); sess != nil {
		return sess
	}
	return h.marketplace.Session()
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Error encoding response", "error", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, usecases.ErrWalletNotFound):
		return http.StatusPreconditionFailed
	case errors.Is(err, units.ErrInvalidAmount), errors.Is(err, usecases.ErrInvalidTokenID):
		return http.StatusBadRequest
	case errors.Is(err, usecases.ErrTransactionReverted):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func readFormFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
