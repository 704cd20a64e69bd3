// registration/api/payment_handler.go
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/hackbits/registration-service/registration/service"
	sharedapi "github.com/hackbits/registration-service/shared/api"
	"github.com/hackbits/registration-service/shared/logger"
)

// maxUploadBytes caps a document-upload request body (two images).
const maxUploadBytes = 10 << 20

// uploadTimeout is longer than the default request timeout because a
// document upload makes two blob-store round trips.
const uploadTimeout = 20 * time.Second

// PaymentHandlers exposes the payment and document-upload surface.
type PaymentHandlers struct {
	payments  *service.PaymentService
	documents *service.DocumentService
	log       *logger.Logger
}

// NewPaymentHandlers creates the handler set for payment routes.
func NewPaymentHandlers(payments *service.PaymentService, documents *service.DocumentService, log *logger.Logger) *PaymentHandlers {
	return &PaymentHandlers{payments: payments, documents: documents, log: log}
}

// RegisterRoutes mounts the public payment routes.
func (ph *PaymentHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/teams/{id}/payment/order", ph.CreateOrderHandler).Methods(http.MethodPost)
	router.HandleFunc("/teams/{id}/payment/proof", ph.SubmitProofHandler).Methods(http.MethodPost)
	router.HandleFunc("/teams/{id}/payment/transaction", ph.RecordTransactionHandler).Methods(http.MethodPost)
	router.HandleFunc("/teams/{id}/documents", ph.UploadDocumentsHandler).Methods(http.MethodPost)
}

// CreateOrderHandler creates a gateway checkout order for the team's tier
// price.
// POST /teams/{id}/payment/order
func (ph *PaymentHandlers) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	order, err := ph.payments.CreateOrder(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, ph.log, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusCreated, order)
}

type SubmitProofRequest struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}

// SubmitProofHandler records a completed gateway checkout after signature
// and capture verification.
// POST /teams/{id}/payment/proof
func (ph *PaymentHandlers) SubmitProofHandler(w http.ResponseWriter, r *http.Request) {
	var req SubmitProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		sharedapi.WriteBadRequest(w, "orderId, paymentId and signature are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := ph.payments.SubmitProof(ctx, mux.Vars(r)["id"], req.OrderID, req.PaymentID, req.Signature); err != nil {
		writeServiceError(w, ph.log, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "proof recorded"})
}

type RecordTransactionRequest struct {
	TransactionID string `json:"transactionId"`
	Amount        int64  `json:"amount"`
}

// RecordTransactionHandler records a manually supplied bank transaction id.
// POST /teams/{id}/payment/transaction
func (ph *PaymentHandlers) RecordTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var req RecordTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.TransactionID == "" {
		sharedapi.WriteBadRequest(w, "transactionId is required")
		return
	}
	if req.Amount <= 0 {
		sharedapi.WriteBadRequest(w, "amount must be positive")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := ph.payments.RecordTransaction(ctx, mux.Vars(r)["id"], req.TransactionID, req.Amount); err != nil {
		writeServiceError(w, ph.log, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "transaction recorded"})
}

// UploadDocumentsHandler stores the payment screenshot and id card from a
// multipart form ("paymentScreenshot", "idCard" file fields).
// POST /teams/{id}/documents
func (ph *PaymentHandlers) UploadDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		sharedapi.WriteBadRequest(w, "invalid multipart form or upload too large")
		return
	}

	screenshot, err := readFormFile(r, "paymentScreenshot")
	if err != nil {
		sharedapi.WriteBadRequest(w, "paymentScreenshot file is required")
		return
	}
	idCard, err := readFormFile(r, "idCard")
	if err != nil {
		sharedapi.WriteBadRequest(w, "idCard file is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	urls, err := ph.documents.UploadDocuments(ctx, mux.Vars(r)["id"], screenshot, idCard)
	if err != nil {
		writeServiceError(w, ph.log, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, urls)
}

func readFormFile(r *http.Request, field string) (service.Upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return service.Upload{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return service.Upload{}, err
	}
	return service.Upload{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}
