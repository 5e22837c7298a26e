package handlers

import (
	"io"
	"net/http"

	"crypto_invest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateDeposit accepts multipart form fields amount, paymentMethod and the
// proof file under "proofImage".
func (h *Handler) CreateDeposit(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxProofSize+1<<20)

	amount, err := decimal.NewFromString(c.PostForm("amount"))
	if err != nil {
		badRequest(c, "invalid amount")
		return
	}
	fh, err := c.FormFile("proofImage")
	if err != nil {
		badRequest(c, "proofImage is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "cannot read proofImage")
		return
	}
	defer f.Close()

	d, err := h.Deposits.Create(c.Request.Context(), userID, amount, c.PostForm("paymentMethod"), service.ProofUpload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Body:     f,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"deposit": d})
}

type updateDepositRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"paymentMethod" binding:"required"`
}

func (h *Handler) UpdateDeposit(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "amount and paymentMethod are required")
		return
	}
	d, err := h.Deposits.Update(c.Request.Context(), userID, id, req.Amount, req.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposit": d})
}

func (h *Handler) DeleteDeposit(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Deposits.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deposit deleted"})
}

func (h *Handler) ListDeposits(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	list, err := h.Deposits.ListMine(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposits": nonNil(list)})
}

// DepositProof redirects to a presigned URL when the proof lives in object
// storage, otherwise streams the file.
func (h *Handler) DepositProof(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	url, body, contentType, err := h.Deposits.Proof(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if url != "" {
		c.Redirect(http.StatusTemporaryRedirect, url)
		return
	}
	defer body.Close()
	c.Header("Cache-Control", "private, no-store")
	c.Status(http.StatusOK)
	c.Header("Content-Type", contentType)
	_, _ = io.Copy(c.Writer, body)
}
