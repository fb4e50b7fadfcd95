package handler

import (
	"bankapp/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ============================================================
// 交易相关接口
// ============================================================

// MoneyRequest 存取款请求
// amount 传字符串，走 decimal 精确解析，拒绝二进制浮点
type MoneyRequest struct {
	AccountNumber string `json:"account_number" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	Description   string `json:"description" binding:"omitempty,max=255"`
}

// Deposit 存款
// POST /api/v1/transactions/deposit
//
// 【关键点】记账接口的授权全部在这里完成，
// 账本服务本身不做权限判断
func (h *Handler) Deposit(c *gin.Context) {
	var req MoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	identity := currentIdentity(c)
	if !identity.IsAdmin() && !h.policy.IsOwnerOfAccountByNumber(c.Request.Context(), identity, req.AccountNumber) {
		forbidden(c)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.ParamError(c, "amount 金额格式错误")
		return
	}

	txn, err := h.ledgerService.Deposit(c.Request.Context(), req.AccountNumber, amount, req.Description)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, txn)
}

// Withdraw 取款
// POST /api/v1/transactions/withdraw
func (h *Handler) Withdraw(c *gin.Context) {
	var req MoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	identity := currentIdentity(c)
	if !identity.IsAdmin() && !h.policy.IsOwnerOfAccountByNumber(c.Request.Context(), identity, req.AccountNumber) {
		forbidden(c)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.ParamError(c, "amount 金额格式错误")
		return
	}

	txn, err := h.ledgerService.Withdraw(c.Request.Context(), req.AccountNumber, amount, req.Description)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, txn)
}

// TransferRequest 转账请求
type TransferRequest struct {
	SourceAccountNumber string `json:"source_account_number" binding:"required"`
	TargetAccountNumber string `json:"target_account_number" binding:"required"`
	Amount              string `json:"amount" binding:"required"`
	Description         string `json:"description" binding:"omitempty,max=255"`
}

// Transfer 转账
// POST /api/v1/transactions/transfer
// 只要求调用方是源账户持有人，目标账户可以是任何人的
func (h *Handler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	identity := currentIdentity(c)
	if !identity.IsAdmin() && !h.policy.IsOwnerOfAccountByNumber(c.Request.Context(), identity, req.SourceAccountNumber) {
		forbidden(c)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.ParamError(c, "amount 金额格式错误")
		return
	}

	txn, err := h.ledgerService.Transfer(c.Request.Context(), req.SourceAccountNumber, req.TargetAccountNumber, amount, req.Description)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, txn)
}

// GetTransaction 查询单笔流水
// GET /api/v1/transactions/:id
func (h *Handler) GetTransaction(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	identity := currentIdentity(c)
	if !identity.IsAdmin() && !h.policy.IsOwnerOfTransaction(c.Request.Context(), identity, id) {
		forbidden(c)
		return
	}

	txn, err := h.queryService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, txn)
}

// ListAccountTransactions 按账户分页查询流水
// GET /api/v1/transactions/account/:accountId?page=1&size=10
// 带 start/end 查询参数时走日期区间（不分页），带 type 时按类型过滤
func (h *Handler) ListAccountTransactions(c *gin.Context) {
	accountID, ok := parseIDParam(c, "accountId")
	if !ok {
		return
	}

	identity := currentIdentity(c)
	if !identity.IsAdmin() && !h.policy.IsOwnerOfAccount(c.Request.Context(), identity, accountID) {
		forbidden(c)
		return
	}

	ctx := c.Request.Context()

	if c.Query("start") != "" || c.Query("end") != "" {
		start, end, ok := parseDateRange(c)
		if !ok {
			return
		}
		txns, err := h.queryService.ListByAccountIDBetween(ctx, accountID, start, end)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Success(c, gin.H{"list": txns})
		return
	}

	if txnType := c.Query("type"); txnType != "" {
		txns, err := h.queryService.ListByAccountIDAndType(ctx, accountID, txnType)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Success(c, gin.H{"list": txns})
		return
	}

	page, size := parsePage(c)
	txns, total, err := h.queryService.ListByAccountID(ctx, accountID, page, size)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":  txns,
		"total": total,
		"page":  page,
		"size":  size,
	})
}

// ListAccountTransactionsByNumber 按账号查询流水
// GET /api/v1/transactions/account/number/:accountNumber
func (h *Handler) ListAccountTransactionsByNumber(c *gin.Context) {
	accountNumber := c.Param("accountNumber")

	identity := currentIdentity(c)
	if !identity.IsAdmin() && !h.policy.IsOwnerOfAccountByNumber(c.Request.Context(), identity, accountNumber) {
		forbidden(c)
		return
	}

	ctx := c.Request.Context()

	if c.Query("start") != "" || c.Query("end") != "" {
		start, end, ok := parseDateRange(c)
		if !ok {
			return
		}
		txns, err := h.queryService.ListByAccountNumberBetween(ctx, accountNumber, start, end)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Success(c, gin.H{"list": txns})
		return
	}

	if txnType := c.Query("type"); txnType != "" {
		txns, err := h.queryService.ListByAccountNumberAndType(ctx, accountNumber, txnType)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Success(c, gin.H{"list": txns})
		return
	}

	page, size := parsePage(c)
	txns, total, err := h.queryService.ListByAccountNumber(ctx, accountNumber, page, size)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":  txns,
		"total": total,
		"page":  page,
		"size":  size,
	})
}

// ListCustomerTransactions 按客户查询流水
// GET /api/v1/transactions/customer/:customerId
func (h *Handler) ListCustomerTransactions(c *gin.Context) {
	customerID, ok := parseIDParam(c, "customerId")
	if !ok {
		return
	}

	identity := currentIdentity(c)
	if !identity.IsAdmin() && !h.policy.IsCurrentCustomer(identity, customerID) {
		forbidden(c)
		return
	}

	ctx := c.Request.Context()

	if c.Query("start") != "" || c.Query("end") != "" {
		start, end, ok := parseDateRange(c)
		if !ok {
			return
		}
		txns, err := h.queryService.ListByCustomerIDBetween(ctx, customerID, start, end)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Success(c, gin.H{"list": txns})
		return
	}

	page, size := parsePage(c)
	txns, total, err := h.queryService.ListByCustomerID(ctx, customerID, page, size)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":  txns,
		"total": total,
		"page":  page,
		"size":  size,
	})
}
