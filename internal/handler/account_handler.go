package handler

import (
	"bankapp/internal/service"
	"bankapp/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ============================================================
// 账户相关接口
// ============================================================

// CreateAccountRequest 开户请求
// initial_balance 传字符串，金额走 decimal 精确解析
type CreateAccountRequest struct {
	CustomerID     int64  `json:"customer_id" binding:"required"`
	AccountType    string `json:"account_type" binding:"required"`
	InitialBalance string `json:"initial_balance"`
}

// CreateAccount 开户
// POST /api/v1/accounts
func (h *Handler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	identity := currentIdentity(c)
	if !identity.IsAdmin() && !h.policy.IsCurrentCustomer(identity, req.CustomerID) {
		forbidden(c)
		return
	}

	initialBalance := decimal.Zero
	if req.InitialBalance != "" {
		var err error
		initialBalance, err = decimal.NewFromString(req.InitialBalance)
		if err != nil {
			response.ParamError(c, "initial_balance 金额格式错误")
			return
		}
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), req.CustomerID, req.AccountType, initialBalance)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, account)
}

// GetAccount 查询账户
// GET /api/v1/accounts/:id
func (h *Handler) GetAccount(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	identity := currentIdentity(c)
	if !identity.IsAdmin() && !h.policy.IsOwnerOfAccount(c.Request.Context(), identity, id) {
		forbidden(c)
		return
	}

	account, err := h.accountService.GetAccount(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, account)
}

// GetAccountByNumber 按账号查询账户
// GET /api/v1/accounts/number/:accountNumber
func (h *Handler) GetAccountByNumber(c *gin.Context) {
	accountNumber := c.Param("accountNumber")

	identity := currentIdentity(c)
	if !identity.IsAdmin() && !h.policy.IsOwnerOfAccountByNumber(c.Request.Context(), identity, accountNumber) {
		forbidden(c)
		return
	}

	account, err := h.accountService.GetAccountByNumber(c.Request.Context(), accountNumber)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, account)
}

// ListCustomerAccounts 客户名下账户
// GET /api/v1/accounts/customer/:customerId
func (h *Handler) ListCustomerAccounts(c *gin.Context) {
	customerID, ok := parseIDParam(c, "customerId")
	if !ok {
		return
	}

	identity := currentIdentity(c)
	if !identity.IsAdmin() && !h.policy.IsCurrentCustomer(identity, customerID) {
		forbidden(c)
		return
	}

	accounts, err := h.accountService.ListCustomerAccounts(c.Request.Context(), customerID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, accounts)
}

// UpdateAccountRequest 更新账户请求
// 账号格式 ^[A-Z0-9]{10,16}$ 在服务层校验
type UpdateAccountRequest struct {
	AccountNumber *string `json:"account_number" binding:"omitempty,min=10,max=16"`
	AccountType   *string `json:"account_type"`
}

// UpdateAccount 更新账户
// PUT /api/v1/accounts/:id
func (h *Handler) UpdateAccount(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	identity := currentIdentity(c)
	if !identity.IsAdmin() && !h.policy.IsOwnerOfAccount(c.Request.Context(), identity, id) {
		forbidden(c)
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), id, service.AccountPatch{
		AccountNumber: req.AccountNumber,
		AccountType:   req.AccountType,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, account)
}

// DeleteAccount 销户
// DELETE /api/v1/accounts/:id
func (h *Handler) DeleteAccount(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	identity := currentIdentity(c)
	if !identity.IsAdmin() && !h.policy.IsOwnerOfAccount(c.Request.Context(), identity, id) {
		forbidden(c)
		return
	}

	if err := h.accountService.DeleteAccount(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "账户已删除"})
}
