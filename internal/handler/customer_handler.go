package handler

import (
	"bankapp/internal/service"
	"bankapp/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// 客户相关接口
// ============================================================

// ListCustomers 客户列表（管理员）
// GET /api/v1/customers?page=1&size=10
func (h *Handler) ListCustomers(c *gin.Context) {
	identity := currentIdentity(c)
	if !identity.IsAdmin() {
		forbidden(c)
		return
	}

	page, size := parsePage(c)
	customers, total, err := h.customerService.ListCustomers(c.Request.Context(), page, size)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":  customers,
		"total": total,
		"page":  page,
		"size":  size,
	})
}

// GetCustomer 查询客户
// GET /api/v1/customers/:id
func (h *Handler) GetCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	identity := currentIdentity(c)
	if !identity.IsAdmin() && !h.policy.IsCurrentCustomer(identity, id) {
		forbidden(c)
		return
	}

	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, customer)
}

// GetCustomerByEmail 按邮箱查询客户
// GET /api/v1/customers/email/:email
func (h *Handler) GetCustomerByEmail(c *gin.Context) {
	email := c.Param("email")

	identity := currentIdentity(c)
	if !identity.IsAdmin() && !h.policy.IsCurrentCustomerEmail(identity, email) {
		forbidden(c)
		return
	}

	customer, err := h.customerService.GetCustomerByEmail(c.Request.Context(), email)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, customer)
}

// UpdateCustomerRequest 更新客户请求
type UpdateCustomerRequest struct {
	FirstName   *string `json:"first_name" binding:"omitempty,min=2,max=50"`
	LastName    *string `json:"last_name" binding:"omitempty,min=2,max=50"`
	Email       *string `json:"email" binding:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,numeric,min=10,max=11"`
	Address     *string `json:"address" binding:"omitempty,max=255"`
}

// UpdateCustomer 更新客户资料
// PUT /api/v1/customers/:id
func (h *Handler) UpdateCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	identity := currentIdentity(c)
	if !identity.IsAdmin() && !h.policy.IsCurrentCustomer(identity, id) {
		forbidden(c)
		return
	}

	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), id, service.CustomerPatch{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, customer)
}

// DeleteCustomer 删除客户（管理员）
// DELETE /api/v1/customers/:id
func (h *Handler) DeleteCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	identity := currentIdentity(c)
	if !identity.IsAdmin() {
		forbidden(c)
		return
	}

	if err := h.customerService.DeleteCustomer(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "客户已删除"})
}
