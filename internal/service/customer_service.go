package service

import (
	"context"
	"time"

	"bankapp/internal/apperr"
	"bankapp/internal/model"

	"golang.org/x/crypto/bcrypt"
)

type CustomerService struct {
	store Store
}

func NewCustomerService(store Store) *CustomerService {
	return &CustomerService{store: store}
}

// CreateCustomerInput 开客户入参
type CreateCustomerInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	PhoneNumber string
	Address     string
	Roles       []string // 为空时默认授予 ROLE_USER
}

// CreateCustomer 创建客户
// 邮箱冲突返回 Duplicate，绝不静默吞掉
func (s *CustomerService) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*model.Customer, error) {
	exists, err := s.store.Customers().ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Duplicate("客户", "email", input.Email)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("密码哈希失败", err)
	}

	roleNames := input.Roles
	if len(roleNames) == 0 {
		roleNames = []string{model.RoleUser}
	}
	roles := make([]model.Role, 0, len(roleNames))
	for _, name := range roleNames {
		role, err := s.store.Customers().EnsureRole(ctx, name)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}

	customer := &model.Customer{
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		Password:    string(hashed),
		PhoneNumber: input.PhoneNumber,
		Address:     input.Address,
		Roles:       roles,
	}
	if err := s.store.Customers().Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// CustomerPatch 客户可变字段
type CustomerPatch struct {
	FirstName   *string
	LastName    *string
	Email       *string
	PhoneNumber *string
	Address     *string
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, id int64, patch CustomerPatch) (*model.Customer, error) {
	customer, err := s.store.Customers().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil && *patch.Email != customer.Email {
		exists, err := s.store.Customers().ExistsByEmail(ctx, *patch.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperr.Duplicate("客户", "email", *patch.Email)
		}
		customer.Email = *patch.Email
	}
	if patch.FirstName != nil {
		customer.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		customer.LastName = *patch.LastName
	}
	if patch.PhoneNumber != nil {
		customer.PhoneNumber = *patch.PhoneNumber
	}
	if patch.Address != nil {
		customer.Address = *patch.Address
	}

	customer.UpdatedAt = time.Now()
	if err := s.store.Customers().Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// DeleteCustomer 删除客户
// 名下还有账户时拒绝删除 —— 账户必须先逐个销户
func (s *CustomerService) DeleteCustomer(ctx context.Context, id int64) error {
	if _, err := s.store.Customers().GetByID(ctx, id); err != nil {
		return err
	}

	accounts, err := s.store.Accounts().ListByCustomerID(ctx, id)
	if err != nil {
		return err
	}
	if len(accounts) > 0 {
		return apperr.BusinessRule("客户名下仍有账户，不能删除")
	}

	return s.store.Customers().Delete(ctx, id)
}

func (s *CustomerService) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	return s.store.Customers().GetByID(ctx, id)
}

func (s *CustomerService) GetCustomerByEmail(ctx context.Context, email string) (*model.Customer, error) {
	return s.store.Customers().GetByEmail(ctx, email)
}

func (s *CustomerService) ListCustomers(ctx context.Context, page, size int) ([]*model.Customer, int64, error) {
	page, size = normalizePage(page, size)
	return s.store.Customers().List(ctx, page, size)
}
