package repository

import (
	"context"
	"errors"

	"bankapp/internal/apperr"
	"bankapp/internal/model"

	"gorm.io/gorm"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, customer *model.Customer) error {
	err := r.db.WithContext(ctx).Create(customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Duplicate("客户", "email", customer.Email)
		}
		return apperr.Internal("创建客户失败", err)
	}
	return nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).Preload("Roles").Where("id = ?", id).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("客户", "id", id)
		}
		return nil, apperr.Internal("查询客户失败", err)
	}
	return &customer, nil
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).Preload("Roles").Where("email = ?", email).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("客户", "email", email)
		}
		return nil, apperr.Internal("查询客户失败", err)
	}
	return &customer, nil
}

func (r *CustomerRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Customer{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, apperr.Internal("查询客户失败", err)
	}
	return count > 0, nil
}

func (r *CustomerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Customer{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, apperr.Internal("查询客户失败", err)
	}
	return count > 0, nil
}

func (r *CustomerRepository) List(ctx context.Context, page, size int) ([]*model.Customer, int64, error) {
	var customers []*model.Customer
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Customer{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("统计客户失败", err)
	}

	err := query.
		Preload("Roles").
		Order("first_name ASC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&customers).Error
	if err != nil {
		return nil, 0, apperr.Internal("查询客户列表失败", err)
	}

	return customers, total, nil
}

func (r *CustomerRepository) Update(ctx context.Context, customer *model.Customer) error {
	err := r.db.WithContext(ctx).Save(customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Duplicate("客户", "email", customer.Email)
		}
		return apperr.Internal("更新客户失败", err)
	}
	return nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&model.Customer{}, id)
	if result.Error != nil {
		return apperr.Internal("删除客户失败", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("客户", "id", id)
	}
	return nil
}

// EnsureRole 取出角色，不存在则创建
func (r *CustomerRepository) EnsureRole(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&role, model.Role{Name: name}).Error
	if err != nil {
		return nil, apperr.Internal("查询角色失败", err)
	}
	return &role, nil
}
