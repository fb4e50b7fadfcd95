package service

import (
	"context"
	"testing"

	"bankapp/internal/apperr"
	"bankapp/internal/model"

	"golang.org/x/crypto/bcrypt"
)

func TestCreateCustomer(t *testing.T) {
	store := newFakeStore()
	svc := NewCustomerService(store)

	customer, err := svc.CreateCustomer(context.Background(), CreateCustomerInput{
		FirstName: "张",
		LastName:  "三",
		Email:     "zhangsan@example.com",
		Password:  "secret123",
	})
	if err != nil {
		t.Fatalf("创建客户失败: %v", err)
	}

	if customer.ID == 0 {
		t.Error("客户 ID 未分配")
	}
	// 密码必须落哈希，不能存明文
	if customer.Password == "secret123" {
		t.Error("密码以明文存储")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(customer.Password), []byte("secret123")); err != nil {
		t.Errorf("密码哈希校验失败: %v", err)
	}
	// 未指定角色时默认授予 ROLE_USER
	if !customer.HasRole(model.RoleUser) {
		t.Error("默认角色 ROLE_USER 未授予")
	}
}

func TestCreateCustomerDuplicateEmail(t *testing.T) {
	store := newFakeStore()
	svc := NewCustomerService(store)
	ctx := context.Background()

	input := CreateCustomerInput{FirstName: "张", LastName: "三", Email: "zhangsan@example.com", Password: "secret123"}
	if _, err := svc.CreateCustomer(ctx, input); err != nil {
		t.Fatalf("创建客户失败: %v", err)
	}

	_, err := svc.CreateCustomer(ctx, input)
	if !apperr.IsKind(err, apperr.KindDuplicate) {
		t.Errorf("错误 = %v, 期望 DuplicateResource", err)
	}
}

func TestUpdateCustomer(t *testing.T) {
	store := newFakeStore()
	c := seedCustomer(t, store, "张", "三", "zhangsan@example.com")

	svc := NewCustomerService(store)
	phone := "13800138000"
	email := "zhangsan.new@example.com"
	updated, err := svc.UpdateCustomer(context.Background(), c.ID, CustomerPatch{
		PhoneNumber: &phone,
		Email:       &email,
	})
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	if updated.PhoneNumber != phone {
		t.Errorf("手机号 = %s, 期望 %s", updated.PhoneNumber, phone)
	}
	if updated.Email != email {
		t.Errorf("邮箱 = %s, 期望 %s", updated.Email, email)
	}
}

func TestUpdateCustomerEmailCollision(t *testing.T) {
	store := newFakeStore()
	c := seedCustomer(t, store, "张", "三", "zhangsan@example.com")
	seedCustomer(t, store, "李", "四", "lisi@example.com")

	svc := NewCustomerService(store)
	taken := "lisi@example.com"
	_, err := svc.UpdateCustomer(context.Background(), c.ID, CustomerPatch{Email: &taken})
	if !apperr.IsKind(err, apperr.KindDuplicate) {
		t.Errorf("错误 = %v, 期望 DuplicateResource", err)
	}
}

func TestDeleteCustomer(t *testing.T) {
	store := newFakeStore()
	c := seedCustomer(t, store, "张", "三", "zhangsan@example.com")

	svc := NewCustomerService(store)
	if err := svc.DeleteCustomer(context.Background(), c.ID); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if _, err := store.Customers().GetByID(context.Background(), c.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("删除后查询错误 = %v, 期望 NotFound", err)
	}
}

func TestDeleteCustomerWithAccounts(t *testing.T) {
	store := newFakeStore()
	c := seedCustomer(t, store, "张", "三", "zhangsan@example.com")
	seedAccount(t, store, "TRAAAAAAAAAA", "0", c.ID)

	svc := NewCustomerService(store)
	err := svc.DeleteCustomer(context.Background(), c.ID)
	if !apperr.IsKind(err, apperr.KindBusinessRule) {
		t.Errorf("错误 = %v, 期望 BusinessRuleViolation", err)
	}
}

func TestListCustomers(t *testing.T) {
	store := newFakeStore()
	seedCustomer(t, store, "张", "三", "zhangsan@example.com")
	seedCustomer(t, store, "李", "四", "lisi@example.com")
	seedCustomer(t, store, "王", "五", "wangwu@example.com")

	svc := NewCustomerService(store)
	customers, total, err := svc.ListCustomers(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if total != 3 {
		t.Errorf("总数 = %d, 期望 3", total)
	}
	if len(customers) != 2 {
		t.Errorf("条数 = %d, 期望 2", len(customers))
	}
}
