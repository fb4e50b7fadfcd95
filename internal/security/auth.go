package security

import (
	"context"
	"log"
	"time"

	"bankapp/internal/apperr"
	"bankapp/internal/config"
	"bankapp/internal/model"
	"bankapp/internal/service"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 登录、注册、令牌刷新
//
// 刷新令牌策略：登录时作废该客户全部旧令牌再签发新令牌
// （revoke-all-on-login），不保留多端并行会话
type AuthService struct {
	store      service.Store
	customers  *service.CustomerService
	jwtManager *JWTManager
	refreshTTL time.Duration
}

func NewAuthService(store service.Store, customers *service.CustomerService, jwtManager *JWTManager, cfg *config.JWTConfig) *AuthService {
	return &AuthService{
		store:      store,
		customers:  customers,
		jwtManager: jwtManager,
		refreshTTL: time.Duration(cfg.RefreshExpireDays) * 24 * time.Hour,
	}
}

// TokenPair 一对访问令牌与刷新令牌
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Register 注册新客户，默认授予 ROLE_USER
// 邮箱重复的错误原样上抛，不做静默处理
func (s *AuthService) Register(ctx context.Context, input service.CreateCustomerInput) (*model.Customer, error) {
	input.Roles = []string{model.RoleUser}
	return s.customers.CreateCustomer(ctx, input)
}

// Login 校验凭证并签发令牌
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	customer, err := s.store.Customers().GetByEmail(ctx, email)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			// 不暴露账号是否存在
			return nil, apperr.Unauthorized("邮箱或密码错误")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.Password), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("邮箱或密码错误")
	}

	// 登录即作废全部旧刷新令牌
	if err := s.store.RefreshTokens().RevokeAllByCustomerID(ctx, customer.ID); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, customer)
}

// Refresh 用刷新令牌换新访问令牌
// 过期或已作废的令牌直接删除，要求重新登录
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	rt, err := s.store.RefreshTokens().GetByToken(ctx, refreshToken)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized("刷新令牌无效")
		}
		return nil, err
	}

	if !rt.Usable(time.Now()) {
		if err := s.store.RefreshTokens().Delete(ctx, refreshToken); err != nil {
			log.Printf("[Auth] 删除失效刷新令牌失败: %v", err)
		}
		return nil, apperr.Unauthorized("刷新令牌已过期或被作废，请重新登录")
	}

	customer, err := s.store.Customers().GetByID(ctx, rt.CustomerID)
	if err != nil {
		return nil, err
	}

	// 旧刷新令牌用一次即废，轮换出新令牌
	if err := s.store.RefreshTokens().Delete(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, customer)
}

// Logout 作废当前刷新令牌
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.store.RefreshTokens().GetByToken(ctx, refreshToken); err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return apperr.Unauthorized("刷新令牌无效")
		}
		return err
	}
	return s.store.RefreshTokens().Delete(ctx, refreshToken)
}

func (s *AuthService) issueTokens(ctx context.Context, customer *model.Customer) (*TokenPair, error) {
	roles := make([]string, 0, len(customer.Roles))
	for _, r := range customer.Roles {
		roles = append(roles, r.Name)
	}

	identity := &Identity{
		CustomerID: customer.ID,
		Email:      customer.Email,
		Roles:      roles,
	}

	accessToken, err := s.jwtManager.Issue(identity)
	if err != nil {
		return nil, err
	}

	refreshToken := &model.RefreshToken{
		Token:      uuid.NewString(),
		CustomerID: customer.ID,
		ExpiresAt:  time.Now().Add(s.refreshTTL),
	}
	if err := s.store.RefreshTokens().Create(ctx, refreshToken); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken.Token,
		TokenType:    "Bearer",
	}, nil
}
