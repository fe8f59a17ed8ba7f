package auth

import (
	"context"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"morse-quiz-service/internal/domain"
)

type Account struct {
	ID          string
	Email       string
	DisplayName string
	PassHash    []byte
	CreatedAt   time.Time
}

// AccountStore persists accounts. FindByEmail returns nil, nil when absent.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Add(ctx context.Context, account *Account) error
}

// Result is returned by sign-up and sign-in.
type Result struct {
	Token    string          `json:"token"`
	Identity domain.Identity `json:"identity"`
}

// Service is the identity provider: accounts with bcrypt passwords and bearer tokens.
type Service struct {
	store  AccountStore
	tokens *Tokens
	now    func() time.Time
}

func NewService(store AccountStore, tokens *Tokens) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*Result, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || strings.TrimSpace(password) == "" {
		return nil, domain.ErrInvalidCredentials
	}
	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAccountExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}
	account := &Account{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		PassHash:    hash,
		CreatedAt:   s.now(),
	}
	if err := s.store.Add(ctx, account); err != nil {
		return nil, err
	}
	return s.issue(account)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*Result, error) {
	account, err := s.store.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(account.PassHash, []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return s.issue(account)
}

// SignOut revokes the token and returns whose it was.
func (s *Service) SignOut(token string) (domain.Identity, error) {
	return s.tokens.Revoke(token)
}

// CurrentUser resolves a bearer token to the signed-in identity.
func (s *Service) CurrentUser(token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return s.tokens.Verify(token)
}

func (s *Service) issue(account *Account) (*Result, error) {
	identity := domain.Identity{UserID: account.ID, DisplayName: account.DisplayName}
	token, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, Identity: identity}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryAccountStore keeps accounts in process memory.
type MemoryAccountStore struct {
	mu      sync.RWMutex
	byEmail map[string]*Account
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{byEmail: make(map[string]*Account)}
}

func (m *MemoryAccountStore) FindByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byEmail[email], nil
}

func (m *MemoryAccountStore) Add(_ context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[account.Email]; ok {
		return domain.ErrAccountExists
	}
	m.byEmail[account.Email] = account
	return nil
}
