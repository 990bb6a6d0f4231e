package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskcoin/backend/internal/metrics"
	"github.com/taskcoin/backend/internal/models"
)

// Store persists accounts.
type Store interface {
	Create(ctx context.Context, tx pgx.Tx, a *models.Account) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Crediter pays the registration bonus inside the registering transaction.
type Crediter interface {
	Credit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64, entryType string, refID *uuid.UUID) (int64, error)
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	PhotoURL string
	Role     string
}

type Service interface {
	Register(ctx context.Context, in RegisterInput) (*models.Account, error)
	Login(ctx context.Context, email, password string) (string, *models.Account, error)
	ValidateToken(ctx context.Context, token string) (uuid.UUID, string, error)
	CreateAdmin(ctx context.Context, email, password, name string) (*models.Account, error)
}

// Options carries the signing secret and registration bonuses.
type Options struct {
	Secret      string
	TokenTTL    time.Duration
	WorkerBonus int64
	BuyerBonus  int64
}

type service struct {
	pool   TxBeginner
	repo   Store
	ledger Crediter
	secret []byte
	ttl    time.Duration
	bonus  map[string]int64
	log    *slog.Logger
}

func NewService(pool TxBeginner, repo Store, ledger Crediter, opts Options, log *slog.Logger) *service {
	if log == nil {
		log = slog.Default()
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	return &service{
		pool:   pool,
		repo:   repo,
		ledger: ledger,
		secret: []byte(opts.Secret),
		ttl:    opts.TokenTTL,
		bonus:  map[string]int64{models.RoleWorker: opts.WorkerBonus, models.RoleBuyer: opts.BuyerBonus},
		log:    log,
	}
}

// Ensure service implements Service at compile time.
var _ Service = (*service)(nil)

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Register creates a worker or buyer account and credits its sign-up bonus in
// the same transaction.
func (s *service) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	if in.Role != models.RoleWorker && in.Role != models.RoleBuyer {
		return nil, fmt.Errorf("role must be worker or buyer: %w", models.ErrInvalidInput)
	}
	acc, err := s.newAccount(in.Email, in.Password, in.Name, in.Role)
	if err != nil {
		return nil, err
	}
	acc.PhotoURL = strings.TrimSpace(in.PhotoURL)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.repo.Create(ctx, tx, acc); err != nil {
		return nil, err
	}
	bonus := s.bonus[acc.Role]
	if bonus > 0 {
		if acc.Coin, err = s.ledger.Credit(ctx, tx, acc.ID, bonus, models.EntryRegistrationBonus, nil); err != nil {
			return nil, fmt.Errorf("credit bonus: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	if bonus > 0 {
		metrics.RecordMovement(models.EntryRegistrationBonus, bonus)
	}
	s.log.Info("account registered", "account_id", acc.ID, "role", acc.Role, "bonus", bonus)
	return acc, nil
}

// CreateAdmin inserts an admin account. Admins receive no bonus.
func (s *service) CreateAdmin(ctx context.Context, email, password, name string) (*models.Account, error) {
	acc, err := s.newAccount(email, password, name, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.repo.Create(ctx, tx, acc); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	s.log.Info("admin created", "account_id", acc.ID)
	return acc, nil
}

func (s *service) newAccount(email, password, name, role string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("a valid email is required: %w", models.ErrInvalidInput)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters: %w", models.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("password too long: %w", models.ErrInvalidInput)
		}
		return nil, err
	}
	return &models.Account{
		ID:           uuid.New(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		Role:         role,
	}, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, *models.Account, error) {
	acc, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, models.ErrNotFound) {
		return "", nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return "", nil, models.ErrInvalidCredentials
	}
	token, err := s.issueToken(acc.ID, acc.Role)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, acc, nil
}

func (s *service) issueToken(userID uuid.UUID, role string) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: role,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.secret)
}

func (s *service) ValidateToken(ctx context.Context, token string) (uuid.UUID, string, error) {
	tok, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, "", err
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return uuid.Nil, "", errors.New("invalid token")
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, "", err
	}
	return id, c.Role, nil
}
