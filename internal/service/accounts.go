package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tutorhub.io/tutorhub/internal/domain"
	apperrors "tutorhub.io/tutorhub/internal/pkg/errors"
	"tutorhub.io/tutorhub/internal/pkg/logger"
	"tutorhub.io/tutorhub/internal/repository"
)

// AccountInput carries a plain password; the service stores only its hash.
type AccountInput struct {
	ID          int64
	Username    string
	Password    string
	Email       string
	DisplayName string
}

// Registration creates a partition together with its first account.
type Registration struct {
	PartitionName string
	Account       AccountInput
}

// AccountService manages logins. Usernames are unique across partitions;
// the username alone resolves the caller's partition.
type AccountService struct {
	client      *repository.Client
	cost        int
	minPassword int
}

// NewAccountService creates an AccountService. A cost outside bcrypt's range
// falls back to bcrypt.DefaultCost.
func NewAccountService(client *repository.Client, cost, minPassword int) *AccountService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if minPassword <= 0 {
		minPassword = 8
	}
	return &AccountService{client: client, cost: cost, minPassword: minPassword}
}

func (s *AccountService) hash(password string) (string, error) {
	if len(password) < s.minPassword {
		return "", apperrors.ErrInvalidRequestField("password",
			fmt.Sprintf("password must be at least %d characters", s.minPassword))
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apperrors.Internal(apperrors.CodeInternal, "hash password")
	}
	return string(b), nil
}

func usernameTaken(err error, username string) error {
	if apperrors.KindOf(err) == apperrors.KindConflict {
		return apperrors.Wrap(err, apperrors.KindConflict, apperrors.CodeUsernameTaken, "username is already taken").
			WithParams(map[string]interface{}{"username": username})
	}
	return err
}

// toAccount maps input to an account. With requirePassword unset an empty
// password leaves PasswordHash empty.
func (s *AccountService) toAccount(in AccountInput, requirePassword bool) (domain.Account, error) {
	if requirePassword && in.Password == "" {
		return domain.Account{}, apperrors.ErrMissingFields("Account", []string{"password"})
	}
	a := domain.Account{
		ID:          in.ID,
		Username:    strings.TrimSpace(in.Username),
		Email:       in.Email,
		DisplayName: in.DisplayName,
	}
	if in.Password != "" {
		h, err := s.hash(in.Password)
		if err != nil {
			return domain.Account{}, err
		}
		a.PasswordHash = h
	}
	return a, nil
}

// Register creates a new partition and its first account.
func (s *AccountService) Register(ctx context.Context, reg Registration) (domain.Account, domain.Partition, error) {
	name := strings.TrimSpace(reg.PartitionName)
	if name == "" {
		return domain.Account{}, domain.Partition{}, apperrors.ErrInvalidRequestField("partition", "partition name is required")
	}
	a, err := s.toAccount(reg.Account, true)
	if err != nil {
		return domain.Account{}, domain.Partition{}, err
	}

	var (
		created domain.Account
		p       domain.Partition
	)
	err = s.client.WithTx(ctx, func(r *repository.Repositories) error {
		if err := checkMandatory(domain.AccountSchema, a); err != nil {
			return err
		}
		var err error
		if p, err = r.CreatePartition(ctx, name); err != nil {
			return err
		}
		created, err = r.Accounts.Create(ctx, p, a)
		return usernameTaken(err, a.Username)
	})
	if err != nil {
		return domain.Account{}, domain.Partition{}, err
	}
	logger.FromContext(ctx).Info("Partition registered",
		zap.Int64("partition", p.ID()),
		zap.String("username", created.Username),
	)
	return created, p, nil
}

func errBadCredentials() error {
	return apperrors.Unauthorized(apperrors.CodeAuthFailed, "invalid username or password")
}

// Login checks the credentials and returns the account with its partition.
// Unknown users and wrong passwords fail identically.
func (s *AccountService) Login(ctx context.Context, username, password string) (domain.Account, domain.Partition, error) {
	a, p, err := s.client.FindAccountByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, apperrors.ErrNotFound) {
		return domain.Account{}, domain.Partition{}, errBadCredentials()
	}
	if err != nil {
		return domain.Account{}, domain.Partition{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return domain.Account{}, domain.Partition{}, errBadCredentials()
	}
	return a, p, nil
}

// ResolvePartition maps an authenticated username to its partition.
func (s *AccountService) ResolvePartition(ctx context.Context, username string) (domain.Partition, error) {
	_, p, err := s.client.FindAccountByUsername(ctx, username)
	if errors.Is(err, apperrors.ErrNotFound) {
		return domain.Partition{}, apperrors.Unauthorized(apperrors.CodeTokenInvalid, "account no longer exists")
	}
	return p, err
}

// Create adds an account to partition p.
func (s *AccountService) Create(ctx context.Context, p domain.Partition, in AccountInput) (domain.Account, error) {
	a, err := s.toAccount(in, true)
	if err != nil {
		return domain.Account{}, err
	}
	created, err := s.client.Accounts.Create(ctx, p, a)
	if err != nil {
		return domain.Account{}, usernameTaken(err, a.Username)
	}
	return created, nil
}

func (s *AccountService) Get(ctx context.Context, p domain.Partition, id int64) (domain.Account, error) {
	return s.client.Accounts.Get(ctx, p, id)
}

func (s *AccountService) List(ctx context.Context, p domain.Partition) ([]domain.Account, error) {
	return s.client.Accounts.List(ctx, p)
}

// Update replaces the account. An empty password keeps the current one.
func (s *AccountService) Update(ctx context.Context, p domain.Partition, in AccountInput) (domain.Account, error) {
	prior, _, err := s.Replace(ctx, p, in)
	return prior, err
}

// Replace updates the account and rereads it in the same transaction. It
// returns the row before and after the update.
func (s *AccountService) Replace(ctx context.Context, p domain.Partition, in AccountInput) (domain.Account, domain.Account, error) {
	a, err := s.toAccount(in, false)
	if err != nil {
		return domain.Account{}, domain.Account{}, err
	}
	return replaceIn(ctx, s.client,
		func(r *repository.Repositories) (domain.Account, error) {
			if a.PasswordHash == "" && a.ID > 0 {
				current, err := r.Accounts.Get(ctx, p, a.ID)
				if err != nil {
					return domain.Account{}, err
				}
				a.PasswordHash = current.PasswordHash
			}
			prior, err := r.Accounts.Update(ctx, p, a)
			return prior, usernameTaken(err, a.Username)
		},
		func(r *repository.Repositories) (domain.Account, error) { return r.Accounts.Get(ctx, p, a.ID) })
}

// Delete removes an account unless it is the last one of its partition.
// The partition's accounts stay locked until commit, so concurrent deletes
// cannot both pass the check.
func (s *AccountService) Delete(ctx context.Context, p domain.Partition, id int64) (domain.Account, error) {
	var former domain.Account
	err := s.client.WithTx(ctx, func(r *repository.Repositories) error {
		all, err := r.Accounts.ListForUpdate(ctx, p)
		if err != nil {
			return err
		}
		found := false
		for _, a := range all {
			if a.ID == id {
				former, found = a, true
				break
			}
		}
		if !found {
			// Reports invalid ids and foreign rows like Get does.
			_, err := r.Accounts.Get(ctx, p, id)
			if err == nil {
				err = apperrors.ErrEntityNotFound("Account", id, p.ID())
			}
			return err
		}
		if len(all) <= 1 {
			return apperrors.Conflict(apperrors.CodeLastAccount, "the last account of a partition cannot be deleted").
				WithParams(map[string]interface{}{"entity": "Account", "id": id})
		}
		_, err = r.Accounts.Delete(ctx, p, id)
		return err
	})
	if err != nil {
		return domain.Account{}, err
	}
	return former, nil
}
