package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/collabhub/timesheet-api/internal/core/domain"
)

const (
	collectionRegistry = "accounts"
	collectionLocal    = "local_accounts"
	collectionGoogle   = "google_accounts"
	collectionGitHub   = "github_accounts"
)

// registryDoc reserves an account id for exactly one kind. Its _id is what
// makes ids unique across the kind collections.
type registryDoc struct {
	ID        string    `bson:"_id"`
	Kind      string    `bson:"kind"`
	CreatedAt time.Time `bson:"created_at"`
}

type localDoc struct {
	ID           string     `bson:"_id"`
	Email        string     `bson:"email"`
	PasswordHash string     `bson:"password_hash"`
	Username     string     `bson:"username,omitempty"`
	Active       bool       `bson:"active"`
	AvatarURL    string     `bson:"avatar_url,omitempty"`
	CreatedAt    time.Time  `bson:"created_at"`
	ModifiedAt   time.Time  `bson:"modified_at"`
	LastLoginAt  *time.Time `bson:"last_login_at,omitempty"`
}

type federatedDoc struct {
	ID          string    `bson:"_id"`
	Subject     string    `bson:"subject"`
	Email       string    `bson:"email"`
	Name        string    `bson:"name,omitempty"`
	Picture     string    `bson:"picture,omitempty"`
	Username    string    `bson:"username,omitempty"`
	ClientID    string    `bson:"client_id"`
	Credential  string    `bson:"credential"`
	SelectBy    string    `bson:"select_by,omitempty"`
	Active      bool      `bson:"active"`
	CreatedAt   time.Time `bson:"created_at"`
	ModifiedAt  time.Time `bson:"modified_at"`
	LastLoginAt time.Time `bson:"last_login_at"`
}

// AccountRepository stores local, Google and GitHub accounts in separate
// collections behind a shared id registry.
type AccountRepository struct {
	registry *mongo.Collection
	local    *mongo.Collection
	google   *mongo.Collection
	github   *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		registry: db.Collection(collectionRegistry),
		local:    db.Collection(collectionLocal),
		google:   db.Collection(collectionGoogle),
		github:   db.Collection(collectionGitHub),
	}
}

func (r *AccountRepository) collectionFor(kind domain.AccountKind) (*mongo.Collection, error) {
	switch kind {
	case domain.KindLocal:
		return r.local, nil
	case domain.KindGoogle:
		return r.google, nil
	case domain.KindGitHub:
		return r.github, nil
	}
	return nil, fmt.Errorf("unknown account kind %q", kind)
}

// EnsureIndexes creates the natural-key unique indexes of every kind.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	if _, err := r.local.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}}, Options: unique,
	}); err != nil {
		return fmt.Errorf("local_accounts indexes: %w", err)
	}
	for _, coll := range []*mongo.Collection{r.google, r.github} {
		if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "subject", Value: 1}}, Options: unique,
		}); err != nil {
			return fmt.Errorf("%s indexes: %w", coll.Name(), err)
		}
	}
	if _, err := r.registry.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "kind", Value: 1}},
	}); err != nil {
		return fmt.Errorf("accounts indexes: %w", err)
	}
	return nil
}

// reserve claims id for kind in the registry. The returned release undoes
// the claim when the kind insert fails.
func (r *AccountRepository) reserve(ctx context.Context, id uuid.UUID, kind domain.AccountKind, at time.Time) (func(), error) {
	_, err := r.registry.InsertOne(ctx, registryDoc{ID: id.String(), Kind: string(kind), CreatedAt: at})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateAccount
		}
		return nil, fmt.Errorf("reserve account id: %w", err)
	}
	return func() {
		ctx, cancel := rollbackContext(ctx)
		defer cancel()
		_, _ = r.registry.DeleteOne(ctx, bson.M{"_id": id.String()})
	}, nil
}

// rollbackContext outlives the caller's cancellation but still has a deadline
// of its own.
func rollbackContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
}

func (r *AccountRepository) FindLocalByEmail(ctx context.Context, email string) (*domain.LocalAccount, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d localDoc
	if err := r.local.FindOne(ctx, bson.M{"email": email}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find local account: %w", err)
	}
	return d.toDomain()
}

func (r *AccountRepository) CreateLocal(ctx context.Context, acct *domain.LocalAccount) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	release, err := r.reserve(ctx, acct.ID, domain.KindLocal, acct.CreatedAt)
	if err != nil {
		return err
	}

	_, err = r.local.InsertOne(ctx, localDoc{
		ID:           acct.ID.String(),
		Email:        acct.Email,
		PasswordHash: acct.PasswordHash,
		Username:     acct.Username,
		Active:       acct.Active,
		AvatarURL:    acct.AvatarURL,
		CreatedAt:    acct.CreatedAt,
		ModifiedAt:   acct.ModifiedAt,
		LastLoginAt:  acct.LastLoginAt,
	})
	if err != nil {
		release()
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateAccount
		}
		return fmt.Errorf("insert local account: %w", err)
	}
	return nil
}

func (r *AccountRepository) TouchLocalLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.local.UpdateByID(ctx, id.String(), bson.M{
		"$set": bson.M{"last_login_at": at, "modified_at": at},
	})
	if err != nil {
		return fmt.Errorf("touch local login: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) FindFederatedBySubject(ctx context.Context, provider domain.AccountKind, subject string) (*domain.FederatedAccount, error) {
	coll, err := r.federatedCollection(provider)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d federatedDoc
	if err := coll.FindOne(ctx, bson.M{"subject": subject}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find %s account: %w", provider, err)
	}
	return d.toDomain(provider)
}

func (r *AccountRepository) CreateFederated(ctx context.Context, acct *domain.FederatedAccount) error {
	coll, err := r.federatedCollection(acct.Provider)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	release, err := r.reserve(ctx, acct.ID, acct.Provider, acct.CreatedAt)
	if err != nil {
		return err
	}

	if _, err := coll.InsertOne(ctx, federatedFromDomain(acct)); err != nil {
		release()
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateAccount
		}
		return fmt.Errorf("insert %s account: %w", acct.Provider, err)
	}
	return nil
}

// UpdateFederatedLogin rewrites the mutable profile fields. id and subject
// are never part of the update.
func (r *AccountRepository) UpdateFederatedLogin(ctx context.Context, acct *domain.FederatedAccount) error {
	coll, err := r.federatedCollection(acct.Provider)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := coll.UpdateByID(ctx, acct.ID.String(), bson.M{"$set": bson.M{
		"email":         acct.Email,
		"name":          acct.Name,
		"picture":       acct.Picture,
		"username":      acct.Username,
		"client_id":     acct.ClientID,
		"credential":    acct.Credential,
		"select_by":     acct.SelectBy,
		"modified_at":   acct.ModifiedAt,
		"last_login_at": acct.LastLoginAt,
	}})
	if err != nil {
		return fmt.Errorf("update %s account: %w", acct.Provider, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) KindOf(ctx context.Context, id uuid.UUID) (domain.AccountKind, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d registryDoc
	if err := r.registry.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", domain.ErrAccountNotFound
		}
		return "", fmt.Errorf("find account registry entry: %w", err)
	}

	kind := domain.AccountKind(d.Kind)
	if !kind.Valid() {
		return "", fmt.Errorf("registry entry %s has unknown kind %q", id, d.Kind)
	}
	return kind, nil
}

func (r *AccountRepository) ExistsIn(ctx context.Context, kind domain.AccountKind, id uuid.UUID) (bool, error) {
	coll, err := r.collectionFor(kind)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := coll.CountDocuments(ctx, bson.M{"_id": id.String()}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count %s accounts: %w", kind, err)
	}
	return n > 0, nil
}

func (r *AccountRepository) federatedCollection(provider domain.AccountKind) (*mongo.Collection, error) {
	if !provider.Federated() {
		return nil, fmt.Errorf("%q is not a federated provider", provider)
	}
	return r.collectionFor(provider)
}

func (d localDoc) toDomain() (*domain.LocalAccount, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("local account id %q: %w", d.ID, err)
	}
	return &domain.LocalAccount{
		ID:           id,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Username:     d.Username,
		Active:       d.Active,
		AvatarURL:    d.AvatarURL,
		CreatedAt:    d.CreatedAt,
		ModifiedAt:   d.ModifiedAt,
		LastLoginAt:  d.LastLoginAt,
	}, nil
}

func (d federatedDoc) toDomain(provider domain.AccountKind) (*domain.FederatedAccount, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("%s account id %q: %w", provider, d.ID, err)
	}
	return &domain.FederatedAccount{
		ID:          id,
		Provider:    provider,
		Subject:     d.Subject,
		Email:       d.Email,
		Name:        d.Name,
		Picture:     d.Picture,
		Username:    d.Username,
		ClientID:    d.ClientID,
		Credential:  d.Credential,
		SelectBy:    d.SelectBy,
		Active:      d.Active,
		CreatedAt:   d.CreatedAt,
		ModifiedAt:  d.ModifiedAt,
		LastLoginAt: d.LastLoginAt,
	}, nil
}

func federatedFromDomain(a *domain.FederatedAccount) federatedDoc {
	return federatedDoc{
		ID:          a.ID.String(),
		Subject:     a.Subject,
		Email:       a.Email,
		Name:        a.Name,
		Picture:     a.Picture,
		Username:    a.Username,
		ClientID:    a.ClientID,
		Credential:  a.Credential,
		SelectBy:    a.SelectBy,
		Active:      a.Active,
		CreatedAt:   a.CreatedAt,
		ModifiedAt:  a.ModifiedAt,
		LastLoginAt: a.LastLoginAt,
	}
}
