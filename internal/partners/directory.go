package partners

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
	"github.com/tirehub/punchout-backend/pkg/logger"
	"github.com/tirehub/punchout-backend/pkg/redis"
)

// directoryCacheKey identifies the cached copy of the full partner list.
const directoryCacheKey = "directory"

type lister interface {
	List(ctx context.Context) ([]Partner, error)
}

type cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	PartnerKey(identity string) string
}

// DirectoryParams groups dependencies for the partner directory.
type DirectoryParams struct {
	Client   lister
	Cache    cache
	CacheTTL time.Duration
	Logger   *logger.Logger
}

// Directory resolves trading partners from the directory API with a
// cache-aside copy of the full list. Lookups are case-insensitive.
type Directory struct {
	client   lister
	cache    cache
	cacheTTL time.Duration
	logg     *logger.Logger
}

// NewDirectory builds a partner directory. Cache is optional.
func NewDirectory(params DirectoryParams) (*Directory, error) {
	if params.Client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner client is required")
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Directory{
		client:   params.Client,
		cache:    params.Cache,
		cacheTTL: ttl,
		logg:     params.Logger,
	}, nil
}

// All returns every configured partner, from cache when fresh.
func (d *Directory) All(ctx context.Context) ([]Partner, error) {
	if cached, ok := d.fromCache(ctx); ok {
		return cached, nil
	}

	list, err := d.client.List(ctx)
	if err != nil {
		return nil, err
	}

	d.toCache(ctx, list)
	return list, nil
}

// ByDomain returns the partner whose domain matches, case-insensitively.
func (d *Directory) ByDomain(ctx context.Context, domain string) (*Partner, error) {
	list, err := d.All(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(domain))
	for i := range list {
		if strings.ToLower(list[i].Domain) == needle {
			return &list[i], nil
		}
	}
	return nil, nil
}

// ByIdentity returns the partner whose identity matches, case-insensitively.
func (d *Directory) ByIdentity(ctx context.Context, identity string) (*Partner, error) {
	list, err := d.All(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(identity))
	for i := range list {
		if strings.ToLower(list[i].Identity) == needle {
			return &list[i], nil
		}
	}
	return nil, nil
}

// ByCorpAddressID returns the partner owning a corporate address ID.
func (d *Directory) ByCorpAddressID(ctx context.Context, corpAddressID string) (*Partner, error) {
	list, err := d.All(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.TrimSpace(corpAddressID)
	if needle == "" {
		return nil, nil
	}
	for i := range list {
		if list[i].CorpAddressID == needle {
			return &list[i], nil
		}
	}
	return nil, nil
}

// ValidateCredentials checks the sender credential against the partner
// directory. The partner is matched by domain case-insensitively; the
// sender identity and shared secret must then match exactly.
func (d *Directory) ValidateCredentials(ctx context.Context, domain, identity, sharedSecret string) (*Partner, error) {
	partner, err := d.ByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentity, fmt.Sprintf("no partner configured for domain %q", domain))
	}
	if partner.Identity != strings.TrimSpace(identity) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentity, fmt.Sprintf("sender identity does not match partner %q", partner.Identity))
	}
	if partner.SharedSecret != sharedSecret {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidSharedSecret, fmt.Sprintf("shared secret mismatch for partner %q", partner.Identity))
	}
	return partner, nil
}

func (d *Directory) fromCache(ctx context.Context) ([]Partner, bool) {
	if d.cache == nil {
		return nil, false
	}
	raw, err := d.cache.Get(ctx, d.cache.PartnerKey(directoryCacheKey))
	if err != nil {
		if !redis.IsNil(err) && d.logg != nil {
			d.logg.Warn(ctx, "partner cache read failed: "+err.Error())
		}
		return nil, false
	}
	var list []Partner
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, false
	}
	return list, true
}

func (d *Directory) toCache(ctx context.Context, list []Partner) {
	if d.cache == nil {
		return
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, d.cache.PartnerKey(directoryCacheKey), string(raw), d.cacheTTL); err != nil && d.logg != nil {
		d.logg.Warn(ctx, "partner cache write failed: "+err.Error())
	}
}
