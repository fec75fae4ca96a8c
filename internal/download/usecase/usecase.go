package usecase

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/download"
	"github.com/fekuna/omnipos-storefront/internal/download/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/fekuna/omnipos-storefront/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Options struct {
	TTL          time.Duration
	MaxDownloads int // 0 means unlimited
	MediaRoot    string
}

type downloadUseCase struct {
	repo    download.Repository
	signer  *download.Signer
	opts    Options
	metrics *metrics.Metrics
	logger  logger.ZapLogger
	now     func() time.Time
}

func NewDownloadUseCase(repo download.Repository, signer *download.Signer, opts Options, m *metrics.Metrics, log logger.ZapLogger) download.UseCase {
	return &downloadUseCase{
		repo:    repo,
		signer:  signer,
		opts:    opts,
		metrics: m,
		logger:  log,
		now:     time.Now,
	}
}

func (uc *downloadUseCase) Issue(ctx context.Context, orderID string, items []model.OrderItem) ([]model.DigitalDownload, error) {
	now := uc.now()
	var issued []model.DigitalDownload
	for _, it := range items {
		if it.ProductType != model.ProductTypeDigital {
			continue
		}
		for i := 0; i < it.Quantity; i++ {
			d := model.DigitalDownload{
				ID:           uuid.New().String(),
				OrderID:      orderID,
				ProductID:    it.ProductID,
				ProductName:  it.ProductName,
				Token:        strings.ReplaceAll(uuid.New().String(), "-", ""),
				ExpiresAt:    now.Add(uc.opts.TTL),
				MaxDownloads: uc.opts.MaxDownloads,
				CreatedAt:    now,
			}
			if err := uc.repo.Create(ctx, &d); err != nil {
				return nil, err
			}
			link, err := uc.signer.Link(&d)
			if err != nil {
				return nil, err
			}
			d.Link = link
			issued = append(issued, d)
		}
	}
	return issued, nil
}

func (uc *downloadUseCase) ListForOrder(ctx context.Context, orderID string) ([]model.DigitalDownload, error) {
	downloads, err := uc.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	for i := range downloads {
		link, err := uc.signer.Link(&downloads[i])
		if err != nil {
			return nil, err
		}
		downloads[i].Link = link
	}
	return downloads, nil
}

// Redeem counts one download and says where to fetch it from. A signed-in
// caller must own the order; anyone holding the link of a guest order may
// use it.
func (uc *downloadUseCase) Redeem(ctx context.Context, token string, caller model.CartOwner) (*dto.Delivery, error) {
	delivery, err := uc.redeem(ctx, token, caller)
	uc.count(err)
	return delivery, err
}

func (uc *downloadUseCase) redeem(ctx context.Context, token string, caller model.CartOwner) (*dto.Delivery, error) {
	id, jti, err := uc.signer.Parse(token)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.ErrInvalidToken
	}

	e, err := uc.repo.FindEntitlement(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil || subtle.ConstantTimeCompare([]byte(e.Token), []byte(jti)) != 1 {
		return nil, apperror.ErrInvalidToken
	}
	if e.OrderUserID != nil && caller.UserID != "" && caller.UserID != *e.OrderUserID {
		return nil, apperror.ErrInvalidToken
	}

	now := uc.now()
	if e.IsExpired(now) {
		return nil, apperror.ErrExpiredToken
	}
	if e.LimitReached() {
		return nil, apperror.ErrDownloadLimitReached
	}

	ok, err := uc.repo.IncrementCount(ctx, e.ID, now)
	if err != nil {
		return nil, fmt.Errorf("count download: %w", err)
	}
	if !ok {
		// Lost a race with a concurrent redemption of the last use.
		return nil, apperror.ErrDownloadLimitReached
	}

	switch {
	case e.DigitalFile != nil && *e.DigitalFile != "":
		return &dto.Delivery{
			FilePath: ResolveMediaPath(uc.opts.MediaRoot, *e.DigitalFile),
			FileName: path.Base(filepath.ToSlash(*e.DigitalFile)),
		}, nil
	case e.DigitalURL != nil && *e.DigitalURL != "":
		return &dto.Delivery{RedirectURL: *e.DigitalURL}, nil
	}

	uc.logger.Error("digital product has neither file nor url", zap.String("product_id", e.ProductID))
	return nil, apperror.NotFound("download file", e.ProductID)
}

// ResolveMediaPath joins a stored relative path onto root without letting it
// climb out of root.
func ResolveMediaPath(root, rel string) string {
	return filepath.Join(root, filepath.Clean("/"+filepath.ToSlash(rel)))
}

func (uc *downloadUseCase) count(err error) {
	if uc.metrics == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case apperror.HTTPStatus(err) == http.StatusGone:
		result = "gone"
	case apperror.HTTPStatus(err) == http.StatusNotFound:
		result = "invalid"
	default:
		result = "error"
	}
	uc.metrics.Downloads.WithLabelValues(result).Inc()
}
