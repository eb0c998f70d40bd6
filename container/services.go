package container

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/multierr"

	"github.com/komponen/marketplace/config"
	"github.com/komponen/marketplace/internal/svc/access"
	"github.com/komponen/marketplace/internal/svc/appsvc"
	"github.com/komponen/marketplace/internal/svc/authsvc"
	"github.com/komponen/marketplace/internal/svc/iconsvc"
	"github.com/komponen/marketplace/internal/svc/vendorsvc"
	"github.com/komponen/marketplace/pkg/cache"
	"github.com/komponen/marketplace/pkg/mailclient"
	"github.com/komponen/marketplace/pkg/objstore"
	"github.com/komponen/marketplace/pkg/uid"
	"github.com/komponen/marketplace/pkg/userpool"
)

type Services interface {
	io.Closer

	UIDGen() uid.UID
	Pool() userpool.Pool
	App() appsvc.Service
	Icon() iconsvc.Service
	Vendor() vendorsvc.Service
	Auth() authsvc.Service
}

type ServicesImpl struct {
	uidGen uid.UID
	pool   userpool.Pool
	app    appsvc.Service
	icon   iconsvc.Service
	vendor vendorsvc.Service
	auth   authsvc.Service

	closer []Closer
}

var _ Services = (*ServicesImpl)(nil)

// SetupServices prepares every outbound client (user pool, object
// storage, mail, cache) and stitches them with the repositories into
// the business services. Callers must Close it in deferred mode.
func SetupServices(ctx context.Context, conf *config.Config, repos Repositories) (svc *ServicesImpl, err error) {
	if repos == nil {
		err = fmt.Errorf("nil repositories on services preparation")
		return
	}

	svc = &ServicesImpl{
		closer: make([]Closer, 0),
	}

	uidGen, err := uid.NewSonyflake()
	if err != nil {
		err = fmt.Errorf("services cannot prepare uid generator: %w", err)
		return
	}

	// ** Outbound clients
	pool, err := userpool.NewCognito(ctx, userpool.CognitoConfig{
		Region:          conf.UserPool.Region,
		UserPoolID:      conf.UserPool.UserPoolID,
		ClientID:        conf.UserPool.ClientID,
		ClientSecret:    conf.UserPool.ClientSecret,
		AccessKeyID:     conf.UserPool.AccessKeyID,
		SecretAccessKey: conf.UserPool.SecretAccessKey,
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare user pool: %w", err)
		return
	}

	storage, err := objstore.NewS3(ctx, objstore.S3Config{
		Region:          conf.ObjectStore.Region,
		Bucket:          conf.ObjectStore.Bucket,
		AccessKeyID:     conf.ObjectStore.AccessKeyID,
		SecretAccessKey: conf.ObjectStore.SecretAccessKey,
		Endpoint:        conf.ObjectStore.Endpoint,
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare object storage: %w", err)
		return
	}

	mail, err := mailclient.NewSmtp(&mailclient.SmtpMailerConfig{
		EmailCredential: &mailclient.EmailCredential{
			Protocol:     "smtp",
			ServerHost:   conf.Mail.SMTP.ServerHost,
			ServerPort:   conf.Mail.SMTP.ServerPort,
			AuthIdentity: conf.Mail.SMTP.AuthIdentity,
			Username:     conf.Mail.SMTP.Username,
			Password:     conf.Mail.SMTP.Password,
		},
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare mail client: %w", err)
		return
	}

	svc.closer = append(svc.closer, NewNamedCloser("mailClient", mail))

	cacheStore, err := setupCache(ctx, svc, conf.Cache)
	if err != nil {
		err = fmt.Errorf("services cannot prepare cache: %w", err)
		return
	}

	// ** Repositories
	appRepo, err := repos.AppRepo(conf.Services.App.DBLabel)
	if err != nil {
		err = fmt.Errorf("services cannot get app repo: %w", err)
		return
	}

	vendorRepo, err := repos.VendorRepo(conf.Services.Vendor.DBLabel)
	if err != nil {
		err = fmt.Errorf("services cannot get vendor repo: %w", err)
		return
	}

	inviteRepo, err := repos.InviteRepo(conf.Services.Vendor.DBLabel)
	if err != nil {
		err = fmt.Errorf("services cannot get invite repo: %w", err)
		return
	}

	appRepoOpener, err := repos.AppRepoOpener(conf.Services.Icon.DBLabel)
	if err != nil {
		err = fmt.Errorf("services cannot get app repo opener: %w", err)
		return
	}

	accessChecker, err := access.New(access.DefaultCheckerConfig{
		AppRepo: appRepo,
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare access checker: %w", err)
		return
	}

	// ** Business services
	appService, err := appsvc.New(appsvc.DefaultServiceConfig{
		AppRepo:    appRepo,
		Access:     accessChecker,
		Cache:      cacheStore,
		CatalogTTL: time.Duration(conf.Services.App.CatalogTTLSeconds) * time.Second,
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare app service: %w", err)
		return
	}

	iconService, err := iconsvc.New(iconsvc.DefaultServiceConfig{
		Storage:      storage,
		RepoOpener:   appRepoOpener,
		Access:       accessChecker,
		LinkValidity: time.Duration(conf.Services.Icon.LinkValiditySeconds) * time.Second,
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare icon service: %w", err)
		return
	}

	vendorService, err := vendorsvc.New(vendorsvc.DefaultServiceConfig{
		VendorRepo:    vendorRepo,
		InviteRepo:    inviteRepo,
		Pool:          pool,
		Mail:          mail,
		UIDGen:        uidGen,
		Access:        accessChecker,
		MailSender:    conf.Mail.Sender,
		PublicBaseURL: conf.Services.Vendor.PublicBaseURL,
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare vendor service: %w", err)
		return
	}

	authService, err := authsvc.New(authsvc.DefaultServiceConfig{
		Pool: pool,
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare auth service: %w", err)
		return
	}

	svc.uidGen = uidGen
	svc.pool = pool
	svc.app = appService
	svc.icon = iconService
	svc.vendor = vendorService
	svc.auth = authService

	return svc, nil
}

func setupCache(ctx context.Context, svc *ServicesImpl, conf config.Cache) (cache.Cache, error) {
	switch conf.Mode {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Address,
			Username: conf.Redis.Username,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("error ping redis: %w", err)
		}

		svc.closer = append(svc.closer, NewNamedCloser("cacheRedis", redisClient))

		return cache.NewRedis(cache.RedisConfig{DB: redisClient})

	case "inmemory", "":
		return cache.NewInMemory()

	default:
		return nil, fmt.Errorf("unknown cache mode: %s", conf.Mode)
	}
}

func (s *ServicesImpl) UIDGen() uid.UID {
	return s.uidGen
}

func (s *ServicesImpl) Pool() userpool.Pool {
	return s.pool
}

func (s *ServicesImpl) App() appsvc.Service {
	return s.app
}

func (s *ServicesImpl) Icon() iconsvc.Service {
	return s.icon
}

func (s *ServicesImpl) Vendor() vendorsvc.Service {
	return s.vendor
}

func (s *ServicesImpl) Auth() authsvc.Service {
	return s.auth
}

// Close will close all outbound clients registered during setup.
func (s *ServicesImpl) Close() error {
	if s == nil {
		return nil
	}

	var err error
	for _, c := range s.closer {
		if c == nil {
			continue
		}

		if _err := c.Close(); _err != nil {
			err = multierr.Append(err, fmt.Errorf("close %s error: %w", c.Name(), _err))
		}
	}

	return err
}
