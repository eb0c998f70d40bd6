package restapi_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"

	"github.com/komponen/marketplace/internal/svc/appsvc"
	"github.com/komponen/marketplace/internal/svc/authsvc"
	"github.com/komponen/marketplace/internal/svc/iconsvc"
	"github.com/komponen/marketplace/internal/svc/vendorsvc"
	"github.com/komponen/marketplace/pkg/userpool"
	"github.com/komponen/marketplace/transport/restapi"
)

type fakeAppService struct {
	CreateAppFunc func(ctx context.Context, input appsvc.InputCreateApp) (appsvc.OutCreateApp, error)
	UpdateAppFunc func(ctx context.Context, input appsvc.InputUpdateApp) (appsvc.OutUpdateApp, error)
	ListPublished func(ctx context.Context) (appsvc.OutListPublishedApps, error)
}

var _ appsvc.Service = (*fakeAppService)(nil)

func (f *fakeAppService) CreateApp(ctx context.Context, input appsvc.InputCreateApp) (appsvc.OutCreateApp, error) {
	if f.CreateAppFunc != nil {
		return f.CreateAppFunc(ctx, input)
	}
	return appsvc.OutCreateApp{}, nil
}

func (f *fakeAppService) GetAppForVendor(ctx context.Context, input appsvc.InputGetAppForVendor) (appsvc.OutGetAppForVendor, error) {
	return appsvc.OutGetAppForVendor{}, nil
}

func (f *fakeAppService) UpdateApp(ctx context.Context, input appsvc.InputUpdateApp) (appsvc.OutUpdateApp, error) {
	if f.UpdateAppFunc != nil {
		return f.UpdateAppFunc(ctx, input)
	}
	return appsvc.OutUpdateApp{}, nil
}

func (f *fakeAppService) DeleteApp(ctx context.Context, input appsvc.InputDeleteApp) (appsvc.OutDeleteApp, error) {
	return appsvc.OutDeleteApp{}, nil
}

func (f *fakeAppService) ListPublishedApps(ctx context.Context, input appsvc.InputListPublishedApps) (appsvc.OutListPublishedApps, error) {
	if f.ListPublished != nil {
		return f.ListPublished(ctx)
	}
	return appsvc.OutListPublishedApps{}, nil
}

func (f *fakeAppService) ListAppsForVendor(ctx context.Context, input appsvc.InputListAppsForVendor) (appsvc.OutListAppsForVendor, error) {
	return appsvc.OutListAppsForVendor{}, nil
}

type fakeIconService struct {
	UploadFunc func(ctx context.Context, input iconsvc.InputUpload) (iconsvc.OutUpload, error)
}

var _ iconsvc.Service = (*fakeIconService)(nil)

func (f *fakeIconService) GetUploadLink(ctx context.Context, input iconsvc.InputGetUploadLink) (iconsvc.OutGetUploadLink, error) {
	return iconsvc.OutGetUploadLink{}, nil
}

func (f *fakeIconService) Upload(ctx context.Context, input iconsvc.InputUpload) (iconsvc.OutUpload, error) {
	if f.UploadFunc != nil {
		return f.UploadFunc(ctx, input)
	}
	return iconsvc.OutUpload{}, nil
}

type fakeVendorService struct{}

var _ vendorsvc.Service = (*fakeVendorService)(nil)

func (f *fakeVendorService) CreateVendor(ctx context.Context, input vendorsvc.InputCreateVendor) (vendorsvc.OutCreateVendor, error) {
	return vendorsvc.OutCreateVendor{}, nil
}

func (f *fakeVendorService) GetVendor(ctx context.Context, input vendorsvc.InputGetVendor) (vendorsvc.OutGetVendor, error) {
	return vendorsvc.OutGetVendor{}, nil
}

func (f *fakeVendorService) ListVendors(ctx context.Context, input vendorsvc.InputListVendors) (vendorsvc.OutListVendors, error) {
	return vendorsvc.OutListVendors{}, nil
}

func (f *fakeVendorService) ApproveVendor(ctx context.Context, input vendorsvc.InputApproveVendor) (vendorsvc.OutApproveVendor, error) {
	return vendorsvc.OutApproveVendor{}, nil
}

func (f *fakeVendorService) InviteUser(ctx context.Context, input vendorsvc.InputInviteUser) (vendorsvc.OutInviteUser, error) {
	return vendorsvc.OutInviteUser{}, nil
}

func (f *fakeVendorService) AcceptInvitation(ctx context.Context, input vendorsvc.InputAcceptInvitation) (vendorsvc.OutAcceptInvitation, error) {
	return vendorsvc.OutAcceptInvitation{}, nil
}

func (f *fakeVendorService) AddUser(ctx context.Context, input vendorsvc.InputAddUser) (vendorsvc.OutAddUser, error) {
	return vendorsvc.OutAddUser{}, nil
}

func (f *fakeVendorService) RemoveUser(ctx context.Context, input vendorsvc.InputRemoveUser) (vendorsvc.OutRemoveUser, error) {
	return vendorsvc.OutRemoveUser{}, nil
}

func (f *fakeVendorService) ListUsers(ctx context.Context, input vendorsvc.InputListUsers) (vendorsvc.OutListUsers, error) {
	return vendorsvc.OutListUsers{}, nil
}

func (f *fakeVendorService) CreateCredentials(ctx context.Context, input vendorsvc.InputCreateCredentials) (vendorsvc.OutCreateCredentials, error) {
	return vendorsvc.OutCreateCredentials{}, nil
}

type testServer struct {
	handler http.Handler
	appSvc  *fakeAppService
	iconSvc *fakeIconService
	pool    *userpool.InMemory
}

func newTestServer(t *testing.T) *testServer {
	pool := userpool.NewInMemory()

	authSvc, err := authsvc.New(authsvc.DefaultServiceConfig{Pool: pool})
	assert.NoError(t, err)

	appSvc := &fakeAppService{}
	iconSvc := &fakeIconService{}

	transport, err := restapi.NewHTTPTransport(restapi.Config{
		AppServiceName: "marketplace",
		AppVersion:     "test",
		AppService:     appSvc,
		IconService:    iconSvc,
		VendorService:  &fakeVendorService{},
		AuthService:    authSvc,
		Pool:           pool,
		IconBucket:     "marketplace",
	})
	assert.NoError(t, err)

	return &testServer{
		handler: transport.Server(),
		appSvc:  appSvc,
		iconSvc: iconSvc,
		pool:    pool,
	}
}

// login seeds a user and returns a bearer token for it.
func (s *testServer) login(t *testing.T, email string, vendors []string) string {
	s.pool.Seed(userpool.User{Email: email, Vendors: vendors}, "password123")

	tokens, err := s.pool.Login(context.Background(), email, "password123")
	assert.NoError(t, err)

	return tokens.AccessToken
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestPublishedCatalogIsAnonymous(t *testing.T) {
	srv := newTestServer(t)
	srv.appSvc.ListPublished = func(ctx context.Context) (appsvc.OutListPublishedApps, error) {
		return appsvc.OutListPublishedApps{Apps: []appsvc.App{{ID: "_v1.mailer", Vendor: "_v1"}}}, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/apps", nil)
	rec := srv.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Apps []appsvc.App `json:"apps"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data.Apps, 1)
	assert.Equal(t, "_v1.mailer", body.Data.Apps[0].ID)
}

func TestVendorRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	t.Run("no token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/vendors/_v1/apps", nil)
		rec := srv.do(req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/vendors/_v1/apps", nil)
		req.Header.Set("Authorization", "Bearer not-a-real-token")
		rec := srv.do(req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCreateAppBindsPathAndIdentity(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, "dev@example.com", []string{"_v1"})

	var gotInput appsvc.InputCreateApp
	srv.appSvc.CreateAppFunc = func(ctx context.Context, input appsvc.InputCreateApp) (appsvc.OutCreateApp, error) {
		gotInput = input
		return appsvc.OutCreateApp{App: appsvc.App{ID: "_v1.mailer", Vendor: "_v1", Version: 1}}, nil
	}

	reqBody := bytes.NewBufferString(`{"id": "mailer", "name": "Mailer", "type": "application"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vendors/_v1/apps", reqBody)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	rec := srv.do(req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "_v1", gotInput.Vendor)
	assert.Equal(t, "mailer", gotInput.ID)
	assert.Equal(t, "dev@example.com", gotInput.User.Email)
}

func TestUpdateAppPassesRawPatch(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, "dev@example.com", []string{"_v1"})

	var gotInput appsvc.InputUpdateApp
	srv.appSvc.UpdateAppFunc = func(ctx context.Context, input appsvc.InputUpdateApp) (appsvc.OutUpdateApp, error) {
		gotInput = input
		return appsvc.OutUpdateApp{}, nil
	}

	reqBody := bytes.NewBufferString(`{"is_public": true, "name": "Renamed"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/vendors/_v1/apps/_v1.mailer", reqBody)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	rec := srv.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "_v1.mailer", gotInput.AppID)
	assert.Equal(t, map[string]interface{}{"is_public": true, "name": "Renamed"}, gotInput.Patch)
}

func TestIconEventHookParsesObjectKey(t *testing.T) {
	srv := newTestServer(t)

	var gotInput iconsvc.InputUpload
	srv.iconSvc.UploadFunc = func(ctx context.Context, input iconsvc.InputUpload) (iconsvc.OutUpload, error) {
		gotInput = input
		return iconsvc.OutUpload{IconVersion: 1}, nil
	}

	t.Run("staged key", func(t *testing.T) {
		reqBody := bytes.NewBufferString(`{"bucket": "marketplace", "key": "icons/_v1.mailer/upload.png"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events/icons", reqBody)

		rec := srv.do(req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "_v1.mailer", gotInput.AppID)
		assert.Equal(t, "icons/_v1.mailer/upload.png", gotInput.SourceKey)
	})

	t.Run("foreign key is rejected before the service", func(t *testing.T) {
		called := false
		srv.iconSvc.UploadFunc = func(ctx context.Context, input iconsvc.InputUpload) (iconsvc.OutUpload, error) {
			called = true
			return iconsvc.OutUpload{}, nil
		}

		reqBody := bytes.NewBufferString(`{"bucket": "marketplace", "key": "icons/_v1.mailer/64/3.png"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events/icons", reqBody)

		rec := srv.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, called)
	})

	t.Run("foreign bucket is rejected before the service", func(t *testing.T) {
		called := false
		srv.iconSvc.UploadFunc = func(ctx context.Context, input iconsvc.InputUpload) (iconsvc.OutUpload, error) {
			called = true
			return iconsvc.OutUpload{}, nil
		}

		reqBody := bytes.NewBufferString(`{"bucket": "someone-elses-bucket", "key": "icons/_v1.mailer/upload.png"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events/icons", reqBody)

		rec := srv.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, called)
	})
}
