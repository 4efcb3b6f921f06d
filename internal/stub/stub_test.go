package stub_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatelink/gatelink/internal/auth"
	"github.com/gatelink/gatelink/internal/backend"
	"github.com/gatelink/gatelink/internal/device"
	"github.com/gatelink/gatelink/internal/module"
	"github.com/gatelink/gatelink/internal/session"
	"github.com/gatelink/gatelink/internal/stub"
)

// newStub boots the stub API and a full client stack wired against it.
func newStub(t *testing.T) (*httptest.Server, *session.Store, *backend.Client) {
	t.Helper()
	user, devices, modules := stub.Fixtures()
	router := stub.NewRouter(stub.Config{
		SigningKey: "test-signing-key",
		Email:      "demo@gatelink.dev",
		Password:   "demo-password",
		User:       user,
		Devices:    devices,
		Modules:    modules,
		Logger:     zerolog.Nop(),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	store := session.New(session.Config{Storage: session.NewMemoryStorage(), Logger: zerolog.Nop()})
	api := backend.New(backend.Config{
		BaseURL:        server.URL,
		TokenSource:    store,
		OnUnauthorized: func() { store.Logout(context.Background()) },
		Logger:         zerolog.Nop(),
	})
	return server, store, api
}

func login(t *testing.T, store *session.Store, api *backend.Client) {
	t.Helper()
	svc := auth.NewService(auth.ServiceConfig{API: api, Store: store, Logger: zerolog.Nop()})
	_, err := svc.Login(context.Background(), "demo@gatelink.dev", "demo-password")
	require.NoError(t, err)
}

func TestStub_LoginIssuesVerifiableToken(t *testing.T) {
	_, store, api := newStub(t)
	login(t, store, api)

	require.True(t, store.IsAuthenticated())
	info := auth.InspectToken(store.Token())
	assert.True(t, info.HasClaims)
	assert.Equal(t, "1", info.Subject)

	snap := store.Snapshot()
	assert.Len(t, snap.Modules, 3)
	assert.Equal(t, "demo@gatelink.dev", snap.User.Email)
}

func TestStub_LoginRejectsBadPassword(t *testing.T) {
	_, store, api := newStub(t)
	svc := auth.NewService(auth.ServiceConfig{API: api, Store: store, Logger: zerolog.Nop()})

	_, err := svc.Login(context.Background(), "demo@gatelink.dev", "wrong-password")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.False(t, store.IsAuthenticated())
}

func TestStub_DevicesPagination(t *testing.T) {
	_, store, api := newStub(t)
	login(t, store, api)

	svc := device.NewService(device.ServiceConfig{API: api, Logger: zerolog.Nop()})
	q := svc.Queries().Query("")
	ctx := context.Background()

	require.NoError(t, q.FetchNextPage(ctx))
	require.NoError(t, q.FetchNextPage(ctx))

	state := q.State()
	assert.Len(t, state.Items, 27)
	assert.False(t, state.HasNextPage)
	assert.Equal(t, "entrance-01", state.Items[0].Name)
	assert.Equal(t, "entrance-27", state.Items[26].Name)
}

func TestStub_DeviceByID(t *testing.T) {
	_, store, api := newStub(t)
	login(t, store, api)

	svc := device.NewService(device.ServiceConfig{API: api, Logger: zerolog.Nop()})
	d, err := svc.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "entrance-03", d.Name)
	require.NotNil(t, d.Settings.EthernetSettings)

	_, err = svc.Get(context.Background(), 999)
	require.ErrorIs(t, err, device.ErrNotFound)
}

func TestStub_UnauthenticatedRequestForcesLogout(t *testing.T) {
	_, store, api := newStub(t)

	// Seed a token the stub never issued.
	store.SetAuthData(context.Background(), session.Session{Token: "forged"})
	require.True(t, store.IsAuthenticated())

	svc := device.NewService(device.ServiceConfig{API: api, Logger: zerolog.Nop()})
	_, err := svc.ListPage(context.Background(), 0, 20, "")

	// The caller sees its own 401 and the global hook has ended the session.
	require.Error(t, err)
	assert.True(t, backend.IsUnauthorized(err))
	assert.False(t, store.IsAuthenticated())
}

func TestStub_ModuleRefresh(t *testing.T) {
	_, store, api := newStub(t)
	login(t, store, api)

	store.UpdateModules(context.Background(), nil)
	require.Empty(t, store.Snapshot().Modules)

	svc := module.NewService(module.ServiceConfig{API: api, Store: store, Logger: zerolog.Nop()})
	modules, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, modules, 3)
	assert.Len(t, store.Snapshot().Modules, 3)
}

func TestStub_DevicesNegativeOffset(t *testing.T) {
	_, store, api := newStub(t)
	login(t, store, api)

	// A negative offset clamps to the first page instead of failing.
	svc := device.NewService(device.ServiceConfig{API: api, Logger: zerolog.Nop()})
	page, err := svc.ListPage(context.Background(), -5, 20, "")
	require.NoError(t, err)
	assert.Len(t, page.Devices, 20)
	assert.Equal(t, "entrance-01", page.Devices[0].Name)
	assert.Equal(t, 0, page.Offset)
}

func TestStub_DeviceSearch(t *testing.T) {
	_, store, api := newStub(t)
	login(t, store, api)

	svc := device.NewService(device.ServiceConfig{API: api, Logger: zerolog.Nop()})
	page, err := svc.ListPage(context.Background(), 0, 20, "entrance-2")
	require.NoError(t, err)

	// entrance-20 .. entrance-27.
	assert.Equal(t, 8, page.Count)
	for _, d := range page.Devices {
		assert.Contains(t, d.Name, "entrance-2")
	}
}
