package pluggy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"extrato/internal/core"
)

type fakeAPI struct {
	authCalls     atomic.Int32
	accountCalls  atomic.Int32
	txCalls       atomic.Int32
	lastTxQuery   atomic.Value
	accountStatus int
	authDelay     time.Duration
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		f.authCalls.Add(1)
		time.Sleep(f.authDelay)
		assert.Equal(t, http.MethodPost, r.Method)
		var req authRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.ClientID != "id" || req.ClientSecret != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(authResponse{APIKey: "key-123"})
	})
	mux.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		f.accountCalls.Add(1)
		assert.Equal(t, "key-123", r.Header.Get(apiKeyHeader))
		if f.accountStatus != 0 {
			w.WriteHeader(f.accountStatus)
			_, _ = w.Write([]byte(`{"message":"boom"}`))
			return
		}
		assert.Equal(t, "item-1", r.URL.Query().Get("itemId"))
		_, _ = w.Write([]byte(`{"total":2,"totalPages":1,"page":1,"results":[
			{"id":"acc-1","name":"Conta","type":"BANK","balance":10.5},
			{"id":"acc-2","name":"Cartão","type":"CREDIT","balance":-3}
		]}`))
	})
	mux.HandleFunc("/transactions", func(w http.ResponseWriter, r *http.Request) {
		f.txCalls.Add(1)
		f.lastTxQuery.Store(r.URL.Query())
		_, _ = w.Write([]byte(`{"total":2,"totalPages":1,"page":1,"results":[
			{"id":"t1","description":"Salário","amount":1000.25,"type":"CREDIT","date":"2024-03-05T12:00:00.000Z","category":"Income"},
			{"id":"t2","description":"Mercado","amount":40,"type":"DEBIT","date":"2024-03-01T09:30:00.000Z","category":null}
		]}`))
	})
	return mux
}

func newTestClient(t *testing.T, api *fakeAPI, accountsTTL time.Duration) *Client {
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{
		BaseURL:      srv.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		AccountsTTL:  accountsTTL,
		HTTPClient:   srv.Client(),
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(ClientConfig{ClientID: "id"})
	assert.Error(t, err)
}

func TestClient_FetchAccounts(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api, 0)

	page, err := c.FetchAccounts(context.Background(), "item-1")
	require.NoError(t, err)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "acc-1", page.Results[0].ID)
	assert.Equal(t, "item-1", page.Results[0].ItemID)
	assert.True(t, page.Results[0].Balance.Equal(decimal.RequireFromString("10.5")))

	_, err = c.FetchAccounts(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.authCalls.Load(), "api key should be reused")
	assert.Equal(t, int32(2), api.accountCalls.Load(), "account cache disabled")
}

func TestClient_FetchAccountsCached(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := c.FetchAccounts(context.Background(), "item-1")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), api.accountCalls.Load())
	assert.Len(t, c.Caches(), 2)
}

func TestClient_FetchTransactions(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api, 0)

	page, err := c.FetchTransactions(context.Background(), "acc-1", TransactionQuery{
		PageSize: DefaultPageSize,
		From:     "2024-03-01",
		To:       "2024-03-31",
	})
	require.NoError(t, err)

	q := api.lastTxQuery.Load().(url.Values)
	assert.Equal(t, []string{"acc-1"}, q["accountId"])
	assert.Equal(t, []string{"500"}, q["pageSize"])
	assert.Equal(t, []string{"2024-03-01"}, q["from"])
	assert.Equal(t, []string{"2024-03-31"}, q["to"])

	require.Len(t, page.Results, 2)
	first := page.Results[0]
	assert.Equal(t, core.Credit, first.Type)
	assert.Equal(t, "Income", first.CategoryName())
	assert.Equal(t, "acc-1", first.AccountID)
	assert.True(t, first.Amount.Equal(decimal.RequireFromString("1000.25")))
	assert.Equal(t, time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC), first.Date.UTC())
	assert.Nil(t, page.Results[1].Category)
}

func TestClient_NonSuccessIsFetchFailure(t *testing.T) {
	api := &fakeAPI{accountStatus: http.StatusInternalServerError}
	c := newTestClient(t, api, 0)

	_, err := c.FetchAccounts(context.Background(), "item-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetchFailure))

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusInternalServerError, fe.Status)
	assert.Contains(t, fe.Error(), "boom")
}

func TestClient_UnauthorizedDropsCachedKey(t *testing.T) {
	api := &fakeAPI{accountStatus: http.StatusUnauthorized}
	c := newTestClient(t, api, 0)

	_, err := c.FetchAccounts(context.Background(), "item-1")
	require.Error(t, err)
	_, err = c.FetchAccounts(context.Background(), "item-1")
	require.Error(t, err)
	assert.Equal(t, int32(2), api.authCalls.Load())
}

func TestClient_ConcurrentColdRequestsShareAuth(t *testing.T) {
	api := &fakeAPI{authDelay: 50 * time.Millisecond}
	c := newTestClient(t, api, 0)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.FetchTransactions(context.Background(), "acc-1", TransactionQuery{PageSize: DefaultPageSize})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), api.authCalls.Load())
	assert.Equal(t, int32(workers), api.txCalls.Load())
}

func TestClient_CancelledCallerDoesNotFailSharedAuth(t *testing.T) {
	api := &fakeAPI{authDelay: 50 * time.Millisecond}
	c := newTestClient(t, api, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.FetchAccounts(ctx, "item-1")
		done <- err
	}()
	// Let the first caller start the shared auth, then abandon it.
	require.Eventually(t, func() bool { return api.authCalls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()

	_, err := c.FetchAccounts(context.Background(), "item-1")
	require.NoError(t, err)
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, int32(1), api.authCalls.Load())
}

func TestClient_AuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL, ClientID: "id", ClientSecret: "bad", HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = c.FetchTransactions(context.Background(), "acc-1", TransactionQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchFailure)
	assert.Contains(t, err.Error(), "authenticate")
}

func TestClient_NetworkErrorIsFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	closedURL := srv.URL
	srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: closedURL, ClientID: "id", ClientSecret: "secret", Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.FetchAccounts(context.Background(), "item-1")
	assert.ErrorIs(t, err, ErrFetchFailure)
}
