package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"store-catalog-service/internal/repository"
	"store-catalog-service/internal/service"
)

var testSecret = []byte("test-secret")

type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{revoked: map[string]bool{}}
}

func (f *fakeRevoker) Revoke(_ context.Context, jti string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[jti] = true
	return nil
}

func (f *fakeRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[jti], nil
}

type testServer struct {
	e    *echo.Echo
	mock sqlmock.Sqlmock
	auth *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	storeRepo := repository.NewStoreRepository(db)
	itemRepo := repository.NewItemRepository(db)
	userRepo := repository.NewUserRepository(db)

	storeService := service.NewStoreService(*storeRepo, *itemRepo, nil)
	itemService := service.NewItemService(*itemRepo, nil)
	userService := service.NewUserService(*userRepo)
	authService := service.NewAuthService(*userRepo, newFakeRevoker(), testSecret)

	e := echo.New()
	RegisterRoutes(e, authService,
		NewItemHandler(*itemService),
		NewStoreHandler(*storeService),
		NewUserHandler(*userService),
		NewAuthHandler(authService))

	return &testServer{e: e, mock: mock, auth: authService}
}

func (ts *testServer) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func signAccessToken(t *testing.T, identity int, admin, fresh bool) string {
	claims := &service.AccessClaims{
		Identity:  identity,
		IsAdmin:   admin,
		Fresh:     fresh,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "test-jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const (
	findItemQuery  = `SELECT id, name, price, store_id FROM items WHERE name = ? ORDER BY id LIMIT 1`
	findStoreQuery = `SELECT id, name FROM stores WHERE name = ? ORDER BY id LIMIT 1`
	findUserQuery  = `SELECT id, username, password, is_admin FROM users WHERE username = ? ORDER BY id LIMIT 1`
)

var mysqlFKError = mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}

func TestGetItemNotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.mock.ExpectQuery(regexp.QuoteMeta(findItemQuery)).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	rec := ts.request(http.MethodGet, "/item/nope", "", "")
	assert.Equal(t, 404, rec.Code)
	assert.Equal(t, "Item not found", decodeBody(t, rec)["message"])
}

func TestCreateItemWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/item/widget", `{"price": 9.99, "store_id": 1}`, "")
	assert.Equal(t, 401, rec.Code)
	assert.Equal(t, "authorization required", decodeBody(t, rec)["error"])
}

func TestCreateItemThenGetRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	token := signAccessToken(t, 2, false, true)

	ts.mock.ExpectQuery(regexp.QuoteMeta(findItemQuery)).
		WithArgs("widget").
		WillReturnError(sql.ErrNoRows)
	ts.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO items (name, price, store_id) VALUES (?, ?, ?)`)).
		WithArgs("widget", 9.99, 1).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := ts.request(http.MethodPost, "/item/widget", `{"price": 9.99, "store_id": 1}`, token)
	require.Equal(t, 201, rec.Code)
	created := decodeBody(t, rec)
	assert.Equal(t, 9.99, created["price"])
	assert.Equal(t, float64(1), created["store_id"])

	ts.mock.ExpectQuery(regexp.QuoteMeta(findItemQuery)).
		WithArgs("widget").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "store_id"}).AddRow(1, "widget", 9.99, 1))

	rec = ts.request(http.MethodGet, "/item/widget", "", "")
	require.Equal(t, 200, rec.Code)
	fetched := decodeBody(t, rec)
	assert.Equal(t, created["price"], fetched["price"])
	assert.Equal(t, created["store_id"], fetched["store_id"])
}

func TestCreateItemMissingField(t *testing.T) {
	ts := newTestServer(t)
	token := signAccessToken(t, 2, false, true)

	rec := ts.request(http.MethodPost, "/item/widget", `{"price": 9.99}`, token)
	assert.Equal(t, 400, rec.Code)
	assert.Equal(t, "store_id cannot be left blank", decodeBody(t, rec)["message"])
}

func TestCreateItemMissingStoreReturns400(t *testing.T) {
	ts := newTestServer(t)
	token := signAccessToken(t, 2, false, true)

	ts.mock.ExpectQuery(regexp.QuoteMeta(findItemQuery)).
		WithArgs("widget").
		WillReturnError(sql.ErrNoRows)
	ts.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO items (name, price, store_id) VALUES (?, ?, ?)`)).
		WithArgs("widget", 9.99, 404).
		WillReturnError(&mysqlFKError)

	rec := ts.request(http.MethodPost, "/item/widget", `{"price": 9.99, "store_id": 404}`, token)
	assert.Equal(t, 400, rec.Code)
}

func TestUpsertItemRequiresFreshToken(t *testing.T) {
	ts := newTestServer(t)
	token := signAccessToken(t, 2, false, false)

	rec := ts.request(http.MethodPut, "/item/widget", `{"price": 4.25, "store_id": 1}`, token)
	assert.Equal(t, 401, rec.Code)
	assert.Equal(t, "Fresh token required", decodeBody(t, rec)["error"])
}

func TestDeleteItemRequiresAdmin(t *testing.T) {
	ts := newTestServer(t)
	token := signAccessToken(t, 2, false, true)

	rec := ts.request(http.MethodDelete, "/item/widget", "", token)
	assert.Equal(t, 401, rec.Code)
	assert.Equal(t, "Admin privilege is required", decodeBody(t, rec)["message"])
}

func TestDeleteItemAsAdmin(t *testing.T) {
	ts := newTestServer(t)
	token := signAccessToken(t, 1, true, true)

	ts.mock.ExpectQuery(regexp.QuoteMeta(findItemQuery)).
		WithArgs("widget").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "store_id"}).AddRow(1, "widget", 9.99, 1))
	ts.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM items WHERE id = ?`)).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := ts.request(http.MethodDelete, "/item/widget", "", token)
	assert.Equal(t, 410, rec.Code)
	assert.Equal(t, "Item deleted", decodeBody(t, rec)["message"])
}

func TestExpiredTokenCode(t *testing.T) {
	ts := newTestServer(t)

	claims := &service.AccessClaims{
		Identity: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "old-jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	rec := ts.request(http.MethodPost, "/item/widget", `{"price": 1, "store_id": 1}`, token)
	assert.Equal(t, 401, rec.Code)
	assert.Equal(t, "token_expired", decodeBody(t, rec)["error"])
}

func TestListItemsWithoutToken(t *testing.T) {
	ts := newTestServer(t)
	ts.mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, price, store_id FROM items`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "store_id"}).AddRow(1, "widget", 9.99, 1))

	rec := ts.request(http.MethodGet, "/items", "", "")
	require.Equal(t, 200, rec.Code)
	items, ok := decodeBody(t, rec)["items"].([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 1)
}

func TestListItemsWithBadTokenStopsAtTheGate(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodGet, "/items", "", "garbage.token.value")
	assert.Equal(t, 401, rec.Code)
	assert.Equal(t, "Invalid Token", decodeBody(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "items")
	assert.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestCreateStoreThenConflict(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ExpectQuery(regexp.QuoteMeta(findStoreQuery)).
		WithArgs("A").
		WillReturnError(sql.ErrNoRows)
	ts.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO stores (name) VALUES (?)`)).
		WithArgs("A").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := ts.request(http.MethodPost, "/store/A", "", "")
	assert.Equal(t, 201, rec.Code)

	ts.mock.ExpectQuery(regexp.QuoteMeta(findStoreQuery)).
		WithArgs("A").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "A"))

	rec = ts.request(http.MethodPost, "/store/A", "", "")
	assert.Equal(t, 400, rec.Code)
	assert.Equal(t, "Store A already exists", decodeBody(t, rec)["message"])
}

func TestGetStoreEmbedsItems(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ExpectQuery(regexp.QuoteMeta(findStoreQuery)).
		WithArgs("A").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "A"))
	ts.mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, price, store_id FROM items WHERE store_id = ?`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "store_id"}).AddRow(1, "widget", 9.99, 1))

	rec := ts.request(http.MethodGet, "/store/A", "", "")
	require.Equal(t, 200, rec.Code)

	body := decodeBody(t, rec)
	items, ok := body["items"].([]interface{})
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "widget", item["name"])
	assert.Equal(t, 9.99, item["price"])
}

func TestDeleteStoreAlwaysAnswers200(t *testing.T) {
	ts := newTestServer(t)
	token := signAccessToken(t, 1, true, true)

	ts.mock.ExpectQuery(regexp.QuoteMeta(findStoreQuery)).
		WithArgs("A").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "A"))
	ts.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM stores WHERE id = ?`)).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := ts.request(http.MethodDelete, "/store/A", "", token)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "Store deleted", decodeBody(t, rec)["message"])

	ts.mock.ExpectQuery(regexp.QuoteMeta(findStoreQuery)).
		WithArgs("A").
		WillReturnError(sql.ErrNoRows)

	rec = ts.request(http.MethodDelete, "/store/A", "", token)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "Store does not exist", decodeBody(t, rec)["message"])
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	ts.mock.ExpectQuery(regexp.QuoteMeta(findUserQuery)).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "is_admin"}).
			AddRow(1, "alice", string(hash), true))

	rec := ts.request(http.MethodPost, "/login", `{"username": "alice", "password": "wrong"}`, "")
	assert.Equal(t, 401, rec.Code)
	assert.Equal(t, "Invalid credentials", decodeBody(t, rec)["message"])
}

func TestLoginRefreshFlow(t *testing.T) {
	ts := newTestServer(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	ts.mock.ExpectQuery(regexp.QuoteMeta(findUserQuery)).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "is_admin"}).
			AddRow(1, "alice", string(hash), true))

	rec := ts.request(http.MethodPost, "/login", `{"username": "alice", "password": "hunter2"}`, "")
	require.Equal(t, 200, rec.Code)
	tokens := decodeBody(t, rec)
	refreshToken, ok := tokens["refresh_token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, tokens["access_token"])

	ts.mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, password, is_admin FROM users WHERE id = ?`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "is_admin"}).
			AddRow(1, "alice", string(hash), true))

	rec = ts.request(http.MethodPost, "/refresh", "", refreshToken)
	require.Equal(t, 200, rec.Code)
	refreshed, ok := decodeBody(t, rec)["access_token"].(string)
	require.True(t, ok)

	claims, err := ts.auth.ParseAccessToken(context.Background(), refreshed)
	require.NoError(t, err)
	assert.False(t, claims.Fresh)

	// The refreshed token is valid but not fresh, so the upsert route
	// turns it away.
	rec = ts.request(http.MethodPut, "/item/widget", `{"price": 4.25, "store_id": 1}`, refreshed)
	assert.Equal(t, 401, rec.Code)
	assert.Equal(t, "Fresh token required", decodeBody(t, rec)["error"])
}

func TestCreateItemRejectsRefreshToken(t *testing.T) {
	ts := newTestServer(t)

	claims := &service.RefreshClaims{
		Identity:  1,
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "refresh-jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	rec := ts.request(http.MethodPost, "/item/widget", `{"price": 9.99, "store_id": 1}`, token)
	assert.Equal(t, 401, rec.Code)
	assert.Equal(t, "Invalid Token", decodeBody(t, rec)["error"])
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	ts := newTestServer(t)
	token := signAccessToken(t, 1, true, true)

	rec := ts.request(http.MethodPost, "/refresh", "", token)
	assert.Equal(t, 401, rec.Code)
	assert.Equal(t, "Invalid Token", decodeBody(t, rec)["error"])
}

func TestLogoutRevokesToken(t *testing.T) {
	ts := newTestServer(t)
	token := signAccessToken(t, 1, true, true)

	rec := ts.request(http.MethodPost, "/logout", "", token)
	require.Equal(t, 200, rec.Code)

	rec = ts.request(http.MethodPost, "/item/widget", `{"price": 1, "store_id": 1}`, token)
	assert.Equal(t, 401, rec.Code)
	assert.Equal(t, "Token Revoked", decodeBody(t, rec)["error"])
}

func TestRegisterConflict(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ExpectQuery(regexp.QuoteMeta(findUserQuery)).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "is_admin"}).
			AddRow(1, "alice", "hash", true))

	rec := ts.request(http.MethodPost, "/register", `{"username": "alice", "password": "hunter2"}`, "")
	assert.Equal(t, 400, rec.Code)
	assert.Equal(t, "User already exists", decodeBody(t, rec)["message"])
}

func TestGetUserNotFound(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, password, is_admin FROM users WHERE id = ?`)).
		WithArgs(42).
		WillReturnError(sql.ErrNoRows)

	rec := ts.request(http.MethodGet, "/user/42", "", "")
	assert.Equal(t, 404, rec.Code)
	assert.Equal(t, "User not found", decodeBody(t, rec)["message"])
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodGet, "/health", "", "")
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}
