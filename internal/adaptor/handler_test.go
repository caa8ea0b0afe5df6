package adaptor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"yamdb/internal/data/entity"
	"yamdb/internal/dto/request"
	"yamdb/internal/dto/response"
	"yamdb/internal/usecase"
	"yamdb/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Status  bool              `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func do(handler http.Handler, method, target, body string, ctx func(context.Context) context.Context) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if ctx != nil {
		req = req.WithContext(ctx(req.Context()))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func asUser(id uuid.UUID, username, role string) func(context.Context) context.Context {
	return func(ctx context.Context) context.Context {
		return utils.SetUserContext(ctx, id, username, role)
	}
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", &usecase.ValidationError{Fields: map[string]string{"email": "taken"}}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("sign up: %w", &usecase.ValidationError{Fields: map[string]string{"username": "bad"}}), http.StatusBadRequest},
		{"duplicate", &usecase.ValidationError{Fields: map[string]string{"review": "exists"}, Err: usecase.ErrAlreadyExists}, http.StatusBadRequest},
		{"not found", fmt.Errorf("title %s: %w", uuid.New(), usecase.ErrNotFound), http.StatusNotFound},
		{"forbidden", usecase.ErrForbidden, http.StatusForbidden},
		{"unauthorized", usecase.ErrUnauthorized, http.StatusUnauthorized},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, zap.NewNop(), tt.err, "test operation")

			assert.Equal(t, tt.code, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.False(t, env.Status)
		})
	}
}

func TestHandleServiceError_CarriesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	handleServiceError(rec, zap.NewNop(), &usecase.ValidationError{
		Fields: map[string]string{"confirmation_code": "Invalid confirmation code"},
		Err:    usecase.ErrInvalidCode,
	}, "obtain token")

	env := decodeEnvelope(t, rec)
	assert.Equal(t, map[string]string{"confirmation_code": "Invalid confirmation code"}, env.Errors)
}

// ---- auth ----

type stubAuth struct {
	signUp func(*request.SignUpRequest) (*response.SignUpResponse, error)
	token  func(*request.TokenRequest) (*response.TokenResponse, error)
}

func (s *stubAuth) SignUp(_ context.Context, req *request.SignUpRequest) (*response.SignUpResponse, error) {
	return s.signUp(req)
}

func (s *stubAuth) ObtainToken(_ context.Context, req *request.TokenRequest) (*response.TokenResponse, error) {
	return s.token(req)
}

func TestAuthHandler_SignUp(t *testing.T) {
	var got *request.SignUpRequest
	h := NewAuthHandler(&stubAuth{
		signUp: func(req *request.SignUpRequest) (*response.SignUpResponse, error) {
			got = req
			return &response.SignUpResponse{Username: req.Username, Email: req.Email}, nil
		},
	}, zap.NewNop())

	rec := do(http.HandlerFunc(h.SignUp), http.MethodPost, "/v1/auth/signup",
		`{"username":"alice","email":"alice@example.com"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)

	var data response.SignUpResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &data))
	assert.Equal(t, "alice@example.com", data.Email)
}

func TestAuthHandler_RejectsBadBody(t *testing.T) {
	h := NewAuthHandler(&stubAuth{}, zap.NewNop())

	for name, body := range map[string]string{
		"malformed":     `{"username":`,
		"unknown field": `{"username":"alice","email":"a@example.com","role":"admin"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(http.HandlerFunc(h.SignUp), http.MethodPost, "/v1/auth/signup", body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAuthHandler_TokenInvalidCode(t *testing.T) {
	h := NewAuthHandler(&stubAuth{
		token: func(*request.TokenRequest) (*response.TokenResponse, error) {
			return nil, &usecase.ValidationError{
				Fields: map[string]string{"confirmation_code": "Invalid confirmation code"},
				Err:    usecase.ErrInvalidCode,
			}
		},
	}, zap.NewNop())

	rec := do(http.HandlerFunc(h.Token), http.MethodPost, "/v1/auth/token",
		`{"username":"alice","confirmation_code":"nope"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Errors, "confirmation_code")
}

// ---- titles ----

type stubTitles struct {
	usecase.TitleService
	filter entity.TitleFilter
	req    *request.PaginatedRequest
	getID  string
}

func (s *stubTitles) GetTitles(_ context.Context, filter entity.TitleFilter, req *request.PaginatedRequest) (*response.PaginatedResponse[response.TitleResponse], error) {
	s.filter = filter
	s.req = req
	return response.NewPaginatedResponse[response.TitleResponse](nil, req.Page, req.PerPage, 0), nil
}

func (s *stubTitles) GetTitleByID(_ context.Context, titleID string) (*response.TitleResponse, error) {
	s.getID = titleID
	return nil, fmt.Errorf("title %q: %w", titleID, usecase.ErrNotFound)
}

func titleRouter(h *TitleHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/titles", h.GetTitles)
	r.Get("/v1/titles/{title_id}", h.GetTitleByID)
	return r
}

func TestTitleHandler_GetTitlesParsesFilter(t *testing.T) {
	stub := &stubTitles{}
	router := titleRouter(NewTitleHandler(stub, zap.NewNop()))

	rec := do(router, http.MethodGet, "/v1/titles?name=ring&year=2001&genre=fantasy&category=movie&page=2&per_page=5", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ring", stub.filter.Name)
	require.NotNil(t, stub.filter.Year)
	assert.Equal(t, 2001, *stub.filter.Year)
	assert.Equal(t, "fantasy", stub.filter.Genre)
	assert.Equal(t, "movie", stub.filter.Category)
	assert.Equal(t, 2, stub.req.Page)
	assert.Equal(t, 5, stub.req.PerPage)

	var page response.PaginatedResponse[response.TitleResponse]
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &page))
	assert.Empty(t, page.Data)
	assert.Equal(t, 2, page.Pagination.Page)
}

func TestTitleHandler_GetTitlesRejectsBadYear(t *testing.T) {
	router := titleRouter(NewTitleHandler(&stubTitles{}, zap.NewNop()))

	rec := do(router, http.MethodGet, "/v1/titles?year=last", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Errors, "year")
}

func TestTitleHandler_GetTitleByIDPassesPathParam(t *testing.T) {
	stub := &stubTitles{}
	router := titleRouter(NewTitleHandler(stub, zap.NewNop()))

	rec := do(router, http.MethodGet, "/v1/titles/not-a-uuid", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not-a-uuid", stub.getID)
}

// ---- reviews ----

type stubReviews struct {
	usecase.ReviewService
	actor   usecase.Actor
	titleID string
	err     error
}

func (s *stubReviews) CreateReview(_ context.Context, actor usecase.Actor, titleID string, req *request.CreateReviewRequest) (*response.ReviewResponse, error) {
	s.actor = actor
	s.titleID = titleID
	if s.err != nil {
		return nil, s.err
	}
	return &response.ReviewResponse{ID: uuid.NewString(), Text: req.Text, Author: actor.Username, Score: *req.Score}, nil
}

func (s *stubReviews) DeleteReview(_ context.Context, actor usecase.Actor, titleID, reviewID string) error {
	s.actor = actor
	return s.err
}

func reviewRouter(h *ReviewHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/titles/{title_id}/reviews", h.CreateReview)
	r.Delete("/v1/titles/{title_id}/reviews/{review_id}", h.DeleteReview)
	return r
}

func TestReviewHandler_CreateUsesCaller(t *testing.T) {
	stub := &stubReviews{}
	router := reviewRouter(NewReviewHandler(stub, zap.NewNop()))
	callerID := uuid.New()
	titleID := uuid.NewString()

	rec := do(router, http.MethodPost, "/v1/titles/"+titleID+"/reviews",
		`{"text":"Great","score":9}`, asUser(callerID, "alice", "user"))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, callerID, stub.actor.ID)
	assert.Equal(t, "alice", stub.actor.Username)
	assert.Equal(t, "user", stub.actor.Role)
	assert.Equal(t, titleID, stub.titleID)

	var review response.ReviewResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &review))
	assert.Equal(t, "alice", review.Author)
	assert.Equal(t, 9, review.Score)
}

func TestReviewHandler_CreateWithoutCaller(t *testing.T) {
	router := reviewRouter(NewReviewHandler(&stubReviews{}, zap.NewNop()))

	rec := do(router, http.MethodPost, "/v1/titles/"+uuid.NewString()+"/reviews", `{"text":"Great","score":9}`, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReviewHandler_DeleteForbidden(t *testing.T) {
	stub := &stubReviews{err: usecase.ErrForbidden}
	router := reviewRouter(NewReviewHandler(stub, zap.NewNop()))

	rec := do(router, http.MethodDelete, "/v1/titles/"+uuid.NewString()+"/reviews/"+uuid.NewString(), "",
		asUser(uuid.New(), "bob", "user"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReviewHandler_DeleteNoContent(t *testing.T) {
	router := reviewRouter(NewReviewHandler(&stubReviews{}, zap.NewNop()))

	rec := do(router, http.MethodDelete, "/v1/titles/"+uuid.NewString()+"/reviews/"+uuid.NewString(), "",
		asUser(uuid.New(), "admin", "admin"))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

// ---- users ----

type stubUsers struct {
	usecase.UserService
	profileID uuid.UUID
	update    *request.UpdateUserRequest
	deleted   string
}

func (s *stubUsers) GetProfile(_ context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	s.profileID = userID
	return &response.UserResponse{Username: "alice", Role: "user"}, nil
}

func (s *stubUsers) UpdateProfile(_ context.Context, userID uuid.UUID, req *request.UpdateUserRequest) (*response.UserResponse, error) {
	s.profileID = userID
	s.update = req
	return &response.UserResponse{Username: "alice", Role: "user"}, nil
}

func (s *stubUsers) DeleteUser(_ context.Context, username string) error {
	s.deleted = username
	return nil
}

func userRouter(h *UserHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/users/me", h.GetProfile)
	r.Patch("/v1/users/me", h.UpdateProfile)
	r.Delete("/v1/users/{username}", h.DeleteUser)
	return r
}

func TestUserHandler_Profile(t *testing.T) {
	stub := &stubUsers{}
	router := userRouter(NewUserHandler(stub, zap.NewNop()))
	callerID := uuid.New()

	rec := do(router, http.MethodGet, "/v1/users/me", "", asUser(callerID, "alice", "user"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, callerID, stub.profileID)

	rec = do(router, http.MethodPatch, "/v1/users/me", `{"bio":"hi","role":"admin"}`, asUser(callerID, "alice", "user"))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.update)
	require.NotNil(t, stub.update.Bio)
	assert.Equal(t, "hi", *stub.update.Bio)
}

func TestUserHandler_ProfileRequiresCaller(t *testing.T) {
	router := userRouter(NewUserHandler(&stubUsers{}, zap.NewNop()))

	rec := do(router, http.MethodGet, "/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserHandler_DeleteByUsername(t *testing.T) {
	stub := &stubUsers{}
	router := userRouter(NewUserHandler(stub, zap.NewNop()))

	rec := do(router, http.MethodDelete, "/v1/users/bob", "", asUser(uuid.New(), "root", "admin"))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "bob", stub.deleted)
}
