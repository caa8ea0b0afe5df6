package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"yamdb/internal/authz"
	"yamdb/internal/data/entity"
	"yamdb/internal/data/repository"
	"yamdb/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errUniqueViolation = errors.New("unique violation")

// memStore backs every fake repository so cascades and ratings behave like the database.
type memStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*entity.User
	categories  map[uuid.UUID]*entity.Category
	genres      map[uuid.UUID]*entity.Genre
	titles      map[uuid.UUID]*entity.Title
	titleGenres map[uuid.UUID][]uuid.UUID
	reviews     map[uuid.UUID]*entity.Review
	comments    map[uuid.UUID]*entity.Comment
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[uuid.UUID]*entity.User{},
		categories:  map[uuid.UUID]*entity.Category{},
		genres:      map[uuid.UUID]*entity.Genre{},
		titles:      map[uuid.UUID]*entity.Title{},
		titleGenres: map[uuid.UUID][]uuid.UUID{},
		reviews:     map[uuid.UUID]*entity.Review{},
		comments:    map[uuid.UUID]*entity.Comment{},
	}
}

func (m *memStore) repository() *repository.Repository {
	return &repository.Repository{
		User:     &fakeUserRepo{m},
		Category: &fakeCategoryRepo{m},
		Genre:    &fakeGenreRepo{m},
		Title:    &fakeTitleRepo{m},
		Review:   &fakeReviewRepo{m},
		Comment:  &fakeCommentRepo{m},
	}
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func contains(s, sub string) bool {
	return sub == "" || strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// ----- users -----

type fakeUserRepo struct{ m *memStore }

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Username == user.Username {
			return &repository.DuplicateError{Constraint: "users_username_key", Err: errUniqueViolation}
		}
		if strings.EqualFold(u.Email, user.Email) {
			return &repository.DuplicateError{Constraint: "users_email_key", Err: errUniqueViolation}
		}
	}
	clone := *user
	r.m.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) find(match func(*entity.User) bool) *entity.User {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if match(u) {
			clone := *u
			return &clone
		}
	}
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.ID == id }), nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Username == username }), nil
}

func (r *fakeUserRepo) filtered(search string) []*entity.User {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.User
	for _, u := range r.m.users {
		if contains(u.Username, search) {
			clone := *u
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func (r *fakeUserRepo) FindAll(_ context.Context, search string, limit, offset int) ([]*entity.User, error) {
	return page(r.filtered(search), limit, offset), nil
}

func (r *fakeUserRepo) CountAll(_ context.Context, search string) (int64, error) {
	return int64(len(r.filtered(search))), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, u := range r.m.users {
		if u.ID == user.ID {
			continue
		}
		if u.Username == user.Username {
			return &repository.DuplicateError{Constraint: "users_username_key", Err: errUniqueViolation}
		}
		if strings.EqualFold(u.Email, user.Email) {
			return &repository.DuplicateError{Constraint: "users_email_key", Err: errUniqueViolation}
		}
	}
	clone := *user
	clone.ConfirmationCodeHash = existing.ConfirmationCodeHash
	clone.ConfirmationSentAt = existing.ConfirmationSentAt
	r.m.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) SetConfirmationCode(_ context.Context, id uuid.UUID, codeHash string, sentAt time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.ConfirmationCodeHash = &codeHash
	u.ConfirmationSentAt = &sentAt
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.users, id)
	for rid, review := range r.m.reviews {
		if review.AuthorID == id {
			r.m.deleteReviewLocked(rid)
		}
	}
	for cid, comment := range r.m.comments {
		if comment.AuthorID == id {
			delete(r.m.comments, cid)
		}
	}
	return nil
}

// ----- categories -----

type fakeCategoryRepo struct{ m *memStore }

func (r *fakeCategoryRepo) Create(_ context.Context, category *entity.Category) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, c := range r.m.categories {
		if c.Slug == category.Slug {
			return &repository.DuplicateError{Constraint: "categories_slug_key", Err: errUniqueViolation}
		}
	}
	clone := *category
	r.m.categories[category.ID] = &clone
	return nil
}

func (r *fakeCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if c, ok := r.m.categories[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeCategoryRepo) FindBySlug(_ context.Context, slug string) (*entity.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, c := range r.m.categories {
		if c.Slug == slug {
			clone := *c
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeCategoryRepo) filtered(search string) []*entity.Category {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Category
	for _, c := range r.m.categories {
		if contains(c.Name, search) {
			clone := *c
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *fakeCategoryRepo) FindAll(_ context.Context, search string, limit, offset int) ([]*entity.Category, error) {
	return page(r.filtered(search), limit, offset), nil
}

func (r *fakeCategoryRepo) CountAll(_ context.Context, search string) (int64, error) {
	return int64(len(r.filtered(search))), nil
}

func (r *fakeCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.categories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.categories, id)
	for _, t := range r.m.titles {
		if t.CategoryID != nil && *t.CategoryID == id {
			t.CategoryID = nil
		}
	}
	return nil
}

// ----- genres -----

type fakeGenreRepo struct{ m *memStore }

func (r *fakeGenreRepo) Create(_ context.Context, genre *entity.Genre) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, g := range r.m.genres {
		if g.Slug == genre.Slug {
			return &repository.DuplicateError{Constraint: "genres_slug_key", Err: errUniqueViolation}
		}
	}
	clone := *genre
	r.m.genres[genre.ID] = &clone
	return nil
}

func (r *fakeGenreRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Genre, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if g, ok := r.m.genres[id]; ok {
		clone := *g
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeGenreRepo) FindBySlug(_ context.Context, slug string) (*entity.Genre, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, g := range r.m.genres {
		if g.Slug == slug {
			clone := *g
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeGenreRepo) FindBySlugs(_ context.Context, slugs []string) ([]*entity.Genre, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Genre
	for _, g := range r.m.genres {
		for _, slug := range slugs {
			if g.Slug == slug {
				clone := *g
				out = append(out, &clone)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeGenreRepo) FindByTitleID(_ context.Context, titleID uuid.UUID) ([]*entity.Genre, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Genre
	for _, id := range r.m.titleGenres[titleID] {
		if g, ok := r.m.genres[id]; ok {
			clone := *g
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeGenreRepo) filtered(search string) []*entity.Genre {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Genre
	for _, g := range r.m.genres {
		if contains(g.Name, search) {
			clone := *g
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *fakeGenreRepo) FindAll(_ context.Context, search string, limit, offset int) ([]*entity.Genre, error) {
	return page(r.filtered(search), limit, offset), nil
}

func (r *fakeGenreRepo) CountAll(_ context.Context, search string) (int64, error) {
	return int64(len(r.filtered(search))), nil
}

func (r *fakeGenreRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.genres[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.genres, id)
	for titleID, ids := range r.m.titleGenres {
		kept := ids[:0]
		for _, gid := range ids {
			if gid != id {
				kept = append(kept, gid)
			}
		}
		r.m.titleGenres[titleID] = kept
	}
	return nil
}

// ----- titles -----

type fakeTitleRepo struct{ m *memStore }

func (m *memStore) ratingLocked(titleID uuid.UUID) *float64 {
	var sum, n int
	for _, review := range m.reviews {
		if review.TitleID == titleID {
			sum += review.Score
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := float64(sum) / float64(n)
	return &avg
}

func (r *fakeTitleRepo) Create(_ context.Context, title *entity.Title, genreIDs []uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	clone := *title
	r.m.titles[title.ID] = &clone
	r.m.titleGenres[title.ID] = append([]uuid.UUID(nil), genreIDs...)
	return nil
}

func (r *fakeTitleRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Title, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.titles[id]
	if !ok {
		return nil, nil
	}
	clone := *t
	clone.Rating = r.m.ratingLocked(id)
	return &clone, nil
}

func (r *fakeTitleRepo) filtered(filter entity.TitleFilter) []*entity.Title {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Title
	for _, t := range r.m.titles {
		if !contains(t.Name, filter.Name) {
			continue
		}
		if filter.Year != nil && t.Year != *filter.Year {
			continue
		}
		if filter.Category != "" {
			if t.CategoryID == nil {
				continue
			}
			c, ok := r.m.categories[*t.CategoryID]
			if !ok || c.Slug != filter.Category {
				continue
			}
		}
		if filter.Genre != "" {
			matched := false
			for _, gid := range r.m.titleGenres[t.ID] {
				if g, ok := r.m.genres[gid]; ok && g.Slug == filter.Genre {
					matched = true
				}
			}
			if !matched {
				continue
			}
		}
		clone := *t
		clone.Rating = r.m.ratingLocked(t.ID)
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (r *fakeTitleRepo) FindAll(_ context.Context, filter entity.TitleFilter, limit, offset int) ([]*entity.Title, error) {
	return page(r.filtered(filter), limit, offset), nil
}

func (r *fakeTitleRepo) CountAll(_ context.Context, filter entity.TitleFilter) (int64, error) {
	return int64(len(r.filtered(filter))), nil
}

func (r *fakeTitleRepo) Update(_ context.Context, title *entity.Title, genreIDs []uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.titles[title.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *title
	clone.Rating = nil
	r.m.titles[title.ID] = &clone
	if genreIDs != nil {
		r.m.titleGenres[title.ID] = append([]uuid.UUID(nil), genreIDs...)
	}
	return nil
}

func (r *fakeTitleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.titles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.titles, id)
	delete(r.m.titleGenres, id)
	for rid, review := range r.m.reviews {
		if review.TitleID == id {
			r.m.deleteReviewLocked(rid)
		}
	}
	return nil
}

// ----- reviews -----

type fakeReviewRepo struct{ m *memStore }

func (m *memStore) deleteReviewLocked(id uuid.UUID) {
	delete(m.reviews, id)
	for cid, comment := range m.comments {
		if comment.ReviewID == id {
			delete(m.comments, cid)
		}
	}
}

func (r *fakeReviewRepo) Create(_ context.Context, review *entity.Review) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.reviews {
		if existing.AuthorID == review.AuthorID && existing.TitleID == review.TitleID {
			return &repository.DuplicateError{Constraint: "unique_author_title", Err: errUniqueViolation}
		}
	}
	clone := *review
	r.m.reviews[review.ID] = &clone
	return nil
}

func (r *fakeReviewRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Review, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if review, ok := r.m.reviews[id]; ok {
		clone := *review
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeReviewRepo) byTitle(titleID uuid.UUID) []*entity.Review {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Review
	for _, review := range r.m.reviews {
		if review.TitleID == titleID {
			clone := *review
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeReviewRepo) FindByTitleID(_ context.Context, titleID uuid.UUID, limit, offset int) ([]*entity.Review, error) {
	return page(r.byTitle(titleID), limit, offset), nil
}

func (r *fakeReviewRepo) FindByAuthorAndTitle(_ context.Context, authorID, titleID uuid.UUID) (*entity.Review, error) {
	for _, review := range r.byTitle(titleID) {
		if review.AuthorID == authorID {
			return review, nil
		}
	}
	return nil, nil
}

func (r *fakeReviewRepo) CountByTitleID(_ context.Context, titleID uuid.UUID) (int64, error) {
	return int64(len(r.byTitle(titleID))), nil
}

func (r *fakeReviewRepo) Update(_ context.Context, review *entity.Review) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.reviews[review.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *review
	r.m.reviews[review.ID] = &clone
	return nil
}

func (r *fakeReviewRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	r.m.deleteReviewLocked(id)
	return nil
}

// ----- comments -----

type fakeCommentRepo struct{ m *memStore }

func (r *fakeCommentRepo) Create(_ context.Context, comment *entity.Comment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	clone := *comment
	r.m.comments[comment.ID] = &clone
	return nil
}

func (r *fakeCommentRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Comment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if comment, ok := r.m.comments[id]; ok {
		clone := *comment
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeCommentRepo) byReview(reviewID uuid.UUID) []*entity.Comment {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Comment
	for _, comment := range r.m.comments {
		if comment.ReviewID == reviewID {
			clone := *comment
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeCommentRepo) FindByReviewID(_ context.Context, reviewID uuid.UUID, limit, offset int) ([]*entity.Comment, error) {
	return page(r.byReview(reviewID), limit, offset), nil
}

func (r *fakeCommentRepo) CountByReviewID(_ context.Context, reviewID uuid.UUID) (int64, error) {
	return int64(len(r.byReview(reviewID))), nil
}

func (r *fakeCommentRepo) Update(_ context.Context, comment *entity.Comment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.comments[comment.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *comment
	r.m.comments[comment.ID] = &clone
	return nil
}

func (r *fakeCommentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.comments, id)
	return nil
}

// ----- mailer -----

type sentCode struct {
	email, username, code string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (f *fakeMailer) SendConfirmationCode(_ context.Context, email, username, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentCode{email: email, username: username, code: code})
	return nil
}

func (f *fakeMailer) last(t *testing.T) sentCode {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent, "no confirmation code was sent")
	return f.sent[len(f.sent)-1]
}

// ----- fixture -----

type fixture struct {
	store   *memStore
	repo    *repository.Repository
	mailer  *fakeMailer
	tokens  *utils.TokenManager
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := zap.NewNop()
	enforcer, err := authz.NewEnforcer(log)
	require.NoError(t, err)

	config := &utils.Config{
		JWT:          utils.JWTConfig{Secret: "test-secret", ExpiryHours: 1},
		Confirmation: utils.ConfirmationConfig{TTLHours: 24},
	}
	tokens, err := utils.NewTokenManager(config.JWT)
	require.NoError(t, err)

	store := newMemStore()
	repo := store.repository()
	mail := &fakeMailer{}

	return &fixture{
		store:   store,
		repo:    repo,
		mailer:  mail,
		tokens:  tokens,
		service: NewService(repo, config, tokens, mail, enforcer, log),
	}
}

func (f *fixture) addUser(t *testing.T, username string, role entity.UserRole) Actor {
	t.Helper()
	now := time.Now()
	user := &entity.User{
		Base:     entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
	require.NoError(t, f.repo.User.Create(context.Background(), user))
	return Actor{ID: user.ID, Username: user.Username, Role: string(user.Role)}
}

func (f *fixture) addCategory(t *testing.T, name, slug string) *entity.Category {
	t.Helper()
	category := &entity.Category{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		Name:       name,
		Slug:       slug,
	}
	require.NoError(t, f.repo.Category.Create(context.Background(), category))
	return category
}

func (f *fixture) addGenre(t *testing.T, name, slug string) *entity.Genre {
	t.Helper()
	genre := &entity.Genre{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		Name:       name,
		Slug:       slug,
	}
	require.NoError(t, f.repo.Genre.Create(context.Background(), genre))
	return genre
}

func (f *fixture) addTitle(t *testing.T, name string, year int) *entity.Title {
	t.Helper()
	now := time.Now()
	title := &entity.Title{
		Base: entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name: name,
		Year: year,
	}
	require.NoError(t, f.repo.Title.Create(context.Background(), title, nil))
	return title
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func rolePtr(r entity.UserRole) *string {
	s := string(r)
	return &s
}
