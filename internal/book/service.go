package book

import (
	"context"
	"strings"
)

// Service provides book-related business logic.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Book, error) {
	in.Title = strings.TrimSpace(in.Title)
	return s.repo.Create(ctx, in)
}

func (s *Service) GetAll(ctx context.Context) ([]Book, error) {
	return s.repo.GetAll(ctx)
}

func (s *Service) GetByID(ctx context.Context, id int) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int, in UpdateInput) (Book, error) {
	return s.repo.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, id int) (bool, error) {
	return s.repo.Delete(ctx, id)
}

func (s *Service) SearchText(ctx context.Context, query string) ([]Book, error) {
	return s.repo.SearchText(ctx, query)
}
