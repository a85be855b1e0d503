package book

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookColumns = `id, title, author, year_read, rating, notes, cover_url, cover_data,
	isbn, publisher, published_date, description, created_at`

// PostgresRepo stores books in the books table (see db/migrations).
type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, in CreateInput) (Book, error) {
	query := `
	INSERT INTO books (title, author, year_read, rating, notes, cover_url, cover_data,
		isbn, publisher, published_date, description)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING ` + bookColumns

	row := r.db.QueryRow(ctx, query,
		in.Title, in.Author, in.YearRead, in.Rating, in.Notes, in.CoverURL, in.CoverData,
		in.ISBN, in.Publisher, in.PublishedDate, in.Description)
	return scanBook(row)
}

func (r *PostgresRepo) GetAll(ctx context.Context) ([]Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books ORDER BY created_at DESC, id DESC`, bookColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBooks(rows)
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int) (Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE id = $1`, bookColumns)
	b, err := scanBook(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Book{}, ErrNotFound
	}
	return b, err
}

func (r *PostgresRepo) Update(ctx context.Context, id int, in UpdateInput) (Book, error) {
	// COALESCE keeps the stored value for every field the caller left out.
	query := `
	UPDATE books SET
		title = COALESCE($2, title),
		author = COALESCE($3, author),
		year_read = COALESCE($4, year_read),
		rating = COALESCE($5, rating),
		notes = COALESCE($6, notes),
		cover_url = COALESCE($7, cover_url),
		cover_data = COALESCE($8, cover_data),
		isbn = COALESCE($9, isbn),
		publisher = COALESCE($10, publisher),
		published_date = COALESCE($11, published_date),
		description = COALESCE($12, description)
	WHERE id = $1
	RETURNING ` + bookColumns

	row := r.db.QueryRow(ctx, query, id,
		in.Title, in.Author, in.YearRead, in.Rating, in.Notes, in.CoverURL, in.CoverData,
		in.ISBN, in.Publisher, in.PublishedDate, in.Description)
	b, err := scanBook(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Book{}, ErrNotFound
	}
	return b, err
}

func (r *PostgresRepo) Delete(ctx context.Context, id int) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepo) SearchText(ctx context.Context, q string) ([]Book, error) {
	query := fmt.Sprintf(`
	SELECT %s FROM books
	WHERE title ILIKE '%%' || $1 || '%%'
	   OR author ILIKE '%%' || $1 || '%%'
	   OR isbn ILIKE '%%' || $1 || '%%'
	   OR publisher ILIKE '%%' || $1 || '%%'
	   OR description ILIKE '%%' || $1 || '%%'
	ORDER BY created_at DESC, id DESC`, bookColumns)

	rows, err := r.db.Query(ctx, query, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBooks(rows)
}

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.YearRead, &b.Rating, &b.Notes,
		&b.CoverURL, &b.CoverData, &b.ISBN, &b.Publisher, &b.PublishedDate,
		&b.Description, &b.CreatedAt)
	return b, err
}

func collectBooks(rows pgx.Rows) ([]Book, error) {
	var books []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.YearRead, &b.Rating, &b.Notes,
			&b.CoverURL, &b.CoverData, &b.ISBN, &b.Publisher, &b.PublishedDate,
			&b.Description, &b.CreatedAt); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}
