package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/alumni-directory/internal/models"
)

const cardColumns = `u.id, u.name, d.course, d.department, d.passing_year, d.user_image`

// CardRepository reads directory cards for verified users.
type CardRepository struct {
	db *sqlx.DB
}

// NewCardRepository constructs a CardRepository.
func NewCardRepository(db *sqlx.DB) *CardRepository {
	return &CardRepository{db: db}
}

// List returns the cards matching every non-empty field of the filter.
func (r *CardRepository) List(ctx context.Context, filter models.FilterRequest) ([]models.DirectoryCard, error) {
	base := "FROM users u JOIN user_desc d ON d.id = u.id"
	args := []interface{}{}
	conditions := []string{"u.is_verified = true"}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("d.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Course != "" {
		conditions = append(conditions, fmt.Sprintf("d.course = $%d", len(args)+1))
		args = append(args, filter.Course)
	}
	if filter.YearOfPassing != "" {
		conditions = append(conditions, fmt.Sprintf("d.passing_year = $%d", len(args)+1))
		args = append(args, filter.YearOfPassing)
	}
	if filter.SearchTerm != "" {
		conditions = append(conditions, fmt.Sprintf("(u.name ILIKE $%d OR u.enrollment_no ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.SearchTerm+"%")
	}

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY u.id", cardColumns, base, strings.Join(conditions, " AND "))

	cards := []models.DirectoryCard{}
	if err := r.db.SelectContext(ctx, &cards, query, args...); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

// Options returns the distinct dropdown values present in the directory.
func (r *CardRepository) Options(ctx context.Context) (*models.FilterOptions, error) {
	opts := &models.FilterOptions{Departments: []string{}, Courses: []string{}, PassingYears: []string{}}

	if err := r.db.SelectContext(ctx, &opts.Departments, `SELECT DISTINCT d.department FROM user_desc d WHERE d.department IS NOT NULL ORDER BY 1`); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	if err := r.db.SelectContext(ctx, &opts.Courses, `SELECT DISTINCT d.course FROM user_desc d WHERE d.course IS NOT NULL ORDER BY 1`); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	var years []int64
	if err := r.db.SelectContext(ctx, &years, `SELECT DISTINCT d.passing_year FROM user_desc d WHERE d.passing_year IS NOT NULL ORDER BY 1`); err != nil {
		return nil, fmt.Errorf("list passing years: %w", err)
	}
	for i := range years {
		opts.PassingYears = append(opts.PassingYears, models.Int64String(&years[i]))
	}
	return opts, nil
}

// FindProfile loads the profile of a verified user.
func (r *CardRepository) FindProfile(ctx context.Context, id int64) (*models.Profile, error) {
	const query = `SELECT u.id, u.name, u.email, u.enrollment_no, d.short_desc, d.detail_desc, d.passing_year,
        d.department, d.course, d.social1, d.social2, d.social3, d.social4, d.user_image
        FROM users u JOIN user_desc d ON d.id = u.id
        WHERE u.id = $1 AND u.is_verified = true`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}
