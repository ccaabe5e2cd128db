// Package listing keeps the filter selection of a directory page, sends it
// to the filter endpoint and rewrites the card container with the result.
package listing

import (
	"fmt"
	"strings"
	"sync"

	"github.com/noah-isme/alumni-directory/internal/models"
)

// Dimension identifies one categorical filter.
type Dimension int

const (
	DimensionDepartment Dimension = iota + 1
	DimensionCourse
	DimensionYear
)

// String returns the wire name of the dimension.
func (d Dimension) String() string {
	switch d {
	case DimensionDepartment:
		return "department"
	case DimensionCourse:
		return "course"
	case DimensionYear:
		return "year_of_passing"
	default:
		return fmt.Sprintf("dimension(%d)", int(d))
	}
}

// ParseDimension maps a dimension tag or dropdown item class to a Dimension.
func ParseDimension(tag string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "department", "department-item":
		return DimensionDepartment, nil
	case "course", "course-item":
		return DimensionCourse, nil
	case "year", "year_of_passing", "year-item":
		return DimensionYear, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDimension, tag)
}

// FilterSelection holds at most one value per dimension. Nil means unset.
type FilterSelection struct {
	Department    *string
	Course        *string
	YearOfPassing *string
}

// Store owns the page's FilterSelection.
type Store struct {
	mu  sync.RWMutex
	sel FilterSelection
}

// NewStore returns a store with every dimension unset.
func NewStore() *Store {
	return &Store{}
}

// SetDimension overwrites the value of one dimension. Values are not validated.
func (s *Store) SetDimension(dim Dimension, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, err := s.slot(dim)
	if err != nil {
		return err
	}
	v := value
	*slot = &v
	return nil
}

// Clear unsets one dimension.
func (s *Store) Clear(dim Dimension) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, err := s.slot(dim)
	if err != nil {
		return err
	}
	*slot = nil
	return nil
}

// ReadAll returns the current values in wire form, unset as "".
func (s *Store) ReadAll() models.FilterRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.FilterRequest{
		Department:    models.StringValue(s.sel.Department),
		Course:        models.StringValue(s.sel.Course),
		YearOfPassing: models.StringValue(s.sel.YearOfPassing),
	}
}

// Snapshot returns a copy of the selection keeping unset distinct from "".
func (s *Store) Snapshot() FilterSelection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FilterSelection{
		Department:    clonePtr(s.sel.Department),
		Course:        clonePtr(s.sel.Course),
		YearOfPassing: clonePtr(s.sel.YearOfPassing),
	}
}

func (s *Store) slot(dim Dimension) (**string, error) {
	switch dim {
	case DimensionDepartment:
		return &s.sel.Department, nil
	case DimensionCourse:
		return &s.sel.Course, nil
	case DimensionYear:
		return &s.sel.YearOfPassing, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDimension, dim)
}

func clonePtr(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
