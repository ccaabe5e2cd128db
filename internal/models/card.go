package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FilterRequest is the body of POST /filter_cards. Unset dimensions travel as empty strings.
type FilterRequest struct {
	Department    string `json:"department" validate:"max=20"`
	Course        string `json:"course" validate:"max=20"`
	YearOfPassing string `json:"year_of_passing" validate:"omitempty,numeric,max=4"`
	SearchTerm    string `json:"search_term" validate:"max=255"`
}

// Card is one listing entry as exchanged on the wire.
type Card struct {
	ID          FlexString `json:"id"`
	Name        FlexString `json:"name"`
	Course      FlexString `json:"course"`
	Department  FlexString `json:"department"`
	PassingYear FlexString `json:"passing_year"`
	UserImage   FlexString `json:"user_image"`
}

// DirectoryCard is a verified user joined with its description row.
type DirectoryCard struct {
	ID          int64   `db:"id"`
	Name        string  `db:"name"`
	Course      *string `db:"course"`
	Department  *string `db:"department"`
	PassingYear *int64  `db:"passing_year"`
	UserImage   []byte  `db:"user_image"`
}

// FilterOptions lists the distinct values offered by the dropdowns.
type FilterOptions struct {
	Departments  []string `json:"departments"`
	Courses      []string `json:"courses"`
	PassingYears []string `json:"passing_years"`
}

// Profile is the detail view behind /profile/{id}.
type Profile struct {
	ID           int64   `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	Email        string  `db:"email" json:"email"`
	EnrollmentNo *string `db:"enrollment_no" json:"enrollment_no,omitempty"`
	ShortDesc    *string `db:"short_desc" json:"short_desc,omitempty"`
	DetailDesc   *string `db:"detail_desc" json:"detail_desc,omitempty"`
	PassingYear  *int64  `db:"passing_year" json:"passing_year,omitempty"`
	Department   *string `db:"department" json:"department,omitempty"`
	Course       *string `db:"course" json:"course,omitempty"`
	Social1      *string `db:"social1" json:"social1,omitempty"`
	Social2      *string `db:"social2" json:"social2,omitempty"`
	Social3      *string `db:"social3" json:"social3,omitempty"`
	Social4      *string `db:"social4" json:"social4,omitempty"`
	UserImage    []byte  `db:"user_image" json:"-"`
	Image        string  `db:"-" json:"user_image,omitempty"`
}

// FlexString decodes from a JSON string, number, or null. It always encodes as a string.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*f = ""
		return nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("flex string: unsupported value %s", string(trimmed))
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the underlying value.
func (f FlexString) String() string {
	return string(f)
}

// Int64String formats an optional integer column; nil becomes empty.
func Int64String(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

// StringValue dereferences an optional text column.
func StringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
