package vendorrepo

// Vendor is a publisher account. The id carries a "_v" prefix followed
// by a generated suffix, assigned at creation. Json tag is used for
// caching and API responses.
type Vendor struct {
	ID      string `json:"id" db:"id" validate:"required"` // primary key, "_v<suffix>"
	Name    string `json:"name" db:"name" validate:"required"`
	Address string `json:"address" db:"address" validate:"-"`
	Email   string `json:"email" db:"email" validate:"required,email"`

	IsPublic bool `json:"is_public" db:"is_public" validate:"-"`

	// IsApproved is always false at creation, flipped by an admin only.
	IsApproved bool `json:"is_approved" db:"is_approved" validate:"-"`

	// Timestamp using integer as unix microsecond in UTC
	CreatedAt int64 `json:"created_at" db:"created_at" validate:"required"`
	UpdatedAt int64 `json:"updated_at" db:"updated_at" validate:"required"`
}
