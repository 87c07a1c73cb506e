package model

// UserSummary is the display projection of a user resolved from the user
// directory. Responses carry it as author or actor, or null when the user
// cannot be resolved.
type UserSummary struct {
	ID        int64  `db:"id" json:"id"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}
