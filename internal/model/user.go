package model

import "time"

const (
	RoleLearner   = "learner"
	RoleTrainer   = "trainer"
	RoleEvaluator = "evaluator"
	RoleAdmin     = "admin"
)

func ValidRole(r string) bool {
	switch r {
	case RoleLearner, RoleTrainer, RoleEvaluator, RoleAdmin:
		return true
	}
	return false
}

// User is an account in the trainer-scoping tree. A trainer owns its evaluators and
// learners through TrainerID; an empty TrainerID on a non-trainer marks an orphaned
// record awaiting reassignment.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Username     string    `bson:"username" json:"username"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	Role         string    `bson:"role" json:"role"`
	TrainerID    string    `bson:"trainer_id,omitempty" json:"trainer_id,omitempty"`
	IsActive     bool      `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// Orphaned reports whether the user lost its trainer scope.
func (u User) Orphaned() bool {
	return u.Role != RoleTrainer && u.Role != RoleAdmin && u.TrainerID == ""
}

// Deactivate is the soft delete: the record stays for audit, but drops out of every
// trainer-scoped view.
func (u *User) Deactivate() {
	u.IsActive = false
	u.TrainerID = ""
}
