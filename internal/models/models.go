package models

// All lists every model for auto-migration in sqlite mode and tests.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Expense{},
		&VerificationCode{},
		&AuditLog{},
	}
}
