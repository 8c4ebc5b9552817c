package models

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Project{},
		&ProjectContract{},
		&Client{},
		&ActivityTrack{},
		&ActivityStopWatch{},
		&Invoice{},
		&InvoiceEntry{},
		&InvoiceAuditLog{},
	}
}
