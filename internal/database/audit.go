package database

import (
	"fmt"

	"gorm.io/gorm"
)

// auditedTables get an AFTER INSERT/UPDATE/DELETE row trigger writing to audit_log.
var auditedTables = []string{"users", "roles", "user_roles", "orders"}

// changed_by comes from the transaction-local app.changed_by setting written
// by the repositories, falling back to the database role.
const auditFunctionSQL = `
CREATE OR REPLACE FUNCTION audit_row_change() RETURNS trigger AS $$
BEGIN
	INSERT INTO audit_log (table_name, operation, changed_by, changed_at, old_data, new_data)
	VALUES (
		TG_TABLE_NAME,
		TG_OP,
		COALESCE(NULLIF(current_setting('app.changed_by', true), ''), current_user),
		now(),
		CASE WHEN TG_OP IN ('UPDATE', 'DELETE') THEN to_jsonb(OLD) - 'password_hash' END,
		CASE WHEN TG_OP IN ('INSERT', 'UPDATE') THEN to_jsonb(NEW) - 'password_hash' END
	);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;`

func installAuditTriggers(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(auditFunctionSQL).Error; err != nil {
			return err
		}
		for _, table := range auditedTables {
			trigger := "audit_" + table
			if err := tx.Exec(fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s", trigger, table)).Error; err != nil {
				return err
			}
			stmt := fmt.Sprintf(
				"CREATE TRIGGER %s AFTER INSERT OR UPDATE OR DELETE ON %s FOR EACH ROW EXECUTE FUNCTION audit_row_change()",
				trigger, table,
			)
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
