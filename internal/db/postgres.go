package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/relaydesk/relaydesk-backend/internal/logger"
	"github.com/relaydesk/relaydesk-backend/internal/types"
	"github.com/relaydesk/relaydesk-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "relaydesk", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

// AutoMigrateAll creates the schema and the cascade chain: deleting an
// account removes its contacts, inboxes, conversations and messages; deleting
// a contact or inbox removes the join rows between them.
func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Account{},
		&types.Agent{},
		&types.Inbox{},
		&types.Contact{},
		&types.ContactInbox{},
		&types.Conversation{},
		&types.Message{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	fks := []struct {
		table, name, column, refTable, onDelete string
	}{
		{"agent", "fk_agent_account_id", "account_id", "account", "CASCADE"},
		{"inbox", "fk_inbox_account_id", "account_id", "account", "CASCADE"},
		{"contact", "fk_contact_account_id", "account_id", "account", "CASCADE"},
		{"contact_inbox", "fk_contact_inbox_contact_id", "contact_id", "contact", "CASCADE"},
		{"contact_inbox", "fk_contact_inbox_inbox_id", "inbox_id", "inbox", "CASCADE"},
		{"conversation", "fk_conversation_account_id", "account_id", "account", "CASCADE"},
		{"conversation", "fk_conversation_inbox_id", "inbox_id", "inbox", "CASCADE"},
		{"conversation", "fk_conversation_contact_id", "contact_id", "contact", "CASCADE"},
		{"conversation", "fk_conversation_assignee_id", "assignee_id", "agent", "SET NULL"},
		{"message", "fk_message_conversation_id", "conversation_id", "conversation", "CASCADE"},
	}
	for _, fk := range fks {
		stmt := fmt.Sprintf(`
			ALTER TABLE %q
			DROP CONSTRAINT IF EXISTS %q;
		`, fk.table, fk.name)
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to reset %s: %w", fk.name, err)
		}
		stmt = fmt.Sprintf(`
			ALTER TABLE %q
			ADD CONSTRAINT %q
			FOREIGN KEY (%q)
			REFERENCES %q("id")
			ON DELETE %s;
		`, fk.table, fk.name, fk.column, fk.refTable, fk.onDelete)
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", fk.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
