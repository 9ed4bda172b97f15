package migrations

import (
	"gorm.io/gorm"

	catalogpostgres "github.com/Apurer/cafe-pos-server/internal/domains/catalog/adapters/persistence/postgres"
	fulfillpostgres "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/adapters/persistence/postgres"
	invpostgres "github.com/Apurer/cafe-pos-server/internal/domains/inventory/adapters/persistence/postgres"
	orderpostgres "github.com/Apurer/cafe-pos-server/internal/domains/orders/adapters/persistence/postgres"
)

// Models returns every table owned by the bounded contexts, in dependency order.
func Models() []any {
	var models []any
	models = append(models, catalogpostgres.Models()...)
	models = append(models, invpostgres.Models()...)
	models = append(models, orderpostgres.Models()...)
	models = append(models, fulfillpostgres.Models()...)
	return models
}

// Run applies the schema for the bounded contexts. Adapters never automigrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(Models()...)
}
