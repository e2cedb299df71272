package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory builds the gorm repositories once per connection.
type Factory struct {
	db    *gorm.DB
	once  sync.Once
	repos *Repositories
}

func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db}
}

// Repositories returns the shared license and history repositories.
func (f *Factory) Repositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// Licenses is used by the license registry and the license generator.
func (f *Factory) Licenses() LicenseRepository {
	return f.Repositories().License
}

// History backs proposal history, share pages and view counter flushes.
func (f *Factory) History() HistoryRepository {
	return f.Repositories().History
}

var (
	globalFactory *Factory
	factoryOnce   sync.Once
)

// InitializeFactory sets up the global factory. Later calls are ignored.
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory panics when InitializeFactory was never called; only
// entry points with DB_ENABLED reach it.
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("repository: factory not initialized, call InitializeFactory first")
	}
	return globalFactory
}

func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().Repositories()
}
