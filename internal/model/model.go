package model

import (
	"github.com/thep200/devfolio-sync/cfg"
	"github.com/thep200/devfolio-sync/pkg/db"
	"github.com/thep200/devfolio-sync/pkg/log"
)

// Model carries the dependencies shared by the database-backed models.
type Model struct {
	Config *cfg.Config `gorm:"-"`
	Logger log.Logger  `gorm:"-"`
	Mysql  *db.Mysql   `gorm:"-"`
}
