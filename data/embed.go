package data

import (
	_ "embed"
)

//go:embed initdb/mariadb/001-privileges.sql
var InitdbMariaDBPrivileges string

//go:embed initdb/postgres/001-privileges.sql
var InitdbPostgresPrivileges string
