package controlplane

// Driver selects the registry backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)

type Config struct {
	Driver     Driver `env:"CONTROL_PLANE_DRIVER" envDefault:"sqlite"`               // Driver is sqlite, postgres or memory.
	SQLitePath string `env:"CONTROL_PLANE_SQLITE_PATH" envDefault:"data/master.db"` // SQLitePath is the registry file for the sqlite driver.
}
