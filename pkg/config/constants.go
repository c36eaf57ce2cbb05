package config

// EnvPrefix namespaces every environment variable this service reads.
const EnvPrefix = "OMEGASTORE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "OMEGASTORE_DB_DSN"
	EnvDBHost = "OMEGASTORE_DB_HOST"
	EnvDBUser = "OMEGASTORE_DB_USER"
	EnvDBName = "OMEGASTORE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
