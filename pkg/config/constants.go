package config

const (
	EnvPrefix = "choco"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "CHOCO_DB_DSN"
	EnvDBHost = "CHOCO_DB_HOST"
	EnvDBUser = "CHOCO_DB_USER"
	EnvDBName = "CHOCO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
