package config

// HTTPServer struct for HTTP Transport configuration
type HTTPServer struct {
	Port int `yaml:"port"`
}

// Transport is a configuration for Admin Transport: HTTP, gRPC or anything
type Transport struct {
	HTTP HTTPServer `yaml:"http"`
}

type GoSqlDb struct {
	Debug bool   `yaml:"debug"`
	DSN   string `yaml:"dsn"` // Data Source Name
}

type DatabaseResource struct {
	Disable bool   `yaml:"disable"`
	Driver  string `yaml:"driver"` // postgres, etc

	// per driver configuration
	Postgres GoSqlDb `yaml:"postgres"`
}

// DatabaseResources redefine config
type DatabaseResources map[string]DatabaseResource

type ObjectStore struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey"`

	// Endpoint overrides the AWS endpoint, e.g. to point at MinIO.
	Endpoint string `yaml:"endpoint"`
}

type UserPool struct {
	Region          string `yaml:"region"`
	UserPoolID      string `yaml:"userPoolID"`
	ClientID        string `yaml:"clientID"`
	ClientSecret    string `yaml:"clientSecret"`
	AccessKeyID     string `yaml:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey"`
}

type MailSMTP struct {
	ServerHost   string `yaml:"serverHost"`
	ServerPort   int    `yaml:"serverPort"`
	AuthIdentity string `yaml:"authIdentity"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
}

type Mail struct {
	// Sender is the from address on outgoing mail.
	Sender string   `yaml:"sender"`
	SMTP   MailSMTP `yaml:"smtp"`
}

type CacheRedis struct {
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Cache struct {
	// Mode selects the catalog cache backend: "redis" or "inmemory".
	Mode  string     `yaml:"mode"`
	Redis CacheRedis `yaml:"redis"`
}

type ServiceApp struct {
	DBLabel string `yaml:"dbLabel"`

	// CatalogTTLSeconds bounds staleness of the cached public catalog.
	CatalogTTLSeconds int `yaml:"catalogTTLSeconds"`
}

type ServiceIcon struct {
	// DBLabel names the database the icon event opens its dedicated
	// connection against.
	DBLabel string `yaml:"dbLabel"`

	LinkValiditySeconds int `yaml:"linkValiditySeconds"`
}

type ServiceVendor struct {
	DBLabel string `yaml:"dbLabel"`

	// PublicBaseURL prefixes the accept link in invitation mails.
	PublicBaseURL string `yaml:"publicBaseURL"`
}

type Tracing struct {
	Disable bool `yaml:"disable"`

	// JaegerEndpoint is the collector endpoint, e.g. http://localhost:14268/api/traces
	JaegerEndpoint string `yaml:"jaegerEndpoint"`
}

type Services struct {
	App    ServiceApp    `yaml:"app"`
	Icon   ServiceIcon   `yaml:"icon"`
	Vendor ServiceVendor `yaml:"vendor"`
}

// Config contains application config
type Config struct {
	Transport         Transport         `yaml:"transport"`
	DatabaseResources DatabaseResources `yaml:"databaseResources"`
	ObjectStore       ObjectStore       `yaml:"objectStore"`
	UserPool          UserPool          `yaml:"userPool"`
	Mail              Mail              `yaml:"mail"`
	Cache             Cache             `yaml:"cache"`
	Services          Services          `yaml:"services"`
	Tracing           Tracing           `yaml:"tracing"`
}
