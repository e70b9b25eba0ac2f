package config

// OrgConfig represents the organization being protected
type OrgConfig struct {
	Domain     string
	Executives []string
}

// FusionConfig represents the risk fusion weights
type FusionConfig struct {
	TrustWeight      float64
	TemporalWeight   float64
	StylometryWeight float64
	PaymentWeight    float64
}

// ServerConfig represents the serving surfaces
type ServerConfig struct {
	HTTPAddress    string
	FilterEnabled  bool
	FilterAddress  string
	BlockCritical  bool
	LevelHeader    string
	ScoreHeader    string
	FactorsHeader  string
	PostfixEnabled bool
	PostfixAddress string
	PostfixPort    int
}

// StoreConfig represents the verdict audit store
type StoreConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// GetOrg returns the organization configuration
func (c *Config) GetOrg() OrgConfig {
	return OrgConfig{
		Domain:     c.GetString("org.domain"),
		Executives: c.GetStringSlice("org.executives"),
	}
}

// GetFusion returns the fusion weight configuration
func (c *Config) GetFusion() FusionConfig {
	return FusionConfig{
		TrustWeight:      c.GetFloat64("fusion.trust_weight"),
		TemporalWeight:   c.GetFloat64("fusion.temporal_weight"),
		StylometryWeight: c.GetFloat64("fusion.stylometry_weight"),
		PaymentWeight:    c.GetFloat64("fusion.payment_weight"),
	}
}

// GetServer returns the server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		HTTPAddress:    c.GetString("server.http_address"),
		FilterEnabled:  c.GetBool("server.filter_enabled"),
		FilterAddress:  c.GetString("server.filter_address"),
		BlockCritical:  c.GetBool("server.block_critical"),
		LevelHeader:    c.GetString("server.headers.level"),
		ScoreHeader:    c.GetString("server.headers.score"),
		FactorsHeader:  c.GetString("server.headers.factors"),
		PostfixEnabled: c.GetBool("server.postfix.enabled"),
		PostfixAddress: c.GetString("server.postfix.address"),
		PostfixPort:    c.GetInt("server.postfix.port"),
	}
}

// GetStore returns the verdict store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:       c.GetString("store.type"),
		SQLitePath: c.GetString("store.sqlite_path"),
		MySQLDSN:   c.GetString("store.mysql_dsn"),
	}
}
