// Package config handles pre-database configuration, such as the location of the database.
// This is used by both homegamed and homegameadmin.
package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Viper-based config loader.  A .env file in the working directory, if
// any, is loaded into the environment first.
func Init() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: can't read .env: %v", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	viper.SetConfigType("yaml")
	viper.SetConfigName(".homegame")
	viper.AddConfigPath(home)
	viper.SetEnvPrefix("HOMEGAME")
	viper.AutomaticEnv()
	SetDefaults()
	err = viper.ReadInConfig() // ignore error if config file missing
	if err != nil {
		log.Printf("viper can't read config file: %v", err)
	}
	log.Printf("Using SQL connector: %s", SQLConnector())
	log.Printf("Using listen address: %s", ListenAddress())
}

// SetDefaults installs defaults without reading any files.  Tests call this
// directly.
func SetDefaults() {
	viper.SetDefault("db_url", "")
	viper.SetDefault("listen_address", ":8080")
	viper.SetDefault("sql_connector", "pgx")
	viper.SetDefault("cache_size", 256)
	viper.SetDefault("strict_conservation", true)
	viper.SetDefault("mutate_retries", 5)
	viper.SetDefault("default_paytable", 1)
	viper.SetDefault("allowed_origins", "")
}

func DBURL() string {
	return viper.GetString("db_url")
}

func ListenAddress() string {
	return viper.GetString("listen_address")
}

// SQLConnector is "pgx" for a plain URL, "connector" for Cloud SQL, or
// "memory" to run without a database.
func SQLConnector() string {
	return viper.GetString("sql_connector")
}

func CacheSize() int {
	return viper.GetInt("cache_size")
}

// StrictConservation makes settlement refuse ledgers that don't net out.
func StrictConservation() bool {
	return viper.GetBool("strict_conservation")
}

func MutateRetries() int {
	return viper.GetInt("mutate_retries")
}

func DefaultPaytableID() int64 {
	return viper.GetInt64("default_paytable")
}

// AllowedOrigins is a comma-separated list of CORS origins.
func AllowedOrigins() []string {
	r := []string{}
	for _, origin := range strings.Split(viper.GetString("allowed_origins"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			r = append(r, origin)
		}
	}
	return r
}
