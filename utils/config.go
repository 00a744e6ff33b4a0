package utils

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config Runtime configuration, read once at startup from a YAML file.
type Config struct {
	App struct {
		Name string `yaml:"name"`
		Env  string `yaml:"env"`
	} `yaml:"app"`
	Server struct {
		Port        string   `yaml:"port"`
		CorsOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Database struct {
		// Driver is either "sqlite" or "mysql"
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	Auth struct {
		SecretKey          string `yaml:"secret_key"`
		AccessTokenMinutes int    `yaml:"access_token_minutes"`
		RefreshTokenDays   int    `yaml:"refresh_token_days"`
	} `yaml:"auth"`
	Uploads struct {
		Dir      string `yaml:"dir"`
		MaxBytes int64  `yaml:"max_bytes"`
	} `yaml:"uploads"`
	Model struct {
		Path       string `yaml:"path"`
		LabelsPath string `yaml:"labels_path"`
		MetaPath   string `yaml:"meta_path"`
	} `yaml:"model"`
}

// NewConfig Read and validate the configuration file
func NewConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(&config); err != nil {
		return nil, err
	}

	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "Plant Doctor API"
	}
	if c.App.Env == "" {
		c.App.Env = "local"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "data/app.db"
	}
	if c.Auth.AccessTokenMinutes == 0 {
		c.Auth.AccessTokenMinutes = 120
	}
	if c.Auth.RefreshTokenDays == 0 {
		c.Auth.RefreshTokenDays = 14
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "uploads"
	}
	if c.Uploads.MaxBytes == 0 {
		c.Uploads.MaxBytes = 10 << 20
	}
	if c.Model.Path == "" {
		c.Model.Path = "models/plant_disease_model.tflite"
	}
	if c.Model.LabelsPath == "" {
		c.Model.LabelsPath = "models/labels.json"
	}
	if c.Model.MetaPath == "" {
		c.Model.MetaPath = "models/meta.json"
	}
}

// ValidateConfigPath Check the config path points to a regular file
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a normal file", path)
	}
	return nil
}

// ParseFlags Parse the command line flags for the config path and debug mode
func ParseFlags() (string, bool, error) {
	var configPath string
	var debugMode bool

	flag.StringVar(&configPath, "config", "config.yaml", "path to config file")
	flag.BoolVar(&debugMode, "debug", false, "run the server in debug mode")
	flag.Parse()

	if err := ValidateConfigPath(configPath); err != nil {
		return "", false, err
	}

	return configPath, debugMode, nil
}
