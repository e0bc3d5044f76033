package config

import (
	"flag"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr          string
	DBUrl         string
	TokenSecret   string
	TokenTTL      time.Duration
	Debug         bool
	PublicDir     string
	PrivateDir    string
	AdminUser     string
	AdminPassword string
}

// FileConfig is the layout of the optional YAML file given with -config.
// Its values are defaults: flags given on the command line win.
type FileConfig struct {
	Host        string `yaml:"host"`
	Port        uint   `yaml:"port"`
	DBUrl       string `yaml:"db_url"`
	TokenSecret string `yaml:"token_secret"`
	TokenTTL    uint   `yaml:"token_ttl"`
	Debug       bool   `yaml:"debug"`
	PublicDir   string `yaml:"public_dir"`
	PrivateDir  string `yaml:"private_dir"`
	Admin       struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
}

func ParseFlags() (Config, error) {
	return Parse(os.Args[0], os.Args[1:])
}

func Parse(name string, args []string) (cfg Config, err error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)

	var configFile string
	flags.StringVar(&configFile, "config", "", "path to a YAML configuration file")
	var host string
	flags.StringVar(&host, "host", "0.0.0.0", "listen host name")
	var port uint
	flags.UintVar(&port, "port", 80, "listen port number")
	flags.StringVar(&cfg.DBUrl, "db-url", "surveyforge.sqlite", "path to SQLite3 DB file")
	flags.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for token encryption and decryption")
	var ttl uint
	flags.UintVar(&ttl, "token-ttl", 120, "token TTL in seconds")
	flags.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flags.StringVar(&cfg.PublicDir, "public-dir", "public", "directory of static files served at /")
	flags.StringVar(&cfg.PrivateDir, "private-dir", "private", "directory of static files served to admins at /admin")
	flags.StringVar(&cfg.AdminUser, "admin-user", "", "create or update this admin account at startup")
	flags.StringVar(&cfg.AdminPassword, "admin-password", "", "password of -admin-user")

	if err = flags.Parse(args); err != nil {
		return
	}

	if configFile != "" {
		var file FileConfig
		file, err = Load(configFile)
		if err != nil {
			return
		}

		set := map[string]bool{}
		flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
		apply := func(flagName string, ok bool, fn func()) {
			if ok && !set[flagName] {
				fn()
			}
		}
		apply("host", file.Host != "", func() { host = file.Host })
		apply("port", file.Port != 0, func() { port = file.Port })
		apply("db-url", file.DBUrl != "", func() { cfg.DBUrl = file.DBUrl })
		apply("token-secret", file.TokenSecret != "", func() { cfg.TokenSecret = file.TokenSecret })
		apply("token-ttl", file.TokenTTL != 0, func() { ttl = file.TokenTTL })
		apply("debug", file.Debug, func() { cfg.Debug = true })
		apply("public-dir", file.PublicDir != "", func() { cfg.PublicDir = file.PublicDir })
		apply("private-dir", file.PrivateDir != "", func() { cfg.PrivateDir = file.PrivateDir })
		apply("admin-user", file.Admin.Username != "", func() { cfg.AdminUser = file.Admin.Username })
		apply("admin-password", file.Admin.Password != "", func() { cfg.AdminPassword = file.Admin.Password })
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	}
	return
}

// Load reads a YAML configuration file.
func Load(path string) (FileConfig, error) {
	var cfg FileConfig

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, errors.Wrap(err, "read config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parse config file")
	}
	return cfg, nil
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
