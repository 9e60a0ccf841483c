package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"lotofacil/internal/caixa"
	"lotofacil/internal/models"
	"lotofacil/internal/services"
)

// defaultRegularTickets are the group's fixed Lotofácil entries.
var defaultRegularTickets = [][]int{
	{2, 3, 4, 6, 7, 8, 11, 12, 14, 16, 17, 18, 21, 22, 23},
	{1, 4, 5, 8, 9, 10, 12, 13, 15, 19, 20, 22, 23, 24, 25},
	{1, 2, 4, 6, 7, 8, 9, 12, 13, 17, 18, 21, 22, 23, 24},
	{2, 4, 5, 6, 7, 8, 10, 14, 16, 18, 19, 20, 21, 24, 25},
}

type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Source  SourceConfig  `mapstructure:"source"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Scan    ScanConfig    `mapstructure:"scan"`
	Tickets TicketsConfig `mapstructure:"tickets"`
	Watch   WatchConfig   `mapstructure:"watch"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type LogConfig struct {
	Verbose bool   `mapstructure:"verbose"`
	File    string `mapstructure:"file"`
}

type SourceConfig struct {
	Endpoints     []string      `mapstructure:"endpoints"`
	Timeout       time.Duration `mapstructure:"timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

type CacheConfig struct {
	TTL       time.Duration `mapstructure:"ttl"`
	LatestTTL time.Duration `mapstructure:"latest_ttl"`
	Size      int           `mapstructure:"size"`
}

type ScanConfig struct {
	Limit int `mapstructure:"limit"`
}

type TicketsConfig struct {
	Regular   [][]int `mapstructure:"regular"`
	Extra     [][]int `mapstructure:"extra"`
	ExtraCost string  `mapstructure:"extra_cost"`
}

// WatchConfig drives the periodic check of the latest drawing. An empty
// schedule disables it.
type WatchConfig struct {
	Schedule string `mapstructure:"schedule"`
}

// Load reads configuration from path, when it exists, and from LOTOFACIL_*
// environment variables. Every key has a default.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("lotofacil")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !isMissingFile(err) {
				return nil, fmt.Errorf("failed to read config %s -> %w", path, err)
			}
		}
	}

	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("failed to decode config -> %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.verbose", true)
	v.SetDefault("log.file", "")
	v.SetDefault("source.endpoints", caixa.DefaultBaseURLs)
	v.SetDefault("source.timeout", 20*time.Second)
	v.SetDefault("source.user_agent", "Mozilla/5.0")
	v.SetDefault("source.rate_per_second", 4.0)
	v.SetDefault("source.burst", 2)
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.latest_ttl", 5*time.Minute)
	v.SetDefault("cache.size", 2048)
	v.SetDefault("scan.limit", services.DefaultScanLimit)
	v.SetDefault("tickets.regular", defaultRegularTickets)
	v.SetDefault("tickets.extra", [][]int{})
	v.SetDefault("tickets.extra_cost", "3.50")
	v.SetDefault("watch.schedule", "@every 1h")
}

// Validate checks ticket definitions and amounts.
func (c *AppConfig) Validate() error {
	if len(c.Source.Endpoints) == 0 {
		return errors.New("config: source.endpoints must list at least one URL")
	}
	if _, err := c.ExtraCost(); err != nil {
		return err
	}
	for _, group := range []models.TicketGroup{c.RegularGroup(), c.ExtraGroup()} {
		for _, t := range group.Tickets {
			if err := t.Validate(); err != nil {
				return fmt.Errorf("config: %s tickets: %w", group.Name, err)
			}
		}
	}
	return nil
}

// ExtraCost is the participation cost of one extra ticket on one day.
func (c *AppConfig) ExtraCost() (decimal.Decimal, error) {
	cost, err := decimal.NewFromString(strings.TrimSpace(c.Tickets.ExtraCost))
	if err != nil {
		return decimal.Zero, fmt.Errorf("config: tickets.extra_cost %q -> %w", c.Tickets.ExtraCost, err)
	}
	if cost.IsNegative() {
		return decimal.Zero, fmt.Errorf("config: tickets.extra_cost must not be negative, got %s", cost)
	}
	return cost, nil
}

// RegularGroup builds the always-scored ticket group.
func (c *AppConfig) RegularGroup() models.TicketGroup {
	return models.TicketGroup{Name: "regular", Tickets: buildTickets("Jogo", c.Tickets.Regular)}
}

// ExtraGroup builds the opt-in ticket group, active every day.
func (c *AppConfig) ExtraGroup() models.TicketGroup {
	cost, _ := c.ExtraCost()
	return models.TicketGroup{
		Name:          "extra",
		Tickets:       buildTickets("Extra", c.Tickets.Extra),
		CostPerTicket: cost,
	}
}

// ClientConfig maps the source settings onto the result client.
func (c *AppConfig) ClientConfig() caixa.ClientConfig {
	endpoints := make([]caixa.Endpoint, 0, len(c.Source.Endpoints))
	for _, base := range c.Source.Endpoints {
		endpoints = append(endpoints, caixa.BaseURL(base))
	}
	return caixa.ClientConfig{
		Endpoints:     endpoints,
		Timeout:       c.Source.Timeout,
		UserAgent:     c.Source.UserAgent,
		RatePerSecond: c.Source.RatePerSecond,
		Burst:         c.Source.Burst,
	}
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func buildTickets(prefix string, sets [][]int) []models.Ticket {
	tickets := make([]models.Ticket, 0, len(sets))
	for i, numbers := range sets {
		tickets = append(tickets, models.Ticket{
			Label:   fmt.Sprintf("%s %d", prefix, i+1),
			Numbers: append([]int(nil), numbers...),
		})
	}
	return tickets
}
