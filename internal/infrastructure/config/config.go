package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/iho/cryptotax/internal/domain"
	"github.com/iho/cryptotax/internal/usecase"
)

// Config holds all application configuration.
type Config struct {
	// Tax calculation
	CostBasisMethod          string `env:"COST_BASIS_METHOD"           envDefault:"FIFO"`
	FeeAllocation            string `env:"FEE_ALLOCATION"              envDefault:"buy"`
	TransfersInclude         bool   `env:"TRANSFERS_INCLUDE"           envDefault:"false"`
	TransferFeeAllowableCost bool   `env:"TRANSFER_FEE_ALLOWABLE_COST" envDefault:"false"`
	ZeroCostFallback         bool   `env:"ZERO_COST_FALLBACK"          envDefault:"false"`
	TaxRules                 string `env:"TAX_RULES"                   envDefault:"individual"`
	TaxYearStartMonth        int    `env:"TAX_YEAR_START_MONTH"        envDefault:"4"`
	TaxYearStartDay          int    `env:"TAX_YEAR_START_DAY"          envDefault:"6"`
	BaseCurrency             string `env:"BASE_CURRENCY"               envDefault:"GBP"`

	// Valuation
	PriceRetryMax         int           `env:"PRICE_RETRY_MAX"          envDefault:"3"`
	PriceRetryInterval    time.Duration `env:"PRICE_RETRY_INTERVAL"     envDefault:"500ms"`
	PriceRetryMaxInterval time.Duration `env:"PRICE_RETRY_MAX_INTERVAL" envDefault:"5s"`
	PriceRetryMaxElapsed  time.Duration `env:"PRICE_RETRY_MAX_ELAPSED"  envDefault:"30s"`

	// HTTP Server
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	HTTPIdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"60s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Options validates the tax-calculation settings and converts them into
// pipeline options.
func (c *Config) Options() (usecase.Options, error) {
	method, err := domain.ParseCostBasisMethod(c.CostBasisMethod)
	if err != nil {
		return usecase.Options{}, err
	}
	allocation, err := usecase.ParseFeeAllocation(c.FeeAllocation)
	if err != nil {
		return usecase.Options{}, err
	}
	rules, err := domain.ParseTaxRules(c.TaxRules)
	if err != nil {
		return usecase.Options{}, err
	}
	if c.TaxYearStartMonth < 1 || c.TaxYearStartMonth > 12 {
		return usecase.Options{}, fmt.Errorf("tax year start month %d out of range", c.TaxYearStartMonth)
	}
	if c.TaxYearStartDay < 1 || c.TaxYearStartDay > 31 {
		return usecase.Options{}, fmt.Errorf("tax year start day %d out of range", c.TaxYearStartDay)
	}
	// Check against a non-leap year so Feb 29 is rejected too. The
	// boundary has to exist in every year it is applied to.
	boundary := time.Date(2001, time.Month(c.TaxYearStartMonth), c.TaxYearStartDay, 0, 0, 0, 0, time.UTC)
	if int(boundary.Month()) != c.TaxYearStartMonth || boundary.Day() != c.TaxYearStartDay {
		return usecase.Options{}, fmt.Errorf("tax year start %d-%02d is not a valid date", c.TaxYearStartMonth, c.TaxYearStartDay)
	}

	return usecase.Options{
		Method:                   method,
		FeeAllocation:            allocation,
		TransferFeeAllowableCost: c.TransferFeeAllowableCost,
		TransfersInclude:         c.TransfersInclude,
		ZeroCostFallback:         c.ZeroCostFallback,
		TaxYearStart:             domain.TaxYearStart{Month: time.Month(c.TaxYearStartMonth), Day: c.TaxYearStartDay},
		Rules:                    rules,
		BaseCurrency:             c.BaseCurrency,
	}, nil
}
