package engine_config

import (
	"github.com/martirspe/reclamofacil-notifier/internal/obs"
	kafkax "github.com/martirspe/reclamofacil-notifier/internal/repository/kafka"
	pg "github.com/martirspe/reclamofacil-notifier/internal/repository/postgres"
	"github.com/martirspe/reclamofacil-notifier/internal/services/admin"
	"github.com/martirspe/reclamofacil-notifier/internal/services/dispatch"
	"github.com/martirspe/reclamofacil-notifier/internal/services/scheduler"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Config struct {
	App    App                   `mapstructure:"app"`
	DB     pg.Config             `mapstructure:"db"`
	In     kafkax.ConsumerConfig `mapstructure:"kafka_in"`
	SMTP   dispatch.SMTPConfig   `mapstructure:"smtp"`
	Sched  scheduler.Config      `mapstructure:"scheduler"`
	Admin  admin.Config          `mapstructure:"admin"`
	Server Server                `mapstructure:"server"`
	OTEL   OTEL                  `mapstructure:"otel"`
	Log    Log                   `mapstructure:"log"`
}

func (c *Config) AsLoggerConfig() *obs.LogConfig {
	return &obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    c.App.Name,
		Env:    c.App.Env,
		Ver:    c.App.Version,
	}
}
