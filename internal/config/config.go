package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/config"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/notification"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/pricing"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/route"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/sms"
)

// NotificationConfig configures the notification worker pool.
type NotificationConfig struct {
	Workers     int
	QueueSize   int
	CountryCode string
	Templates   notification.Templates
}

// BookingConfig configures booking creation.
type BookingConfig struct {
	PriceCheckEnabled     bool
	PriceTolerancePercent float64
	PublishTimeout        time.Duration
}

// ServiceConfig holds all configuration for the transfer service.
type ServiceConfig struct {
	Port             string
	AppEnv           string
	MigrationsDir    string
	DBConfig         config.DatabaseConfig
	KafkaConfig      config.KafkaConfig
	RedisConfig      config.RedisConfig
	CacheEnabled     bool
	SettingsCacheTTL time.Duration
	SMS              sms.Config
	Notification     NotificationConfig
	Route            route.CalculatorConfig
	Pricing          pricing.GlobalPricingSettings
	ProviderPercent  float64
	Booking          BookingConfig
}

// Load reads configuration from BOOKING_* environment variables and config.yaml.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("BOOKING")
	if err != nil {
		return nil, err
	}
	setDefaults(v)

	return &ServiceConfig{
		Port:             config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:           config.GetAppEnv(v),
		MigrationsDir:    v.GetString("MIGRATIONS_DIR"),
		DBConfig:         config.LoadDatabaseConfig(v, "DB_NAME"),
		KafkaConfig:      config.LoadKafkaConfig(v),
		RedisConfig:      config.LoadRedisConfig(v),
		CacheEnabled:     v.GetBool("SETTINGS_CACHE_ENABLED"),
		SettingsCacheTTL: v.GetDuration("SETTINGS_CACHE_TTL"),
		SMS: sms.Config{
			Provider:         v.GetString("SMS_PROVIDER"),
			TwilioAccountSID: v.GetString("TWILIO_ACCOUNT_SID"),
			TwilioAuthToken:  v.GetString("TWILIO_AUTH_TOKEN"),
			TwilioFromNumber: v.GetString("TWILIO_FROM_NUMBER"),
			AWSRegion:        v.GetString("AWS_REGION"),
			AWSSenderID:      v.GetString("AWS_SNS_SENDER_ID"),
		},
		Notification: NotificationConfig{
			Workers:     v.GetInt("NOTIFY_WORKERS"),
			QueueSize:   v.GetInt("NOTIFY_QUEUE_SIZE"),
			CountryCode: v.GetString("NOTIFY_COUNTRY_CODE"),
			Templates: notification.Templates{
				Driver:    v.GetString("NOTIFY_TEMPLATE_DRIVER"),
				Operator:  v.GetString("NOTIFY_TEMPLATE_OPERATOR"),
				Passenger: v.GetString("NOTIFY_TEMPLATE_PASSENGER"),
			},
		},
		Route: route.CalculatorConfig{
			AverageSpeedKmh:      v.GetFloat64("ROUTE_AVERAGE_SPEED_KMH"),
			FixedBufferMinutes:   v.GetInt("ROUTE_FIXED_BUFFER_MINUTES"),
			PerStopBufferMinutes: v.GetInt("ROUTE_PER_STOP_BUFFER_MINUTES"),
			FallbackDistanceKm:   v.GetFloat64("ROUTE_FALLBACK_DISTANCE_KM"),
		},
		Pricing: pricing.GlobalPricingSettings{
			BaseRatePerKm:      v.GetFloat64("PRICING_BASE_RATE_PER_KM"),
			Multiplier0To50:    v.GetFloat64("PRICING_MULTIPLIER_0_50"),
			Multiplier50To100:  v.GetFloat64("PRICING_MULTIPLIER_50_100"),
			Multiplier100To200: v.GetFloat64("PRICING_MULTIPLIER_100_200"),
			Multiplier200Plus:  v.GetFloat64("PRICING_MULTIPLIER_200PLUS"),
			MinFare:            v.GetInt64("PRICING_MIN_FARE"),
			MaxPricePerKm:      v.GetFloat64("PRICING_MAX_PRICE_PER_KM"),
			OverrideEnabled:    v.GetBool("PRICING_OVERRIDE_ENABLED"),
		},
		ProviderPercent: v.GetFloat64("COMMISSION_PROVIDER_PERCENT"),
		Booking: BookingConfig{
			PriceCheckEnabled:     v.GetBool("PRICE_CHECK_ENABLED"),
			PriceTolerancePercent: v.GetFloat64("PRICE_TOLERANCE_PERCENT"),
			PublishTimeout:        v.GetDuration("EVENT_PUBLISH_TIMEOUT"),
		},
	}, nil
}

func setDefaults(v *viper.Viper) {
	def := pricing.DefaultSettings()

	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("DB_NAME", "transfer")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("SETTINGS_CACHE_ENABLED", true)
	v.SetDefault("SETTINGS_CACHE_TTL", time.Minute)
	v.SetDefault("SMS_PROVIDER", sms.ProviderLog)
	v.SetDefault("AWS_REGION", "eu-west-1")
	v.SetDefault("NOTIFY_WORKERS", 4)
	v.SetDefault("NOTIFY_QUEUE_SIZE", 100)
	v.SetDefault("NOTIFY_COUNTRY_CODE", "212")
	v.SetDefault("ROUTE_AVERAGE_SPEED_KMH", route.DefaultAverageSpeedKmh)
	v.SetDefault("ROUTE_FIXED_BUFFER_MINUTES", route.DefaultFixedBufferMinutes)
	v.SetDefault("ROUTE_PER_STOP_BUFFER_MINUTES", route.DefaultPerStopBufferMinutes)
	v.SetDefault("ROUTE_FALLBACK_DISTANCE_KM", route.DefaultFallbackDistanceKm)
	v.SetDefault("PRICING_BASE_RATE_PER_KM", def.BaseRatePerKm)
	v.SetDefault("PRICING_MULTIPLIER_0_50", def.Multiplier0To50)
	v.SetDefault("PRICING_MULTIPLIER_50_100", def.Multiplier50To100)
	v.SetDefault("PRICING_MULTIPLIER_100_200", def.Multiplier100To200)
	v.SetDefault("PRICING_MULTIPLIER_200PLUS", def.Multiplier200Plus)
	v.SetDefault("PRICING_MIN_FARE", def.MinFare)
	v.SetDefault("PRICING_MAX_PRICE_PER_KM", def.MaxPricePerKm)
	v.SetDefault("PRICING_OVERRIDE_ENABLED", def.OverrideEnabled)
	v.SetDefault("COMMISSION_PROVIDER_PERCENT", pricing.DefaultProviderPercent)
	v.SetDefault("PRICE_CHECK_ENABLED", true)
	v.SetDefault("PRICE_TOLERANCE_PERCENT", 1.0)
	v.SetDefault("EVENT_PUBLISH_TIMEOUT", 2*time.Second)
}
