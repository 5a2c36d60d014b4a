package devops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const Namespace = "PORTAL"

type Config struct {
	LogJSON  bool   `conf:"default:false"`
	TimeZone string `conf:"default:Asia/Kolkata"`

	Sheets struct {
		SpreadsheetID string        `conf:"required"`
		FeedURL       string        `conf:"default:https://docs.google.com/spreadsheets/d"`
		GatewayURL    string        `conf:"required"`
		Timeout       time.Duration `conf:"default:30s"`
		AckMode       string        `conf:"default:strict"`
		RetryAttempts int           `conf:"default:3"`
		RetryBackoff  time.Duration `conf:"default:500ms"`
		MaxBackoff    time.Duration `conf:"default:5s"`
	}
	Consistency struct {
		Interval time.Duration `conf:"default:1s"`
		Attempts int           `conf:"default:5"`
		Window   time.Duration `conf:"default:2m"`
	}
	Pending struct {
		Backend string `conf:"default:memory"`
	}
	Redis struct {
		Addr     string        `conf:"default:localhost:6379"`
		Password string        `conf:"noprint"`
		DB       int           `conf:"default:0"`
		Prefix   string        `conf:"default:portal:"`
		TTL      time.Duration `conf:"default:720h"`
	}
	MySQL struct {
		DSN            string `conf:"noprint"`
		MaxConnections int    `conf:"default:10"`
		LogLevel       string `conf:"default:warn"`
	}
	Attachments struct {
		Backend  string `conf:"default:gateway"`
		FolderID string
		Bucket   string
		Prefix   string `conf:"default:attachments/"`
	}
	Slack struct {
		Token        string `conf:"noprint"`
		InfoChannel  string
		ErrorChannel string
	}
	Email struct {
		From    string
		To      []string
		Subject string `conf:"default:Attendance mispunch digest"`
	}
	Auth struct {
		JWTSecret string        `conf:"noprint"`
		TokenTTL  time.Duration `conf:"default:12h"`
	}
	Web struct {
		Addr           string   `conf:"default:0.0.0.0:8090"`
		AllowedOrigins []string `conf:"default:*"`
	}
	SSMParameter string
}

// Secrets is the yaml document kept in the SSM parameter
type Secrets struct {
	JWTSecret     string `yaml:"jwtSecret"`
	SlackBotToken string `yaml:"slackBotToken"`
	RedisPassword string `yaml:"redisPassword"`
	MySQLDSN      string `yaml:"mysqlDSN"`
}

// ErrHelpWanted is returned when --help was passed; usage has been printed
var ErrHelpWanted = conf.ErrHelpWanted

// Load reads .env when present, then environment and flags, then the
// secrets overlay
func Load(ctx context.Context, args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := conf.Parse(args, Namespace, &cfg); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			usage, uerr := conf.Usage(Namespace, &cfg)
			if uerr != nil {
				return nil, fmt.Errorf("config usage: %w", uerr)
			}
			fmt.Println(usage)
		}
		return nil, err
	}

	if cfg.SSMParameter != "" {
		secrets, err := LoadSecrets(ctx, cfg.SSMParameter)
		if err != nil {
			return nil, err
		}
		cfg.apply(secrets)
	}
	return &cfg, nil
}

func (c *Config) apply(s *Secrets) {
	if s.JWTSecret != "" {
		c.Auth.JWTSecret = s.JWTSecret
	}
	if s.SlackBotToken != "" {
		c.Slack.Token = s.SlackBotToken
	}
	if s.RedisPassword != "" {
		c.Redis.Password = s.RedisPassword
	}
	if s.MySQLDSN != "" {
		c.MySQL.DSN = s.MySQLDSN
	}
}

// String renders the config without the noprint fields
func (c *Config) String() string {
	out, err := conf.String(c)
	if err != nil {
		return err.Error()
	}
	return out
}

var (
	once    sync.Once
	secrets *Secrets
	loadErr error
)

// LoadSecrets fetches the decrypted parameter once per process
func LoadSecrets(ctx context.Context, paramName string) (*Secrets, error) {
	once.Do(func() {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			loadErr = fmt.Errorf("load aws config: %w", err)
			return
		}

		client := ssm.NewFromConfig(cfg)

		out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(paramName),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			loadErr = fmt.Errorf("get parameter: %w", err)
			return
		}

		secrets, loadErr = ParseSecrets([]byte(aws.ToString(out.Parameter.Value)))
	})

	return secrets, loadErr
}

func ParseSecrets(data []byte) (*Secrets, error) {
	var parsed Secrets
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	return &parsed, nil
}
