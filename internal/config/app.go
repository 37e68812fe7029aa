package config

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Download struct {
		Path    string `mapstructure:"path" env:"DOWNLOAD_PATH,default=./downloads"`
		Quality string `mapstructure:"quality" env:"DOWNLOAD_QUALITY,default=best"`
	} `mapstructure:"download"`
	Chat struct {
		Enabled bool `mapstructure:"enabled" env:"CHAT_ENABLED,default=true"`
	} `mapstructure:"chat"`
	Output struct {
		Format string `mapstructure:"format" env:"OUTPUT_FORMAT,default=txt"` // txt or srt
	} `mapstructure:"output"`
	Auth struct {
		// Naver session cookies (NID_AUT, NID_SES) for adult-gated VODs,
		// either "k=v; k2=v2;" or newline-delimited pairs.
		Cookies string `mapstructure:"cookies" env:"NAVER_COOKIES"`
	} `mapstructure:"auth"`
	FFmpeg struct {
		Path string `mapstructure:"path" env:"FFMPEG_PATH,default=ffmpeg"`
	} `mapstructure:"ffmpeg"`
}

func NewConfig(ctx context.Context, configPath string) (*Config, error) {
	var conf Config
	if len(configPath) == 0 {
		if err := envconfig.Process(ctx, &conf); err != nil {
			return nil, errors.Wrap(err, "failed to process config environment variables")
		}
		return &conf, nil
	}

	f, err := os.Open(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open config file '%s'", configPath)
	}
	defer f.Close()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("download.path", "./downloads")
	v.SetDefault("download.quality", "best")
	v.SetDefault("chat.enabled", true)
	v.SetDefault("output.format", "txt")
	v.SetDefault("ffmpeg.path", "ffmpeg")
	if err := v.ReadConfig(f); err != nil {
		return nil, errors.Wrap(err, "failed to read config yaml file")
	}
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Wrap(err, "failed to decode config yaml file")
	}

	return &conf, nil
}
