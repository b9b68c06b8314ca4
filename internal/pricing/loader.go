package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type seasonFile struct {
	Name    string  `mapstructure:"name"`
	Months  []int   `mapstructure:"months"`
	Percent float64 `mapstructure:"percent"`
}

type rulesFile struct {
	Version   string       `mapstructure:"version"`
	Seasons   []seasonFile `mapstructure:"seasons"`
	EarlyBird struct {
		MinDays int     `mapstructure:"min_days"`
		Percent float64 `mapstructure:"percent"`
	} `mapstructure:"early_bird"`
	LastMinute struct {
		MaxDays int     `mapstructure:"max_days"`
		Percent float64 `mapstructure:"percent"`
	} `mapstructure:"last_minute"`
	Group struct {
		MinTravelers int     `mapstructure:"min_travelers"`
		Percent      float64 `mapstructure:"percent"`
	} `mapstructure:"group"`
	Weekend struct {
		Percent float64 `mapstructure:"percent"`
	} `mapstructure:"weekend"`
}

// LoadRules reads a rule table from a YAML (or any viper-supported) file.
// Keys missing from the file keep the values of DefaultRules.
func LoadRules(path string) (Rules, error) {
	def := DefaultRules()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("version", def.Version)
	v.SetDefault("early_bird.min_days", def.EarlyBirdMinDays)
	v.SetDefault("early_bird.percent", def.EarlyBirdPercent.InexactFloat64())
	v.SetDefault("last_minute.max_days", def.LastMinuteMaxDays)
	v.SetDefault("last_minute.percent", def.LastMinutePercent.InexactFloat64())
	v.SetDefault("group.min_travelers", def.GroupMinTravelers)
	v.SetDefault("group.percent", def.GroupPercent.InexactFloat64())
	v.SetDefault("weekend.percent", def.WeekendPercent.InexactFloat64())

	if err := v.ReadInConfig(); err != nil {
		return Rules{}, fmt.Errorf("read pricing rules %s: %w", path, err)
	}

	var f rulesFile
	if err := v.Unmarshal(&f); err != nil {
		return Rules{}, fmt.Errorf("decode pricing rules %s: %w", path, err)
	}

	rules := Rules{
		Version:           f.Version,
		Seasons:           def.Seasons,
		EarlyBirdMinDays:  f.EarlyBird.MinDays,
		EarlyBirdPercent:  decimal.NewFromFloat(f.EarlyBird.Percent),
		LastMinuteMaxDays: f.LastMinute.MaxDays,
		LastMinutePercent: decimal.NewFromFloat(f.LastMinute.Percent),
		GroupMinTravelers: f.Group.MinTravelers,
		GroupPercent:      decimal.NewFromFloat(f.Group.Percent),
		WeekendPercent:    decimal.NewFromFloat(f.Weekend.Percent),
	}

	if v.IsSet("seasons") {
		rules.Seasons = make([]SeasonRule, 0, len(f.Seasons))
		for _, s := range f.Seasons {
			months := make([]time.Month, 0, len(s.Months))
			for _, m := range s.Months {
				months = append(months, time.Month(m))
			}
			rules.Seasons = append(rules.Seasons, SeasonRule{
				Name:    s.Name,
				Months:  months,
				Percent: decimal.NewFromFloat(s.Percent),
			})
		}
	}

	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}
