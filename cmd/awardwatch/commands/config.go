package commands

import (
	"awardwatch-backend/lib/configutil"
	"awardwatch-backend/lib/serviceutil"
	"awardwatch-backend/services/awardwatch"
	"awardwatch-backend/services/awardwatch/mailer"
)

type Config struct {
	// directory holding one CSV snapshot per tracked award
	StateDir string `json:"state_dir"`
	// sqlite database recording a summary row per run
	LedgerDb string `json:"ledger_db"`
	// compute and log the digest without sending it
	DryRun bool `json:"dry_run"`

	Mail mailer.Options `json:"mail"`

	// "api" (default) hits the transactions API; "page" scrapes the
	// rendered award page, kept for awards the API does not cover
	Source        string  `json:"source"`
	ApiBaseUrl    string  `json:"api_base_url"`
	RetryAttempts int     `json:"retry_attempts"`
	RateLimit     float64 `json:"rate_limit"`

	// overrides the built-in award table when non-empty
	Awards []awardwatch.Entity `json:"awards"`
}

// the award set the watcher was built for, overridable in config
var defaultAwards = []awardwatch.Entity{
	{Name: "EBANGA", AwardId: "CONT_AWD_75A50123C00037_7505_-NONE-_-NONE-"},
	{Name: "TEMBEXA", AwardId: "CONT_AWD_75A50122C00047_7505_-NONE-_-NONE-"},
	{Name: "BAT", AwardId: "CONT_AWD_75A50119C00075_7505_-NONE-_-NONE-"},
	{Name: "VIGIV", AwardId: "CONT_AWD_75A50119C00037_7505_-NONE-_-NONE-"},
	{Name: "ACAM2000", AwardId: "CONT_AWD_75A50119C00071_7505_-NONE-_-NONE-"},
	{Name: "CYFENDUS", AwardId: "CONT_AWD_HHSO100201600030C_7505_-NONE-_-NONE-"},
}

func loadConfig() Config {
	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if config.StateDir == "" {
		config.StateDir = "state"
	}
	if config.LedgerDb == "" {
		config.LedgerDb = "state/runs.db"
	}
	if len(config.Awards) == 0 {
		config.Awards = defaultAwards
	}
	return config
}
