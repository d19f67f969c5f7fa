package config

// ConfigDiff describes what changed between two configs. Only fields that
// can be applied without restarting the process are tracked; an oracle or
// deck change still requires a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	RevealIntervalChanged bool
	NewRevealIntervalMS   int

	TurnBudgetChanged bool
	NewTurnBudget     int

	// RestartRequired is set when a non-hot-reloadable section differs.
	RestartRequired bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Dialogue.RevealIntervalMS != new.Dialogue.RevealIntervalMS {
		d.RevealIntervalChanged = true
		d.NewRevealIntervalMS = new.Dialogue.RevealIntervalMS
	}

	if old.Dialogue.TurnBudget != new.Dialogue.TurnBudget {
		d.TurnBudgetChanged = true
		d.NewTurnBudget = new.Dialogue.TurnBudget
	}

	if old.Oracle != new.Oracle ||
		old.Deck != new.Deck ||
		old.State != new.State ||
		old.Gate != new.Gate ||
		old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = true
	}

	return d
}
