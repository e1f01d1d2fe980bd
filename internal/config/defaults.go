package config

const (
	defaultDataDir          = "~/.local/share/nudge"
	defaultLogDir           = "~/.local/share/nudge/logs"
	defaultExportDir        = "~/.local/share/nudge/sessions"
	defaultCameraDevice     = "/dev/video0"
	defaultFrameInterval    = 3
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30

	defaultRemoteBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultRemoteModel          = "google/gemini-3-flash-preview"
	defaultRemoteTimeoutSeconds = 15
	defaultRemoteDailyQuota     = 100
	defaultRemoteMinIntervalSec = 60
	defaultRemoteMaxTokens      = 200

	defaultDebounceMillis      = 500
	defaultHistoryLimit        = 50
	defaultPerfTickSeconds     = 5
	defaultPowerPollSeconds    = 30
	defaultMiningIntervalSec   = 300
	defaultMiningTriggerCount  = 20
	defaultPatternMinResults   = 10
	defaultPatternRetentionDay = 7
	defaultSaveIntervalSeconds = 60

	defaultNotifyRequestTimeout = 10
	defaultNotifyDedupSeconds   = 300
	defaultFocusDropDwellSec    = 120
	defaultBreakAfterMinutes    = 50
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			ExportDir: defaultExportDir,
		},
		Camera: Camera{
			Device:         defaultCameraDevice,
			FrameInterval:  defaultFrameInterval,
			HotplugMonitor: true,
		},
		Remote: Remote{
			Enabled:                    true,
			BaseURL:                    defaultRemoteBaseURL,
			Model:                      defaultRemoteModel,
			TimeoutSeconds:             defaultRemoteTimeoutSeconds,
			DailyQuota:                 defaultRemoteDailyQuota,
			MinRequestIntervalSeconds:  defaultRemoteMinIntervalSec,
			LowConfidenceThreshold:     0.7,
			ComplexConfidenceThreshold: 0.85,
			ExplorationShare:           0.2,
			MaxOutputTokens:            defaultRemoteMaxTokens,
			Temperature:                0.3,
		},
		Fusion: Fusion{
			DebounceMillis:          defaultDebounceMillis,
			HistoryLimit:            defaultHistoryLimit,
			RemoteTriggerConfidence: 0.75,
			RemoteInfluenceCap:      0.3,
			FaceWeight:              0.4,
			ClassifierWeight:        0.3,
			EnvironmentWeight:       0.2,
			BehavioralWeight:        0.1,
		},
		Performance: Performance{
			TickSeconds:      defaultPerfTickSeconds,
			PowerPollSeconds: defaultPowerPollSeconds,
		},
		Patterns: Patterns{
			MiningIntervalSeconds: defaultMiningIntervalSec,
			MiningTriggerCount:    defaultMiningTriggerCount,
			MinResults:            defaultPatternMinResults,
			RetentionDays:         defaultPatternRetentionDay,
		},
		Session: Session{
			SaveIntervalSeconds: defaultSaveIntervalSeconds,
		},
		Notifications: Notifications{
			RequestTimeout:        defaultNotifyRequestTimeout,
			FocusDropThreshold:    0.3,
			FocusDropDwellSeconds: defaultFocusDropDwellSec,
			BreakAfterMinutes:     defaultBreakAfterMinutes,
			DedupWindowSeconds:    defaultNotifyDedupSeconds,
			Errors:                true,
		},
		Logging: Logging{
			Level:         defaultLogLevel,
			Format:        defaultLogFormat,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
