package config

const (
	defaultEnglishDir       = "最后的气宗 英文剧本"
	defaultChineseDir       = "最后的气宗 中文剧本"
	defaultDocsDir          = "docs"
	defaultStateDir         = ".scriptbook"
	defaultSiteTitle        = "Avatar: The Last Airbender Scripts"
	defaultSiteIntro        = "按季/集整理的电子书版本。"
	defaultMkDocsConfig     = "mkdocs.yml"
	defaultEnglishPattern   = "*.txt"
	defaultChinesePrefix    = "avatar"
	defaultChineseExtension = ".doc"
	defaultEpisodeMarker    = `^第.+回`
	defaultExtractTimeout   = 60
	defaultExtractWorkers   = 4
	defaultWatchDebounce    = 500
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			EnglishDir: defaultEnglishDir,
			ChineseDir: defaultChineseDir,
			DocsDir:    defaultDocsDir,
			StateDir:   defaultStateDir,
		},
		Site: Site{
			Title:        defaultSiteTitle,
			Intro:        defaultSiteIntro,
			MkDocsConfig: defaultMkDocsConfig,
			FrontMatter:  true,
		},
		Sources: Sources{
			EnglishPattern:   defaultEnglishPattern,
			ChinesePrefix:    defaultChinesePrefix,
			ChineseExtension: defaultChineseExtension,
			EpisodeMarker:    defaultEpisodeMarker,
		},
		Seasons: DefaultSeasons(),
		Extract: Extract{
			Converters:     []string{"textutil", "antiword"},
			TimeoutSeconds: defaultExtractTimeout,
			Workers:        defaultExtractWorkers,
			Cache:          true,
		},
		Watch: Watch{
			DebounceMillis: defaultWatchDebounce,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// DefaultSeasons returns the stock three-season catalog.
func DefaultSeasons() []Season {
	return []Season{
		{Number: 1, First: 101, Last: 120},
		{Number: 2, First: 201, Last: 220},
		{Number: 3, First: 301, Last: 321},
	}
}
