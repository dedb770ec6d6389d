package common

import (
	"fmt"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the startup banner with version and runtime settings
func PrintBanner(version string, config *Config) {
	b := banner.New().SetWidth(60)
	b.PrintTopLine()
	b.PrintCenteredText(fmt.Sprintf("Studeo %s", version))
	b.PrintSeparatorLine()
	b.PrintKeyValue("listen", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port), 10)
	b.PrintKeyValue("provider", string(config.LLM.Provider), 10)
	b.PrintKeyValue("storage", config.Storage.Badger.Path, 10)
	b.PrintBottomLine()
}
